package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
)

// RequireFaculty allows only faculty tokens through.
func RequireFaculty() gin.HandlerFunc {
	return requireUserType(model.UserTypeFaculty, response.ErrFacultyAccessOnly)
}

// RequireStudent allows only student tokens through.
func RequireStudent() gin.HandlerFunc {
	return requireUserType(model.UserTypeStudent, response.ErrStudentAccessOnly)
}

func requireUserType(want model.UserType, code response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.UserType != want {
			response.AbortFail(c, http.StatusForbidden, code)
			return
		}

		c.Next()
	}
}
