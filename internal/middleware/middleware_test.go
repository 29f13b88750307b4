package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signed(t *testing.T, auth *service.AuthService, userType model.UserType, expires time.Time) string {
	t.Helper()
	tok, err := auth.SignClaims(service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1", ExpiresAt: jwt.NewNumericDate(expires)},
		UserType:         userType,
		UserID:           5,
	})
	require.NoError(t, err)
	return tok
}

func TestRequireJWTAndUserType(t *testing.T) {
	auth := service.NewAuthService(&config.Config{JWTSecret: "test-secret"}, nil)
	other := service.NewAuthService(&config.Config{JWTSecret: "other-secret"}, nil)
	future := time.Now().Add(time.Hour)

	r := gin.New()
	r.GET("/faculty", RequireJWT(auth), RequireFaculty(), func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).UserID)
	})

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{"missing", "", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"garbage", "Bearer abc", "", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"wrong secret", "Bearer " + signed(t, other, model.UserTypeFaculty, future), "", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", "Bearer " + signed(t, auth, model.UserTypeFaculty, time.Now().Add(-time.Minute)), "", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"student", "Bearer " + signed(t, auth, model.UserTypeStudent, future), "", http.StatusForbidden, "FACULTY_ACCESS_ONLY"},
		{"faculty", "bearer " + signed(t, auth, model.UserTypeFaculty, future), "", http.StatusOK, "5"},
		{"query fallback", "", signed(t, auth, model.UserTypeFaculty, future), http.StatusOK, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/faculty"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("campus ", 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/uploads/notes.txt", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/image", func(c *gin.Context) { c.Data(http.StatusOK, "image/png", []byte(large)) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/large")
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, large, string(body))

	for _, path := range []string{"/uploads/notes.txt", "/image"} {
		w = get(path)
		assert.Empty(t, w.Header().Get("Content-Encoding"), path)
		assert.Equal(t, large, w.Body.String(), path)
	}
}
