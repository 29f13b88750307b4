package handler

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
)

// folderPattern limits the optional upload folder to a single safe segment.
var folderPattern = regexp.MustCompile(`^[a-z0-9_-]{1,40}$`)

// MediaHandler handles file uploads.
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload godoc
// POST /api/v1/uploads?folder=submissions
// Stores a file (multipart field "file") and returns its URL and metadata.
func (h *MediaHandler) Upload(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	folder := c.DefaultQuery("folder", "general")
	if !folderPattern.MatchString(folder) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"folder": "must be lowercase letters, digits, - or _"})
		return
	}

	up, err := h.mediaService.SaveUpload(c.Request.Context(), header, folder)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, up)
}
