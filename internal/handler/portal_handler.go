package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/validator"
)

// PortalHandler serves every service portal under /portals/:portal, where
// :portal is hackathons, lost-found, grievances, document-reissue or
// suggestions.
type PortalHandler struct {
	portalService *service.PortalService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(portalService *service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

// Definition godoc
// GET /api/v1/portals/:portal/definition
// Returns the portal's statuses and categories.
func (h *PortalHandler) Definition(c *gin.Context) {
	def, err := h.portalService.Definition(c.Param("portal"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, def)
}

// List godoc
// GET /api/v1/portals/:portal?q=&status=&category=&priority=&sort=&dir=&page=&per_page=
// Lists the records the caller may see.
func (h *PortalHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	kind := c.Param("portal")
	def, err := h.portalService.Definition(kind)
	if err != nil {
		failWithError(c, err)
		return
	}

	res, err := h.portalService.List(c.Request.Context(), claims, kind, def.View.ParseQuery(c.Request.URL.Query()))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Get godoc
// GET /api/v1/portals/:portal/:id
func (h *PortalHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	item, err := h.portalService.Get(c.Request.Context(), claims, c.Param("portal"), c.Param("id"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// Create godoc
// POST /api/v1/portals/:portal
// Files a new record in its initial status.
func (h *PortalHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreatePortalItemRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.portalService.Create(c.Request.Context(), claims, c.Param("portal"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// UpdateStatus godoc
// PATCH /api/v1/portals/:portal/:id/status
// Moves a record to another status, optionally with a comment.
func (h *PortalHandler) UpdateStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdatePortalStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	item, err := h.portalService.UpdateStatus(c.Request.Context(), claims, c.Param("portal"), c.Param("id"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// AddComment godoc
// POST /api/v1/portals/:portal/:id/comments
func (h *PortalHandler) AddComment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AddCommentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	comment, err := h.portalService.AddComment(c.Request.Context(), claims, c.Param("portal"), c.Param("id"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, comment)
}

// Delete godoc
// DELETE /api/v1/portals/:portal/:id
func (h *PortalHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.portalService.Delete(c.Request.Context(), claims, c.Param("portal"), c.Param("id")); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
