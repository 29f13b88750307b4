package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/validator"
)

// WizardHandler exposes draft operations for every registered flow
// (profile, assignment, exam) under /wizards/:flow.
type WizardHandler struct {
	wizardService *service.WizardService
}

// NewWizardHandler creates a new WizardHandler.
func NewWizardHandler(wizardService *service.WizardService) *WizardHandler {
	return &WizardHandler{wizardService: wizardService}
}

// Definition godoc
// GET /api/v1/wizards/:flow/definition
// Returns the flow's steps and their fields.
func (h *WizardHandler) Definition(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	def, err := h.wizardService.Definition(claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, def)
}

// Start godoc
// POST /api/v1/wizards/:flow
// Starts a fresh draft on step 1, replacing any existing one.
func (h *WizardHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	draft, err := h.wizardService.Start(c.Request.Context(), claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, draft)
}

// Get godoc
// GET /api/v1/wizards/:flow
// Returns the caller's current draft for the flow.
func (h *WizardHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	draft, err := h.wizardService.Get(c.Request.Context(), claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, draft)
}

// SetFields godoc
// PATCH /api/v1/wizards/:flow/fields
// Writes field values into the draft. The patch is applied atomically.
func (h *WizardHandler) SetFields(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SetFieldsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.wizardService.SetFields(c.Request.Context(), claims, c.Param("flow"), req.Fields)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, draft)
}

// Advance godoc
// POST /api/v1/wizards/:flow/advance
// Validates the current step and moves to the next one.
func (h *WizardHandler) Advance(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	draft, err := h.wizardService.Advance(c.Request.Context(), claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, draft)
}

// Retreat godoc
// POST /api/v1/wizards/:flow/retreat
// Moves back one step. Entered values are kept.
func (h *WizardHandler) Retreat(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	draft, err := h.wizardService.Retreat(c.Request.Context(), claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, draft)
}

// Finalize godoc
// POST /api/v1/wizards/:flow/finalize
// Validates every step and persists the draft. Body is optional:
// {"publish": true} publishes an assignment straight away.
func (h *WizardHandler) Finalize(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var opts service.FinalizeOptions
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	res, err := h.wizardService.Finalize(c.Request.Context(), claims, c.Param("flow"), opts)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Discard godoc
// DELETE /api/v1/wizards/:flow
// Drops the caller's draft.
func (h *WizardHandler) Discard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.wizardService.Discard(c.Request.Context(), claims, c.Param("flow")); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Generate godoc
// POST /api/v1/wizards/:flow/generate
// Runs AI generation for flows that support it and fills the result into
// the draft.
func (h *WizardHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	draft, err := h.wizardService.Generate(c.Request.Context(), claims, c.Param("flow"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, draft)
}
