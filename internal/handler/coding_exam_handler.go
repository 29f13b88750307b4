package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
)

// CodingExamHandler serves coding exams created through the exam wizard.
type CodingExamHandler struct {
	examService *service.CodingExamService
}

// NewCodingExamHandler creates a new CodingExamHandler.
func NewCodingExamHandler(examService *service.CodingExamService) *CodingExamHandler {
	return &CodingExamHandler{examService: examService}
}

// List godoc
// GET /api/v1/coding-exams?q=&status=&language=&sort=&dir=&page=&per_page=
// Faculty see every exam; students see published ones only.
func (h *CodingExamHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	q := service.CodingExamView.ParseQuery(c.Request.URL.Query())
	res, err := h.examService.List(c.Request.Context(), claims, q)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Get godoc
// GET /api/v1/coding-exams/:id
func (h *CodingExamHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// Cancel godoc
// POST /api/v1/coding-exams/:id/cancel
// Cancels an exam the caller created. A pending exam will no longer publish.
func (h *CodingExamHandler) Cancel(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exam, err := h.examService.Cancel(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// Delete godoc
// DELETE /api/v1/coding-exams/:id
func (h *CodingExamHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.examService.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
