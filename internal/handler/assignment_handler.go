package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techsynergy/campus-backend/internal/listview"
	"github.com/techsynergy/campus-backend/internal/middleware"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/validator"
)

// maxResourceFiles caps one resource upload request.
const maxResourceFiles = 10

// AssignmentHandler handles assignment authoring, student views,
// submissions and grading.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
	submissionService *service.SubmissionService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService, submissionService *service.SubmissionService) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		submissionService: submissionService,
	}
}

// List godoc
// GET /api/v1/assignments?q=&status=&assignment_type=&sort=&dir=&page=&per_page=
// Faculty get their own assignments with submission counts; students get
// published assignments for their department and year.
func (h *AssignmentHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	q := service.AssignmentView.ParseQuery(c.Request.URL.Query())
	var (
		res listview.Result[model.Assignment]
		err error
	)
	if claims.IsFaculty() {
		res, err = h.assignmentService.ListForFaculty(c.Request.Context(), claims.UserID, q)
	} else {
		res, err = h.assignmentService.ListForStudent(c.Request.Context(), claims.UserID, q)
	}
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Get godoc
// GET /api/v1/assignments/:id
// Faculty may read their own assignments in any status. Students read
// published ones with their submission attached.
func (h *AssignmentHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var (
		a   *model.Assignment
		err error
	)
	if claims.IsFaculty() {
		a, err = h.assignmentService.GetOwned(c.Request.Context(), claims.UserID, id)
	} else {
		a, err = h.assignmentService.GetForStudent(c.Request.Context(), claims.UserID, id)
	}
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// Update godoc
// PATCH /api/v1/assignments/:id
// Partially updates an assignment.
func (h *AssignmentHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	a, err := h.assignmentService.Update(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// Delete godoc
// DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.assignmentService.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/assignments/:id/publish
// Publishes a draft and notifies the target students.
func (h *AssignmentHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	a, err := h.assignmentService.Publish(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, a)
}

// AddResources godoc
// POST /api/v1/assignments/:id/resources
// Attaches reference files (multipart field "files", repeatable).
func (h *AssignmentHandler) AddResources(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	files := form.File["files"]
	if len(files) > maxResourceFiles {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"files": "at most 10 files per request"})
		return
	}

	resources, err := h.assignmentService.AddResources(c.Request.Context(), claims.UserID, id, files)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resources)
}

// ListSubmissions godoc
// GET /api/v1/assignments/:id/submissions
// Lists every submission of an assignment.
func (h *AssignmentHandler) ListSubmissions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	subs, err := h.submissionService.ListByAssignment(c.Request.Context(), claims.UserID, id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, subs)
}

// Grade godoc
// POST /api/v1/submissions/:id/grade
// Grades a submission and notifies the student.
func (h *AssignmentHandler) Grade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.GradeSubmissionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissionService.Grade(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// Submit godoc
// POST /api/v1/assignments/:id/submit
// Submits text and/or previously uploaded files. Resubmitting replaces the
// earlier attempt when the assignment allows it.
func (h *AssignmentHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissionService.Submit(c.Request.Context(), claims, id, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, sub)
}

// GetSubmission godoc
// GET /api/v1/submissions/:id
// Returns a submission to its student or to the assignment's author.
func (h *AssignmentHandler) GetSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	sub, err := h.submissionService.Get(c.Request.Context(), claims, id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// ListMySubmissions godoc
// GET /api/v1/submissions
// Lists the caller's own submissions, latest first.
func (h *AssignmentHandler) ListMySubmissions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	subs, err := h.submissionService.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, subs)
}
