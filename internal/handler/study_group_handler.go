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

// StudyGroupHandler handles class rosters, study groups and group tasks.
type StudyGroupHandler struct {
	groupService *service.StudyGroupService
}

// NewStudyGroupHandler creates a new StudyGroupHandler.
func NewStudyGroupHandler(groupService *service.StudyGroupService) *StudyGroupHandler {
	return &StudyGroupHandler{groupService: groupService}
}

// ─── Classes ────────────────────────────────────────────────────────────────

// ListClasses godoc
// GET /api/v1/study/classes
func (h *StudyGroupHandler) ListClasses(c *gin.Context) {
	classes, err := h.groupService.ListClasses(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, classes)
}

// GetClass godoc
// GET /api/v1/study/classes/:classId
// Returns a class with its roster.
func (h *StudyGroupHandler) GetClass(c *gin.Context) {
	class, err := h.groupService.GetClass(c.Request.Context(), c.Param("classId"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, class)
}

// CreateClass godoc
// POST /api/v1/study/classes
func (h *StudyGroupHandler) CreateClass(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateStudyClassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	class, err := h.groupService.CreateClass(c.Request.Context(), claims.UserID, req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, class)
}

// ─── Groups ─────────────────────────────────────────────────────────────────

// ListGroups godoc
// GET /api/v1/study/classes/:classId/groups?q=&creation_type=&sort=&dir=
// Lists faculty-made and student-made groups of a class.
func (h *StudyGroupHandler) ListGroups(c *gin.Context) {
	q := service.StudyGroupView.ParseQuery(c.Request.URL.Query())
	res, err := h.groupService.ListGroups(c.Request.Context(), c.Param("classId"), q)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// GetGroup godoc
// GET /api/v1/study/classes/:classId/groups/:groupId
func (h *StudyGroupHandler) GetGroup(c *gin.Context) {
	group, err := h.groupService.GetGroup(c.Request.Context(), c.Param("classId"), c.Param("groupId"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// BulkCreate godoc
// POST /api/v1/study/classes/:classId/groups/bulk
// Creates explicit groups, or splits the ungrouped roster by group_size.
func (h *StudyGroupHandler) BulkCreate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BulkCreateGroupsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	groups, err := h.groupService.BulkCreate(c.Request.Context(), claims.UserID, c.Param("classId"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, groups)
}

// CreateStudentGroup godoc
// POST /api/v1/study/classes/:classId/groups
// Lets a student form a group from classmates who are not yet grouped.
func (h *StudyGroupHandler) CreateStudentGroup(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateStudentGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.CreateStudentGroup(c.Request.Context(), claims, c.Param("classId"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, group)
}

// AddMember godoc
// POST /api/v1/study/classes/:classId/groups/:groupId/members
func (h *StudyGroupHandler) AddMember(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AddMemberRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	group, err := h.groupService.AddMember(c.Request.Context(), claims, c.Param("classId"), c.Param("groupId"), req.MemberID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// RemoveMember godoc
// DELETE /api/v1/study/classes/:classId/groups/:groupId/members/:memberId
func (h *StudyGroupHandler) RemoveMember(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	group, err := h.groupService.RemoveMember(c.Request.Context(), claims, c.Param("classId"), c.Param("groupId"), c.Param("memberId"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, group)
}

// DeleteGroup godoc
// DELETE /api/v1/study/classes/:classId/groups/:groupId
func (h *StudyGroupHandler) DeleteGroup(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.groupService.DeleteGroup(c.Request.Context(), claims, c.Param("classId"), c.Param("groupId")); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// AssignTask godoc
// POST /api/v1/study/classes/:classId/groups/:groupId/tasks
// Assigns a task to a group and notifies its members.
func (h *StudyGroupHandler) AssignTask(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AssignGroupTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.groupService.AssignTask(c.Request.Context(), claims.UserID, c.Param("classId"), c.Param("groupId"), req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, task)
}

// ListTasks godoc
// GET /api/v1/study/classes/:classId/groups/:groupId/tasks
func (h *StudyGroupHandler) ListTasks(c *gin.Context) {
	tasks, err := h.groupService.ListTasks(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tasks)
}

// ListAssignedTasks godoc
// GET /api/v1/study/tasks
// Lists every task the caller has assigned.
func (h *StudyGroupHandler) ListAssignedTasks(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	tasks, err := h.groupService.ListAssignedTasks(c.Request.Context(), claims.UserID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tasks)
}
