package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/techsynergy/campus-backend/internal/model"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/validator"
)

// ToolsHandler serves the stateless helpers: plagiarism checks, AI text
// generation and document text extraction.
type ToolsHandler struct {
	plagiarismService *service.PlagiarismService
	aiService         service.TextGenerator
	fileService       *service.FileService
	maxFileBytes      int64
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(
	plagiarismService *service.PlagiarismService,
	aiService service.TextGenerator,
	fileService *service.FileService,
	maxFileBytes int64,
) *ToolsHandler {
	return &ToolsHandler{
		plagiarismService: plagiarismService,
		aiService:         aiService,
		fileService:       fileService,
		maxFileBytes:      maxFileBytes,
	}
}

// CheckPlagiarism godoc
// POST /api/v1/plagiarism/check
// Scores text for similarity. With assignment_id set, the local engine also
// compares against that assignment's submissions.
func (h *ToolsHandler) CheckPlagiarism(c *gin.Context) {
	var req model.PlagiarismCheckRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignmentID := uuid.Nil
	if req.AssignmentID != "" {
		assignmentID = uuid.MustParse(req.AssignmentID)
	}

	res, err := h.plagiarismService.Check(c.Request.Context(), req.Text, assignmentID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Generate godoc
// POST /api/v1/ai/generate
// Returns model-generated text for a prompt.
func (h *ToolsHandler) Generate(c *gin.Context) {
	var req model.GenerateTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	text, err := h.aiService.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"text": text})
}

// ProcessFile godoc
// POST /api/v1/files/process
// Extracts the text of an uploaded document (multipart field "file").
func (h *ToolsHandler) ProcessFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Size > h.maxFileBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileBytes+1))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrUnreadableFile)
		return
	}
	if int64(len(data)) > h.maxFileBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		return
	}

	res, err := h.fileService.Process(header.Filename, data)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}
