package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/techsynergy/campus-backend/internal/kvstore"
	"github.com/techsynergy/campus-backend/internal/response"
	"github.com/techsynergy/campus-backend/internal/service"
	"github.com/techsynergy/campus-backend/internal/wizard"
)

type errMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// errorTable maps service sentinels to HTTP responses. Order matters only
// for wrapped errors that match more than one entry.
var errorTable = []errMapping{
	// Wizard
	{service.ErrUnknownFlow, http.StatusNotFound, response.ErrUnknownFlow},
	{service.ErrFlowForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrDraftNotFound, http.StatusNotFound, response.ErrDraftNotFound},
	{service.ErrGenerateNotFound, http.StatusNotFound, response.ErrNotFound},
	{wizard.ErrFieldLocked, http.StatusConflict, response.ErrFieldLocked},
	{wizard.ErrUnknownField, http.StatusBadRequest, response.ErrUnknownField},
	{wizard.ErrInvalidValue, http.StatusBadRequest, response.ErrInvalidPayload},
	{wizard.ErrInFlight, http.StatusConflict, response.ErrSubmitInFlight},
	{wizard.ErrNotFinalStep, http.StatusConflict, response.ErrNotFinalStep},
	{wizard.ErrAlreadyFinalized, http.StatusConflict, response.ErrAlreadyFinalized},
	{service.ErrProfileRequired, http.StatusForbidden, response.ErrProfileRequired},

	// Assignments and submissions
	{service.ErrAssignmentNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrSubmissionNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNotAssignmentOwner, http.StatusForbidden, response.ErrNotAuthor},
	{service.ErrAssignmentNotDraft, http.StatusConflict, response.ErrAssignmentNotDraft},
	{service.ErrAssignmentNotPublished, http.StatusConflict, response.ErrAssignmentNotPublished},
	{service.ErrSubmissionLocked, http.StatusConflict, response.ErrSubmissionLocked},
	{service.ErrResubmissionNotAllowed, http.StatusConflict, response.ErrResubmissionNotAllowed},
	{service.ErrSubmissionClosed, http.StatusConflict, response.ErrSubmissionClosed},
	{service.ErrGradeExceedsMax, http.StatusBadRequest, response.ErrGradeExceedsMax},
	{service.ErrNotInCohort, http.StatusForbidden, response.ErrNotInCohort},
	{service.ErrFileTypeNotAllowed, http.StatusBadRequest, response.ErrUnsupportedFile},

	// Coding exams
	{service.ErrCodingExamNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNotExamOwner, http.StatusForbidden, response.ErrNotAuthor},

	// Study groups
	{service.ErrStudyClassNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrStudyGroupNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrMemberNotInClass, http.StatusBadRequest, response.ErrMemberNotInClass},
	{service.ErrMemberAlreadyGrouped, http.StatusConflict, response.ErrMemberAlreadyGroup},
	{service.ErrMemberNotInGroup, http.StatusNotFound, response.ErrNotFound},
	{service.ErrNotGroupOwner, http.StatusForbidden, response.ErrActionForbidden},

	// Portals
	{service.ErrUnknownPortal, http.StatusNotFound, response.ErrNotFound},
	{service.ErrPortalItemNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrInvalidStatus, http.StatusBadRequest, response.ErrInvalidStatus},
	{service.ErrInvalidCategory, http.StatusBadRequest, response.ErrInvalidCategory},
	{service.ErrPortalActionDenied, http.StatusForbidden, response.ErrActionForbidden},

	// Notifications
	{service.ErrNotificationNotFound, http.StatusNotFound, response.ErrNotFound},

	// Files, media, AI
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
	{service.ErrUnreadableFile, http.StatusUnprocessableEntity, response.ErrUnreadableFile},
	{service.ErrInvalidImage, http.StatusBadRequest, response.ErrUnsupportedFile},
	{service.ErrAIDisabled, http.StatusServiceUnavailable, response.ErrServiceDisabled},
	{service.ErrAIUpstream, http.StatusBadGateway, response.ErrUpstream},

	// Store
	{kvstore.ErrConflict, http.StatusConflict, response.ErrStoreConflict},
	{kvstore.ErrCorrupt, http.StatusInternalServerError, response.ErrStoreCorrupt},
}

// failWithError writes the response for a service error. Validation errors
// carry their field messages; anything unmapped is logged and becomes a 500.
func failWithError(c *gin.Context, err error) {
	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}

	log.Error().Err(err).
		Str("request_id", c.GetString(response.ContextKeyRequestID)).
		Str("path", c.FullPath()).
		Msg("Unhandled service error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// uuidParam parses a path parameter as a UUID, writing a 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
