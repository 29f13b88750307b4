package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailDomain        ErrCode = "EMAIL_DOMAIN_NOT_ALLOWED"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrFacultyAccessOnly ErrCode = "FACULTY_ACCESS_ONLY"
	ErrNotAuthor         ErrCode = "NOT_AUTHOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Wizards ───────────────────────────────────────────────────────
	ErrUnknownFlow      ErrCode = "UNKNOWN_FLOW"
	ErrDraftNotFound    ErrCode = "DRAFT_NOT_FOUND"
	ErrFieldLocked      ErrCode = "FIELD_LOCKED"
	ErrUnknownField     ErrCode = "UNKNOWN_FIELD"
	ErrSubmitInFlight   ErrCode = "SUBMIT_IN_FLIGHT"
	ErrNotFinalStep     ErrCode = "NOT_FINAL_STEP"
	ErrAlreadyFinalized ErrCode = "ALREADY_FINALIZED"
	ErrProfileRequired  ErrCode = "PROFILE_REQUIRED"

	// ─── Assignments ───────────────────────────────────────────────────
	ErrAssignmentNotPublished ErrCode = "ASSIGNMENT_NOT_PUBLISHED"
	ErrAssignmentNotDraft     ErrCode = "ASSIGNMENT_NOT_DRAFT"
	ErrSubmissionLocked       ErrCode = "SUBMISSION_LOCKED"
	ErrResubmissionNotAllowed ErrCode = "RESUBMISSION_NOT_ALLOWED"
	ErrSubmissionClosed       ErrCode = "SUBMISSION_CLOSED"
	ErrGradeExceedsMax        ErrCode = "GRADE_EXCEEDS_MAX"
	ErrNotInCohort            ErrCode = "NOT_IN_COHORT"

	// ─── Study groups & portals ────────────────────────────────────────
	ErrMemberNotInClass   ErrCode = "MEMBER_NOT_IN_CLASS"
	ErrMemberAlreadyGroup ErrCode = "MEMBER_ALREADY_GROUPED"
	ErrInvalidStatus      ErrCode = "INVALID_STATUS"
	ErrInvalidCategory    ErrCode = "INVALID_CATEGORY"
	ErrStoreConflict      ErrCode = "STORE_CONFLICT"
	ErrStoreCorrupt       ErrCode = "STORE_CORRUPT"

	// ─── Media & upstream ──────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrUnreadableFile  ErrCode = "UNREADABLE_FILE"
	ErrUpstream        ErrCode = "UPSTREAM_ERROR"
	ErrServiceDisabled ErrCode = "SERVICE_DISABLED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrInvalidCredentials: "Incorrect email or password.",
	ErrEmailDomain:        "Please sign in with your institutional email address.",
	ErrSessionInvalidated: "Your session has ended. Please sign in again.",
	ErrTokenRequired:      "An authentication token is required.",
	ErrTokenInvalid:       "The authentication token is invalid.",
	ErrTokenExpired:       "The authentication token has expired.",

	ErrForbidden:         "You do not have permission to access this resource.",
	ErrStudentAccessOnly: "This resource is restricted to students.",
	ErrFacultyAccessOnly: "This resource is restricted to faculty.",
	ErrNotAuthor:         "You are not the author of this resource.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidID:      "Invalid ID format.",
	ErrInvalidPayload: "Invalid request payload.",

	ErrNotFound:        "Resource not found.",
	ErrConflict:        "Resource already exists.",
	ErrActionForbidden: "This action is not allowed.",

	ErrUnknownFlow:      "Unknown wizard flow.",
	ErrDraftNotFound:    "No draft in progress. Start the wizard first.",
	ErrFieldLocked:      "This field cannot be edited.",
	ErrUnknownField:     "This field does not belong to the wizard.",
	ErrSubmitInFlight:   "A submission is already in progress.",
	ErrNotFinalStep:     "Complete the remaining steps before submitting.",
	ErrAlreadyFinalized: "This draft has already been submitted.",
	ErrProfileRequired:  "Complete your profile first.",

	ErrAssignmentNotPublished: "This assignment is not open for submissions.",
	ErrAssignmentNotDraft:     "Only draft assignments can be published.",
	ErrSubmissionLocked:       "This submission has been graded and can no longer change.",
	ErrResubmissionNotAllowed: "Resubmission is not allowed for this assignment.",
	ErrSubmissionClosed:       "The due date has passed and late submissions are not accepted.",
	ErrGradeExceedsMax:        "Grade exceeds the maximum marks.",
	ErrNotInCohort:            "This assignment is not assigned to your department or year.",

	ErrMemberNotInClass:   "One or more members are not on the class roster.",
	ErrMemberAlreadyGroup: "One or more members already belong to a group.",
	ErrInvalidStatus:      "Invalid status for this item.",
	ErrInvalidCategory:    "Invalid category for this portal.",
	ErrStoreConflict:      "The data changed concurrently. Please try again.",
	ErrStoreCorrupt:       "Stored data could not be read.",

	ErrFileRequired:    "A file upload is required.",
	ErrUnsupportedFile: "Unsupported file type.",
	ErrFileTooLarge:    "File size exceeds the limit.",
	ErrUnreadableFile:  "The file could not be read.",
	ErrUpstream:        "An external service failed. Please try again later.",
	ErrServiceDisabled: "This service is not configured.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "An internal server error occurred.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
