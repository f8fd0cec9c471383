package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrNotOwner          ErrCode = "NOT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session window ────────────────────────────────────────────────
	ErrWrongDate         ErrCode = "WRONG_DATE"
	ErrSessionNotStarted ErrCode = "SESSION_NOT_STARTED"
	ErrSessionExpired    ErrCode = "SESSION_EXPIRED"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrAlreadyStarted   ErrCode = "ALREADY_STARTED"
	ErrAlreadyCompleted ErrCode = "ALREADY_COMPLETED"
	ErrAttemptBlocked   ErrCode = "ATTEMPT_BLOCKED"
	ErrAttemptConflict  ErrCode = "ATTEMPT_CONFLICT"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid username/email or password."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."
	case ErrNotOwner:
		return "You are not the owner of this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Session window ────────────────────────────────────────────────
	case ErrWrongDate:
		return "This session is not scheduled for today."
	case ErrSessionNotStarted:
		return "This session has not opened yet."
	case ErrSessionExpired:
		return "This session window has expired."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrAlreadyStarted:
		return "Exam already started on another device or tab."
	case ErrAlreadyCompleted:
		return "Exam already completed."
	case ErrAttemptBlocked:
		return "Your attempt is blocked. Contact your teacher."
	case ErrAttemptConflict:
		return "The attempt does not allow this action."
	case ErrNoQuestions:
		return "This exam has no questions."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Something went wrong."
	default:
		return "An unexpected error occurred."
	}
}
