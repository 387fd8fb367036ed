package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizUnavailable  ErrCode = "QUIZ_UNAVAILABLE"
	ErrNoQuizData       ErrCode = "NO_QUIZ_DATA"
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrSessionClosed    ErrCode = "SESSION_CLOSED"
	ErrSessionLimit     ErrCode = "SESSION_LIMIT_REACHED"
	ErrPanelUnavailable ErrCode = "PANEL_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
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

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizUnavailable:
		return "Failed to load quiz data. Please try again later."
	case ErrNoQuizData:
		return "No quiz data found. Please start the quiz."
	case ErrSessionNotFound:
		return "Quiz session not found or expired."
	case ErrSessionClosed:
		return "Quiz session has ended."
	case ErrSessionLimit:
		return "Too many active quiz sessions. Please try again later."
	case ErrPanelUnavailable:
		return "This material is not available for the current question."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
