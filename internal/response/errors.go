package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrRoleForbidden ErrCode = "ROLE_FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrExamNotStarted     ErrCode = "EXAM_NOT_STARTED"
	ErrExamExpired        ErrCode = "EXAM_EXPIRED"
	ErrInvalidProctorCode ErrCode = "INVALID_PROCTOR_CODE"
	ErrNotAssigned        ErrCode = "NOT_ASSIGNED"
	ErrNotExamOwner       ErrCode = "NOT_EXAM_OWNER"
	ErrInvalidTimeWindow  ErrCode = "INVALID_TIME_WINDOW"
	ErrInvalidQuestions   ErrCode = "INVALID_QUESTIONS"
	ErrInvalidStudents    ErrCode = "INVALID_STUDENTS"

	// ─── Submission & evaluation ───────────────────────────────────────
	ErrInvalidAnswers   ErrCode = "INVALID_ANSWERS"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrResultNotFound   ErrCode = "RESULT_NOT_FOUND"
	ErrInvalidScores    ErrCode = "INVALID_SCORES"
	ErrAlreadyEvaluated ErrCode = "ALREADY_EVALUATED"
	ErrUploadNotAllowed ErrCode = "UPLOAD_NOT_ALLOWED"
	ErrQuestionNotFound ErrCode = "QUESTION_NOT_FOUND"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrTimeout  ErrCode = "REQUEST_TIMEOUT"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Messages are static so they never echo request or exam content.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrRoleForbidden:
		return "Your role is not allowed to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam not found."
	case ErrExamNotStarted:
		return "Exam has not started yet."
	case ErrExamExpired:
		return "Exam has expired."
	case ErrInvalidProctorCode:
		return "Invalid proctor code."
	case ErrNotAssigned:
		return "You are not assigned to this exam."
	case ErrNotExamOwner:
		return "You are not the owner of this exam."
	case ErrInvalidTimeWindow:
		return "Exam end time must be after start time."
	case ErrInvalidQuestions:
		return "One or more questions are invalid."
	case ErrInvalidStudents:
		return "One or more student IDs do not belong to a student account."

	// ─── Submission & evaluation ───────────────────────────────────────
	case ErrInvalidAnswers:
		return "Answers must be a list of answers to questions of this exam."
	case ErrAlreadySubmitted:
		return "You have already submitted this exam."
	case ErrResultNotFound:
		return "Result not found."
	case ErrInvalidScores:
		return "Scores are invalid."
	case ErrAlreadyEvaluated:
		return "This result has already been evaluated."
	case ErrUploadNotAllowed:
		return "This question does not accept file uploads."
	case ErrQuestionNotFound:
		return "Question not found in this exam."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "File upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type. Allowed: PDF, JPEG, PNG."
	case ErrFileTooLarge:
		return "File exceeds the maximum upload size."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrTimeout:
		return "The request took too long to complete."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
