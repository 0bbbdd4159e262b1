package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Source errors
const (
	// ErrCodeSourceUnavailable indicates the resource backing a source could not be acquired.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// ErrCodeSourceConsumed indicates a source was traversed a second time.
	ErrCodeSourceConsumed ErrorCode = "SOURCE_CONSUMED"
)

// Processing errors
const (
	// ErrCodeElementProcessing indicates a stage or terminal function failed on an element.
	ErrCodeElementProcessing ErrorCode = "ELEMENT_PROCESSING_FAILURE"
	// ErrCodeCancelled indicates the caller cancelled the run.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Validation errors
const (
	// ErrCodeInvalidArgument indicates an argument to a constructor or stage is invalid.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// ErrCodeInternal indicates a failure that does not fit any other code.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

// construction-time failures; a run that hits them was never started
var constructionCodes = map[ErrorCode]bool{
	ErrCodeSourceUnavailable: true,
	ErrCodeInvalidArgument:   true,
	ErrCodeInvalidConfig:     true,
}

// IsConstructionCode reports whether code is raised before any element is pulled.
func IsConstructionCode(code ErrorCode) bool {
	return constructionCodes[code]
}
