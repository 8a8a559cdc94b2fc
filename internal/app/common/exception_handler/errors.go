package common

import "fmt"

// CustomError represents a custom error with additional context
type CustomError struct {
	Code    string
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a new custom error
func NewCustomError(code, message string, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether any CustomError in err's tree carries code.
// Joined errors are searched branch by branch.
func HasCode(err error, code string) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *CustomError:
		return e.Code == code || HasCode(e.Err, code)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasCode(inner, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return HasCode(e.Unwrap(), code)
	}
	return false
}

// Error codes
const (
	ErrConfigLoad   = "CONFIG_LOAD_ERROR"
	ErrDBConnect    = "DB_CONNECT_ERROR"
	ErrCacheConnect = "CACHE_CONNECT_ERROR"
	ErrLogWrite     = "LOG_WRITE_ERROR"
	ErrFetch        = "FETCH_ERROR"
	ErrParse        = "PARSE_ERROR"
	ErrRateLoad     = "RATE_LOAD_ERROR"
	ErrMissingRate  = "MISSING_RATE_ERROR"
	ErrWrite        = "WRITE_ERROR"
	ErrQuery        = "QUERY_ERROR"
)
