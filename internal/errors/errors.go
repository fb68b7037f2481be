package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrEmptyIndex      = errors.New("path index does not have any paths")
	ErrInvalidDocument = errors.New("generated definition is not a valid schema document")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeInference  ErrorType = "inference"
	ErrorTypeAssemble   ErrorType = "assemble"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeOutput     ErrorType = "output"
	ErrorTypeMapping    ErrorType = "mapping"
	ErrorTypeScaffold   ErrorType = "scaffold"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
		Err:     err,
	}
}

// NewInputError creates a new error related to reading samples and other input files
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewParsingError creates a new error related to JSON parsing
func NewParsingError(message string, err error) *AppError {
	return newError(ErrorTypeParsing, message, err)
}

// NewInferenceError creates a new error related to schema inference
func NewInferenceError(message string, err error) *AppError {
	return newError(ErrorTypeInference, message, err)
}

// NewAssembleError creates a new error related to definition assembly and serialization
func NewAssembleError(message string, err error) *AppError {
	return newError(ErrorTypeAssemble, message, err)
}

// NewValidationError creates a new error for definitions that fail validation
func NewValidationError(message string, err error) *AppError {
	return newError(ErrorTypeValidation, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// NewMappingError creates a new error related to the mapping manifest
func NewMappingError(message string, err error) *AppError {
	return newError(ErrorTypeMapping, message, err)
}

// NewScaffoldError creates a new error related to path index scaffolding
func NewScaffoldError(message string, err error) *AppError {
	return newError(ErrorTypeScaffold, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeInference:
			return fmt.Sprintf("Schema inference error: %s", appErr.Message)
		case ErrorTypeAssemble:
			return fmt.Sprintf("Definition assembly error: %s", appErr.Message)
		case ErrorTypeValidation:
			return fmt.Sprintf("Definition validation error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		case ErrorTypeMapping:
			return fmt.Sprintf("Mapping error: %s", appErr.Message)
		case ErrorTypeScaffold:
			return fmt.Sprintf("Scaffold error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON object or array."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please put the sample json data, save and try again."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}
	if errors.Is(err, ErrEmptyIndex) {
		return "Error: The path index does not have any paths. Make sure to add at least one path."
	}
	if errors.Is(err, ErrInvalidDocument) {
		return "Error: The generated definition is not a valid schema document."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
