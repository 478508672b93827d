package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML or price parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeBrowser represents headless browser errors
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeSheet represents spreadsheet store errors
	ErrorTypeSheet ErrorType = "sheet"
	// ErrorTypeStorefront represents storefront API errors
	ErrorTypeStorefront ErrorType = "storefront"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by one of the pipeline stages
type PipelineError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth retrying
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork:
		return true
	case ErrorTypeStorefront:
		return true
	case ErrorTypeRateLimit:
		return false
	case ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, source, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewBrowser creates a new browser error
func NewBrowser(source, message string, err error) *PipelineError {
	return New(ErrorTypeBrowser, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewSheet creates a new sheet store error
func NewSheet(source, message string, err error) *PipelineError {
	return New(ErrorTypeSheet, source, message, err)
}

// NewStorefront creates a new storefront API error
func NewStorefront(source, message string, err error) *PipelineError {
	return New(ErrorTypeStorefront, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *PipelineError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}
