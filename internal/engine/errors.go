package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/voxstudio/gridparity/internal/artifact"
)

// GenerationError represents a failed artifact generation.
//
// Generation failures fall into three categories:
//   - Timeout: the process outlived its deadline and was killed
//   - Process failed: the process could not start, or failed without
//     leaving an artifact behind
//   - No artifact: the process exited cleanly but left no artifact behind
//
// GenerationError includes structured fields for diagnostics and for the
// batch runner to classify outcomes.
type GenerationError struct {
	// Code identifies the failure category.
	Code GenerationErrorCode

	// Message is a human-readable description.
	Message string

	// Role identifies the engine that failed.
	Role artifact.Role

	// Model and Seed identify the generation that failed.
	Model string
	Seed  int

	// Output holds the tail of the process's combined output, when any
	// was captured before the failure.
	Output string

	// Err is the underlying process error, if one exists.
	Err error
}

// GenerationErrorCode categorizes generation failures.
type GenerationErrorCode string

const (
	// ErrCodeTimeout indicates the process was killed at its deadline.
	ErrCodeTimeout GenerationErrorCode = "TIMEOUT"

	// ErrCodeProcess indicates a process failure with no artifact to show
	// for it.
	ErrCodeProcess GenerationErrorCode = "PROCESS_FAILED"

	// ErrCodeNoArtifact indicates a clean exit without the expected artifact.
	ErrCodeNoArtifact GenerationErrorCode = "NO_ARTIFACT"
)

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s (engine=%s, model=%s, seed=%d)", e.Code, e.Message, e.Role, e.Model, e.Seed)
}

// Unwrap returns the underlying process error.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error is a generation timeout.
// Uses errors.As to handle wrapped errors.
func IsTimeout(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeTimeout
	}
	return false
}

// IsNoArtifact returns true if the error reports a clean exit that produced
// no artifact. Uses errors.As to handle wrapped errors.
func IsNoArtifact(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeNoArtifact
	}
	return false
}

// NewTimeoutError creates a GenerationError for a killed process.
func NewTimeoutError(role artifact.Role, model string, seed int, timeout time.Duration) *GenerationError {
	return &GenerationError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("generation timed out after %s", timeout),
		Role:    role,
		Model:   model,
		Seed:    seed,
	}
}

// NewProcessError creates a GenerationError for a start failure or
// non-zero exit.
func NewProcessError(role artifact.Role, model string, seed int, output string, err error) *GenerationError {
	return &GenerationError{
		Code:    ErrCodeProcess,
		Message: fmt.Sprintf("generation process failed: %v", err),
		Role:    role,
		Model:   model,
		Seed:    seed,
		Output:  output,
		Err:     err,
	}
}

// NewNoArtifactError creates a GenerationError for a clean exit that left
// no artifact at the expected path.
func NewNoArtifactError(role artifact.Role, model string, seed int, path, output string) *GenerationError {
	return &GenerationError{
		Code:    ErrCodeNoArtifact,
		Message: fmt.Sprintf("process exited cleanly but wrote no artifact at %s", path),
		Role:    role,
		Model:   model,
		Seed:    seed,
		Output:  output,
	}
}
