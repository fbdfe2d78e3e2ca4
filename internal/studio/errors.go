package studio

import "errors"

// Validation failure reasons.
const (
	ReasonEmptyPrompt  = "empty-prompt"
	ReasonInvalidCount = "invalid-count"
)

// ValidationError is a local failure detected before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonEmptyPrompt:
		return "Please enter a prompt"
	case ReasonInvalidCount:
		return "invalid image count"
	default:
		return "invalid request: " + e.Reason
	}
}

// IsEmptyPrompt reports whether err is a ValidationError for an empty prompt.
func IsEmptyPrompt(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Reason == ReasonEmptyPrompt
}

var (
	// ErrBusy rejects a submit while a batch is still in flight.
	ErrBusy = errors.New("studio: a generation is already in progress")

	ErrNothingToExport = errors.New("studio: no image to export")
)
