package session

import "errors"

var (
	// ErrValidation indicates missing required pipeline input. The stage
	// does not advance.
	ErrValidation = errors.New("validation failed")

	// ErrInputRequired indicates an approval gate was reached without the
	// explicit external input it requires (topic selection, outline approval).
	ErrInputRequired = errors.New("explicit input required")

	// ErrInvalidTransition indicates a stage move outside the transition table.
	ErrInvalidTransition = errors.New("invalid stage transition")
)
