package explain

import "errors"

// Validation errors. Explain and New wrap these, so use errors.Is.
var (
	ErrNilModel          = errors.New("explain: model is nil")
	ErrInvalidMethod     = errors.New("explain: invalid integration method")
	ErrInvalidSteps      = errors.New("explain: invalid number of steps")
	ErrInvalidBatchSize  = errors.New("explain: invalid internal batch size")
	ErrInvalidInput      = errors.New("explain: invalid input")
	ErrShapeMismatch     = errors.New("explain: shape mismatch")
	ErrUnsupportedOutput = errors.New("explain: unsupported model output")
	ErrMissingTarget     = errors.New("explain: target required for multi-output model")
	ErrAmbiguousTarget   = errors.New("explain: both targets and a target function given")
	ErrTargetOutOfRange  = errors.New("explain: target out of range")
	ErrNotExplanation    = errors.New("explain: archive does not hold an explanation")
	ErrBadExplanation    = errors.New("explain: inconsistent explanation")
)
