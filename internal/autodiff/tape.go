package autodiff

import (
	"github.com/born-ml/explain/internal/autodiff/ops"
	"github.com/born-ml/explain/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation.
//
// Usage:
//
//	tape := backend.Tape()
//	tape.StartRecording()
//	// ... forward pass ...
//	grads := tape.Backward(output.Raw(), seed, backend)
//	tape.Clear()
//
// A tape is not safe for concurrent use.
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new, non-recording gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape if it is recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear removes all recorded operations. The recording state is preserved.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward propagates outputGrad from output back through the tape.
//
// Operations are walked in reverse order; each one whose output has a
// gradient contributes to its inputs' gradients, which accumulate when a
// tensor is used more than once. Recording is suspended for the duration so
// gradient arithmetic is not itself recorded.
//
// Returns a map from every reachable RawTensor to its gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := map[*tensor.RawTensor]*tensor.RawTensor{output: outputGrad}

	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		grad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads := op.Backward(grad, backend)
		for j, in := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if prev, seen := grads[in]; seen {
				grads[in] = backend.Add(prev, inputGrads[j])
			} else {
				grads[in] = inputGrads[j]
			}
		}
	}

	return grads
}
