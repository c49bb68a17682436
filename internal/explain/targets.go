package explain

import "fmt"

// ArgmaxTarget targets each instance's highest-scoring output. Single-output
// models get target 0.
func ArgmaxTarget(predictions Array) ([]int, error) {
	n, classes, err := outputLayout(predictions.Shape)
	if err != nil {
		return nil, err
	}
	targets := make([]int, n)
	for i := range n {
		row := predictions.Values[i*classes : (i+1)*classes]
		best := 0
		for c, v := range row {
			if v > row[best] {
				best = c
			}
		}
		targets[i] = best
	}
	return targets, nil
}

// outputLayout accepts [batch], [batch, 1] and [batch, C] outputs.
func outputLayout(shape []int) (n, classes int, err error) {
	switch len(shape) {
	case 1:
		return shape[0], 1, nil
	case 2:
		return shape[0], shape[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: output shape %v (want [batch] or [batch, classes])", ErrUnsupportedOutput, shape)
	}
}

// resolveTargets returns one valid target per instance. explicit takes
// precedence; fn is consulted only when explicit is empty.
func resolveTargets(explicit []int, fn TargetFunc, predictions Array, n, classes int) ([]int, error) {
	targets := explicit
	switch {
	case len(explicit) > 0 && fn != nil:
		return nil, ErrAmbiguousTarget
	case fn != nil:
		var err error
		if targets, err = fn(predictions); err != nil {
			return nil, fmt.Errorf("target function: %w", err)
		}
	}

	switch len(targets) {
	case 0:
		if classes > 1 {
			return nil, fmt.Errorf("%w: model has %d outputs", ErrMissingTarget, classes)
		}
		return make([]int, n), nil
	case 1:
		k := targets[0]
		targets = make([]int, n)
		for i := range targets {
			targets[i] = k
		}
	case n:
	default:
		return nil, fmt.Errorf("%w: %d targets for %d instances", ErrShapeMismatch, len(targets), n)
	}

	for i, t := range targets {
		if t < 0 || t >= classes {
			return nil, fmt.Errorf("%w: instance %d target %d, model has %d outputs", ErrTargetOutOfRange, i, t, classes)
		}
	}
	return targets, nil
}
