// Package explain computes Integrated Gradients attributions for models
// built on the autodiff backend.
//
// Integrated Gradients attributes a model output F to the input features by
// integrating the gradient of F along the straight line from a baseline b to
// the input x:
//
//	IG_j(x) = (x_j - b_j) * ∫₀¹ ∂F(b + α(x - b))/∂x_j dα
//
// The integral is approximated with a quadrature rule (Riemann sums or
// Gauss-Legendre). By the completeness axiom the attributions of an instance
// sum to F(x) - F(b); the gap is reported per instance as the delta.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	ig, err := explain.New(model, backend, explain.Config{NSteps: 50})
//	if err != nil {
//	    return err
//	}
//	exp, err := ig.Explain(images, explain.WithTargets(labels))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(exp.Data.Deltas)
//
// An explainer holds configuration only and can be reused. It drives the
// backend's gradient tape, so one backend must not serve two concurrent
// Explain calls.
package explain
