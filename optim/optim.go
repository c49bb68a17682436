// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
//
// Example:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001})
//	for _, batch := range batches {
//	    opt.ZeroGrad()
//	    // forward, loss, grads := autodiff.Backward(loss, backend)
//	    opt.Step(grads)
//	}
package optim

import (
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/optim"
	"github.com/born-ml/explain/internal/tensor"
)

// Optimizer updates parameters from a gradient map.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over params.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	return optim.NewSGD(params, config)
}

// Adam is the Adam optimizer with bias correction.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig configures Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam optimizer over params.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	return optim.NewAdam(params, config)
}
