package neuralnet

import "github.com/pkg/errors"

// Optimizer defines interface to apply the gradients of one training step and
// adjust the learning rate between epochs.
type Optimizer interface {
	Apply(layers []*Layer, params *Params) error
	EndEpoch(params *Params)
}

// SGD implements per-sample stochastic gradient descent with momentum.
type SGD struct{}

// Apply runs the momentum update on every layer.
func (o *SGD) Apply(layers []*Layer, params *Params) error {
	if params == nil {
		return errors.Wrap(ErrInvalidArgument, "sgd: nil params")
	}
	for _, l := range layers {
		l.UpdateWeights(params.LearningRate, params.Momentum)
	}
	return nil
}

// EndEpoch multiplies the learning rate by Decay when Decay is in (0, 1).
func (o *SGD) EndEpoch(params *Params) {
	if params.Decay > 0 && params.Decay < 1 {
		params.LearningRate *= params.Decay
	}
}
