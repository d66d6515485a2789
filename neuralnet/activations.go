package neuralnet

import (
	"math"

	"github.com/pkg/errors"
)

// ActivationFunction selects the scalar transform applied by every neuron of a
// layer. The set is closed; dispatch goes through activationTable.
type ActivationFunction uint8

const (
	Sigmoid ActivationFunction = iota
	Tanh
	ReLU
	Linear
)

type activationFuncs struct {
	name       string
	activate   func(x float64) float64
	derivative func(v float64) float64
	// fromSum is set when derivative must be fed the pre-activation sum.
	fromSum bool
}

var activationTable = [...]activationFuncs{
	Sigmoid: {
		name:     "Sigmoid",
		activate: func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
		// v is sigmoid(x)
		derivative: func(v float64) float64 { return v * (1 - v) },
	},
	Tanh: {
		name:       "Tanh",
		activate:   math.Tanh,
		derivative: func(v float64) float64 { return 1 - v*v },
	},
	ReLU: {
		name:     "ReLU",
		activate: func(x float64) float64 { return math.Max(x, 0) },
		derivative: func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
		fromSum: true,
	},
	Linear: {
		name:       "Linear",
		activate:   func(x float64) float64 { return x },
		derivative: func(float64) float64 { return 1 },
	},
}

func (a ActivationFunction) funcs() activationFuncs {
	if int(a) >= len(activationTable) {
		panic("neuralnet: unknown activation function")
	}
	return activationTable[a]
}

// Activate returns f(x).
func (a ActivationFunction) Activate(x float64) float64 {
	return a.funcs().activate(x)
}

// Derivative returns f'. Sigmoid and Tanh expect the activated value
// v = f(x); ReLU expects the raw sum x; Linear ignores its argument.
func (a ActivationFunction) Derivative(v float64) float64 {
	return a.funcs().derivative(v)
}

// derivativeAt picks the argument Derivative expects for this variant.
func (a ActivationFunction) derivativeAt(sum, activation float64) float64 {
	f := a.funcs()
	if f.fromSum {
		return f.derivative(sum)
	}
	return f.derivative(activation)
}

func (a ActivationFunction) String() string {
	if int(a) >= len(activationTable) {
		return "Unknown"
	}
	return activationTable[a].name
}

func (a ActivationFunction) valid() bool {
	return int(a) < len(activationTable)
}

// ParseActivation maps a saved activation name back to its variant.
func ParseActivation(name string) (ActivationFunction, error) {
	for i, f := range activationTable {
		if f.name == name {
			return ActivationFunction(i), nil
		}
	}
	return 0, errors.Wrapf(ErrFormat, "unknown activation %q", name)
}
