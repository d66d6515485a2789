package neuralnet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivate(t *testing.T) {
	tests := []struct {
		fn   ActivationFunction
		in   float64
		want float64
	}{
		{Sigmoid, 0, 0.5},
		{Sigmoid, 2, 1 / (1 + math.Exp(-2))},
		{Tanh, 0, 0},
		{Tanh, 1, math.Tanh(1)},
		{ReLU, -1, 0},
		{ReLU, 0, 0},
		{ReLU, 2, 2},
		{Linear, 3.14, 3.14},
		{Linear, -7, -7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.fn.Activate(tt.in), 1e-12, "%s.Activate(%v)", tt.fn, tt.in)
	}
}

// Sigmoid and Tanh derivatives take the activated value, not the sum.
func TestDerivativeTakesActivation(t *testing.T) {
	assert.InDelta(t, 0.25, Sigmoid.Derivative(0.5), 1e-12)
	assert.InDelta(t, 0.09, Sigmoid.Derivative(0.9), 1e-12)
	assert.InDelta(t, 0.75, Tanh.Derivative(0.5), 1e-12)
	assert.InDelta(t, 1.0, Tanh.Derivative(0), 1e-12)
	assert.Equal(t, 1.0, Linear.Derivative(42))
}

// ReLU's derivative is read from the pre-activation sum, and is 0 at exactly 0.
func TestReLUDerivativeAtZero(t *testing.T) {
	assert.Equal(t, 0.0, ReLU.Derivative(0))
	assert.Equal(t, 0.0, ReLU.derivativeAt(0, ReLU.Activate(0)))
	assert.Equal(t, 0.0, ReLU.derivativeAt(-0.3, ReLU.Activate(-0.3)))
	assert.Equal(t, 1.0, ReLU.derivativeAt(1e-9, ReLU.Activate(1e-9)))
	assert.Equal(t, 1.0, ReLU.derivativeAt(2, ReLU.Activate(2)))
}

func TestDerivativeAtUsesActivationForSigmoid(t *testing.T) {
	sum := 0.7
	act := Sigmoid.Activate(sum)
	assert.InDelta(t, act*(1-act), Sigmoid.derivativeAt(sum, act), 1e-15)
}

func TestParseActivation(t *testing.T) {
	for _, fn := range []ActivationFunction{Sigmoid, Tanh, ReLU, Linear} {
		got, err := ParseActivation(fn.String())
		require.NoError(t, err)
		assert.Equal(t, fn, got)
	}

	_, err := ParseActivation("Softmax")
	assert.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, "Unknown", ActivationFunction(99).String())
}
