package neuralnet

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientCheck(t *testing.T) {
	tests := []struct {
		name   string
		hidden []ActivationFunction
		output ActivationFunction
	}{
		{"sigmoid", []ActivationFunction{Sigmoid}, Sigmoid},
		{"tanh-linear", []ActivationFunction{Tanh, Tanh}, Linear},
		{"mixed", []ActivationFunction{Sigmoid, Tanh}, Sigmoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nn, err := NewNeuralNetwork(3, 2, DefaultParams(),
				WithRand(rand.New(rand.NewPCG(5, 0))), WithLogger(quietLogger()))
			require.NoError(t, err)
			for _, fn := range tt.hidden {
				require.NoError(t, nn.AddHiddenLayer(4, fn, 1.0))
			}
			require.NoError(t, nn.Finalize(tt.output, 1.0))

			before := snapshot(nn)
			worst, err := nn.GradientCheck([]float64{0.5, -0.3, 0.8}, []float64{0.2, 0.9})
			require.NoError(t, err)
			assert.Less(t, worst, 1e-4)

			assert.Equal(t, before, snapshot(nn))
			for _, l := range nn.Layers() {
				for _, g := range flatten(l.weightGrad, l.biasGrad) {
					assert.Equal(t, 0.0, g)
				}
			}
		})
	}
}

func TestGradientCheckDimensionMismatch(t *testing.T) {
	nn := newTestNetwork(t, 6, 5)
	_, err := nn.GradientCheck([]float64{1, 0}, []float64{0.5})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = nn.GradientCheck([]float64{1, 0, 0, 0}, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
