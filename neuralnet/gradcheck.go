package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// GradientCheck compares the backpropagated gradients for one example with
// central finite differences and returns the largest relative error over all
// weights and biases. Parameters and velocities are restored and the stored
// gradients cleared before returning.
func (nn *NeuralNetwork) GradientCheck(input, target []float64) (float64, error) {
	if err := nn.checkInput(input); err != nil {
		return 0, err
	}
	if err := nn.checkTarget(target); err != nil {
		return 0, err
	}
	defer func() {
		for _, l := range nn.layers {
			l.zeroGrad()
		}
	}()

	output, err := nn.forward(input)
	if err != nil {
		return 0, err
	}
	if err := nn.backward(output, target); err != nil {
		return 0, err
	}

	var worst float64
	for _, layer := range nn.layers {
		analytic := flatten(layer.weightGrad, layer.biasGrad)
		orig := flatten(layer.weights, layer.bias)

		numeric := fd.Gradient(nil, func(x []float64) float64 {
			layer.unflatten(x)
			out, _ := nn.forward(input)
			return nn.loss.Compute(out, target)
		}, append([]float64(nil), orig...), &fd.Settings{Formula: fd.Central})
		layer.unflatten(orig)

		for k := range analytic {
			denom := math.Max(math.Abs(numeric[k])+math.Abs(analytic[k]), 1e-6)
			if rel := math.Abs(numeric[k]-analytic[k]) / denom; rel > worst {
				worst = rel
			}
		}
	}
	return worst, nil
}

// flatten lays out a weight-shaped matrix row by row followed by a
// bias-shaped vector.
func flatten(w *mat.Dense, b *mat.VecDense) []float64 {
	r, _ := w.Dims()
	var out []float64
	for i := 0; i < r; i++ {
		out = append(out, mat.Row(nil, i, w)...)
	}
	return append(out, mat.Col(nil, 0, b)...)
}

func (l *Layer) unflatten(x []float64) {
	for i := 0; i < l.inputSize; i++ {
		l.weights.SetRow(i, x[i*l.neuronCount:(i+1)*l.neuronCount])
	}
	for j := 0; j < l.neuronCount; j++ {
		l.bias.SetVec(j, x[l.inputSize*l.neuronCount+j])
	}
}
