package neuralnet

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultWeightInitRange bounds the uniform weight initialisation.
const DefaultWeightInitRange = 0.5

// Layer is a fully-connected layer. Weights are stored input-major: entry (i, j)
// connects input i to neuron j.
//
// A Layer caches the state of its last Forward call for the following
// Backward call. Two Forward calls without the paired Backward in between
// lose the first call's state, so a Layer must not be trained from more
// than one goroutine.
type Layer struct {
	inputSize   int
	neuronCount int
	activation  ActivationFunction

	weights *mat.Dense
	bias    *mat.VecDense

	weightGrad *mat.Dense
	biasGrad   *mat.VecDense
	weightVel  *mat.Dense
	biasVel    *mat.VecDense

	input   *mat.VecDense
	sums    *mat.VecDense
	outputs *mat.VecDense
}

// NewLayer creates a layer with weights drawn uniformly from
// [-weightInitRange, weightInitRange] and biases from a tenth of that range.
func NewLayer(inputSize, neuronCount int, activation ActivationFunction, weightInitRange float64, rng *rand.Rand) (*Layer, error) {
	if inputSize <= 0 || neuronCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "layer sizes must be positive, got %dx%d", inputSize, neuronCount)
	}
	if !activation.valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown activation %d", activation)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	l := &Layer{
		inputSize:   inputSize,
		neuronCount: neuronCount,
		activation:  activation,
		weights:     mat.NewDense(inputSize, neuronCount, nil),
		bias:        mat.NewVecDense(neuronCount, nil),
		weightGrad:  mat.NewDense(inputSize, neuronCount, nil),
		biasGrad:    mat.NewVecDense(neuronCount, nil),
		weightVel:   mat.NewDense(inputSize, neuronCount, nil),
		biasVel:     mat.NewVecDense(neuronCount, nil),
		input:       mat.NewVecDense(inputSize, nil),
		sums:        mat.NewVecDense(neuronCount, nil),
		outputs:     mat.NewVecDense(neuronCount, nil),
	}
	for i := 0; i < inputSize; i++ {
		for j := 0; j < neuronCount; j++ {
			l.weights.Set(i, j, uniform(rng, weightInitRange))
		}
	}
	for j := 0; j < neuronCount; j++ {
		l.bias.SetVec(j, uniform(rng, weightInitRange)*0.1)
	}
	return l, nil
}

func uniform(rng *rand.Rand, limit float64) float64 {
	return 2*rng.Float64()*limit - limit
}

// Forward computes f(bias + inputᵀW) and caches what Backward needs.
func (l *Layer) Forward(input []float64) ([]float64, error) {
	if len(input) != l.inputSize {
		return nil, errors.Wrapf(ErrDimensionMismatch, "layer input: expected %d values, got %d", l.inputSize, len(input))
	}
	for i, v := range input {
		l.input.SetVec(i, v)
	}
	l.sums.MulVec(l.weights.T(), l.input)
	l.sums.AddVec(l.sums, l.bias)

	out := make([]float64, l.neuronCount)
	for j := range out {
		out[j] = l.activation.Activate(l.sums.AtVec(j))
		l.outputs.SetVec(j, out[j])
	}
	return out, nil
}

// Backward stores the weight and bias gradients for the last Forward call and
// returns the gradient with respect to that call's input.
func (l *Layer) Backward(outputGradients []float64) ([]float64, error) {
	if len(outputGradients) != l.neuronCount {
		return nil, errors.Wrapf(ErrDimensionMismatch, "layer gradients: expected %d values, got %d", l.neuronCount, len(outputGradients))
	}
	local := mat.NewVecDense(l.neuronCount, nil)
	for j, g := range outputGradients {
		local.SetVec(j, g*l.activation.derivativeAt(l.sums.AtVec(j), l.outputs.AtVec(j)))
	}

	l.biasGrad.CopyVec(local)
	l.weightGrad.Outer(1, l.input, local)

	var inputGrad mat.VecDense
	inputGrad.MulVec(l.weights, local)
	return mat.Col(nil, 0, &inputGrad), nil
}

// UpdateWeights applies velocity = momentum*velocity - learningRate*gradient,
// adds the velocity to every parameter and clears the gradients.
func (l *Layer) UpdateWeights(learningRate, momentum float64) {
	l.weightVel.Scale(momentum, l.weightVel)
	var step mat.Dense
	step.Scale(-learningRate, l.weightGrad)
	l.weightVel.Add(l.weightVel, &step)
	l.weights.Add(l.weights, l.weightVel)
	l.weightGrad.Zero()

	l.biasVel.ScaleVec(momentum, l.biasVel)
	l.biasVel.AddScaledVec(l.biasVel, -learningRate, l.biasGrad)
	l.bias.AddVec(l.bias, l.biasVel)
	l.biasGrad.Zero()
}

func (l *Layer) zeroGrad() {
	l.weightGrad.Zero()
	l.biasGrad.Zero()
}

// InputSize returns the number of inputs the layer accepts.
func (l *Layer) InputSize() int { return l.inputSize }

// NeuronCount returns the number of neurons (outputs) of the layer.
func (l *Layer) NeuronCount() int { return l.neuronCount }

// Activation returns the layer's activation function.
func (l *Layer) Activation() ActivationFunction { return l.activation }

// Weights returns a copy of the weight matrix as [input][neuron].
func (l *Layer) Weights() [][]float64 {
	w := make([][]float64, l.inputSize)
	for i := range w {
		w[i] = mat.Row(nil, i, l.weights)
	}
	return w
}

// Bias returns a copy of the bias vector.
func (l *Layer) Bias() []float64 {
	return mat.Col(nil, 0, l.bias)
}

// SetWeights overwrites the weight matrix. Nothing is changed when the shape
// does not match.
func (l *Layer) SetWeights(weights [][]float64) error {
	if err := l.checkWeights(weights); err != nil {
		return err
	}
	for i, row := range weights {
		l.weights.SetRow(i, row)
	}
	return nil
}

func (l *Layer) checkWeights(weights [][]float64) error {
	if len(weights) != l.inputSize {
		return errors.Wrapf(ErrDimensionMismatch, "weights: expected %d rows, got %d", l.inputSize, len(weights))
	}
	for i, row := range weights {
		if len(row) != l.neuronCount {
			return errors.Wrapf(ErrDimensionMismatch, "weights row %d: expected %d columns, got %d", i, l.neuronCount, len(row))
		}
	}
	return nil
}

// SetBias overwrites the bias vector.
func (l *Layer) SetBias(bias []float64) error {
	if err := l.checkBias(bias); err != nil {
		return err
	}
	for j, b := range bias {
		l.bias.SetVec(j, b)
	}
	return nil
}

func (l *Layer) checkBias(bias []float64) error {
	if len(bias) != l.neuronCount {
		return errors.Wrapf(ErrDimensionMismatch, "bias: expected %d values, got %d", l.neuronCount, len(bias))
	}
	return nil
}

// Debug
func (l *Layer) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d -> %d (%s)\n", l.inputSize, l.neuronCount, l.activation))
	for j := 0; j < l.neuronCount; j++ {
		sb.WriteString(fmt.Sprintf("Neuron %d: bias=%.4f output=%.4f\n", j, l.bias.AtVec(j), l.outputs.AtVec(j)))
	}
	return sb.String()
}
