package neuralnet

import "gonum.org/v1/gonum/floats"

// LossFunction defines the interface for computing loss and its gradient.
type LossFunction interface {
	// Compute returns the loss value given the network output and target.
	Compute(output []float64, target []float64) float64
	// Gradient returns the gradient ∂L/∂output for each output neuron.
	Gradient(output []float64, target []float64) []float64
}

// HalfSquaredError implements E = 0.5 * Σ(target - output)².
type HalfSquaredError struct{}

// Compute returns the half squared error.
func (HalfSquaredError) Compute(output []float64, target []float64) float64 {
	d := floats.Distance(target, output, 2)
	return 0.5 * d * d
}

// Gradient returns -(target - output).
func (HalfSquaredError) Gradient(output []float64, target []float64) []float64 {
	grad := make([]float64, len(output))
	floats.SubTo(grad, output, target)
	return grad
}
