package neuralnet

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
)

// progressEvery is how often (in epochs) TrainBatch reports progress.
const progressEvery = 1000

// Params holds the training hyperparameters.
type Params struct {
	LearningRate float64
	Momentum     float64
	// Decay multiplies LearningRate after every epoch; 0 disables it.
	Decay float64
}

// DefaultParams returns the hyperparameters the navigation network is tuned for.
func DefaultParams() Params {
	return Params{LearningRate: 0.3, Momentum: 0.9}
}

// NewParams returns Params with the given learning rate and momentum.
func NewParams(learningRate, momentum float64) Params {
	return Params{LearningRate: learningRate, Momentum: momentum}
}

// Option configures a NeuralNetwork.
type Option func(*NeuralNetwork)

// WithRand sets the random source used for weight initialisation and
// shuffling. Networks built with sources seeded identically train identically.
func WithRand(rng *rand.Rand) Option {
	return func(nn *NeuralNetwork) {
		if rng != nil {
			nn.rng = rng
		}
	}
}

// WithLogger sets the logger used for training progress.
func WithLogger(logger *slog.Logger) Option {
	return func(nn *NeuralNetwork) {
		if logger != nil {
			nn.logger = logger
		}
	}
}

// WithOptimizer replaces the default momentum SGD optimizer.
func WithOptimizer(opt Optimizer) Option {
	return func(nn *NeuralNetwork) {
		if opt != nil {
			nn.optimizer = opt
		}
	}
}

// NeuralNetwork is a feedforward network trained one example at a time.
//
// A NeuralNetwork is not safe for concurrent use. Training keeps per-layer
// forward state between the forward and backward pass, so callers sharing a
// network between goroutines must serialize every call, Predict included.
type NeuralNetwork struct {
	layers     []*Layer
	inputSize  int
	outputSize int
	params     Params
	finalized  bool

	lastError          float64
	trainingIterations int

	loss      LossFunction
	optimizer Optimizer
	rng       *rand.Rand
	logger    *slog.Logger
}

// TrainResult reports how a TrainBatch run ended.
type TrainResult struct {
	// Epochs is the epoch at which the threshold was reached, or epochs+1
	// when the budget ran out.
	Epochs int
	// Error is the mean error of the last epoch run.
	Error     float64
	Converged bool
}

// NewNeuralNetwork creates an empty network. Add hidden layers with
// AddHiddenLayer and close it with Finalize.
func NewNeuralNetwork(inputSize, outputSize int, params Params, opts ...Option) (*NeuralNetwork, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "network sizes must be positive, got %d -> %d", inputSize, outputSize)
	}
	nn := &NeuralNetwork{
		inputSize:  inputSize,
		outputSize: outputSize,
		params:     params,
		loss:       HalfSquaredError{},
		optimizer:  &SGD{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(nn)
	}
	if nn.rng == nil {
		nn.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return nn, nil
}

// AddHiddenLayer appends a layer fed by the previous layer, or by the network
// input when it is the first one.
func (nn *NeuralNetwork) AddHiddenLayer(neurons int, activation ActivationFunction, weightInitRange float64) error {
	if nn.finalized {
		return errors.Wrap(ErrInvalidState, "cannot add a hidden layer after Finalize")
	}
	return nn.appendLayer(neurons, activation, weightInitRange)
}

// Finalize appends the output layer. The network can be used afterwards.
func (nn *NeuralNetwork) Finalize(activation ActivationFunction, weightInitRange float64) error {
	if nn.finalized {
		return errors.Wrap(ErrInvalidState, "network already finalized")
	}
	if err := nn.appendLayer(nn.outputSize, activation, weightInitRange); err != nil {
		return err
	}
	nn.finalized = true
	return nil
}

func (nn *NeuralNetwork) appendLayer(neurons int, activation ActivationFunction, weightInitRange float64) error {
	in := nn.inputSize
	if len(nn.layers) > 0 {
		in = nn.layers[len(nn.layers)-1].NeuronCount()
	}
	layer, err := NewLayer(in, neurons, activation, weightInitRange, nn.rng)
	if err != nil {
		return err
	}
	nn.layers = append(nn.layers, layer)
	return nil
}

// Predict runs a forward pass and returns the output vector.
func (nn *NeuralNetwork) Predict(input []float64) ([]float64, error) {
	if err := nn.checkInput(input); err != nil {
		return nil, err
	}
	return nn.forward(input)
}

func (nn *NeuralNetwork) checkInput(input []float64) error {
	if !nn.finalized {
		return errors.Wrap(ErrNotFinalized, "call Finalize first")
	}
	if len(input) != nn.inputSize {
		return errors.Wrapf(ErrDimensionMismatch, "input: expected %d values, got %d", nn.inputSize, len(input))
	}
	return nil
}

func (nn *NeuralNetwork) checkTarget(target []float64) error {
	if len(target) != nn.outputSize {
		return errors.Wrapf(ErrDimensionMismatch, "target: expected %d values, got %d", nn.outputSize, len(target))
	}
	return nil
}

func (nn *NeuralNetwork) forward(input []float64) ([]float64, error) {
	out := input
	for i, layer := range nn.layers {
		var err error
		if out, err = layer.Forward(out); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
	}
	return out, nil
}

// backward leaves every layer holding the gradients of the loss for the
// last forward pass.
func (nn *NeuralNetwork) backward(output, target []float64) error {
	grad := nn.loss.Gradient(output, target)
	for i := len(nn.layers) - 1; i >= 0; i-- {
		var err error
		if grad, err = nn.layers[i].Backward(grad); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Train performs one forward pass, backpropagation and momentum update on a
// single example and returns the example's error before the update.
func (nn *NeuralNetwork) Train(input, target []float64) (float64, error) {
	if err := nn.checkInput(input); err != nil {
		return 0, err
	}
	if err := nn.checkTarget(target); err != nil {
		return 0, err
	}

	output, err := nn.forward(input)
	if err != nil {
		return 0, err
	}
	loss := nn.loss.Compute(output, target)
	if err := nn.backward(output, target); err != nil {
		return 0, err
	}
	if err := nn.optimizer.Apply(nn.layers, &nn.params); err != nil {
		return 0, err
	}

	nn.lastError = loss
	nn.trainingIterations++
	return loss, nil
}

func (nn *NeuralNetwork) checkExamples(inputs, targets [][]float64) error {
	if len(inputs) != len(targets) {
		return errors.Wrapf(ErrInvalidArgument, "%d inputs but %d targets", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return errors.Wrap(ErrInvalidArgument, "no examples")
	}
	for i := range inputs {
		if err := nn.checkInput(inputs[i]); err != nil {
			return errors.Wrapf(err, "example %d", i)
		}
		if err := nn.checkTarget(targets[i]); err != nil {
			return errors.Wrapf(err, "example %d", i)
		}
	}
	return nil
}

// TrainBatch trains for up to epochs passes over the examples, visiting them
// in a fresh random order each epoch, and stops as soon as the mean error of
// an epoch drops below errorThreshold. Running out of epochs is not an error.
func (nn *NeuralNetwork) TrainBatch(inputs, targets [][]float64, epochs int, errorThreshold float64, verbose bool) (TrainResult, error) {
	if err := nn.checkExamples(inputs, targets); err != nil {
		return TrainResult{}, err
	}
	ctx := context.Background()
	level := slog.LevelDebug
	if verbose {
		level = slog.LevelInfo
	}
	nn.logger.Log(ctx, level, "training started",
		"patterns", len(inputs),
		"max_epochs", epochs,
		"error_threshold", errorThreshold,
		"learning_rate", nn.params.LearningRate,
		"momentum", nn.params.Momentum)

	indices := make([]int, len(inputs))
	for i := range indices {
		indices[i] = i
	}

	result := TrainResult{Epochs: epochs + 1}
	for epoch := 1; epoch <= epochs; epoch++ {
		nn.rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		var total float64
		for _, idx := range indices {
			loss, err := nn.Train(inputs[idx], targets[idx])
			if err != nil {
				return result, errors.Wrapf(err, "epoch %d", epoch)
			}
			total += loss
		}
		result.Error = total / float64(len(indices))
		nn.optimizer.EndEpoch(&nn.params)

		if epoch == 1 || epoch%progressEvery == 0 {
			nn.logger.Log(ctx, level, "training progress", "epoch", epoch, "mean_error", result.Error)
		}
		if result.Error < errorThreshold {
			result.Epochs = epoch
			result.Converged = true
			break
		}
	}

	if result.Converged {
		nn.logger.Log(ctx, level, "training converged", "epoch", result.Epochs, "mean_error", result.Error)
	} else {
		nn.logger.Log(ctx, level, "epoch budget exhausted", "epochs", epochs, "mean_error", result.Error)
	}
	return result, nil
}

// Validate returns the mean error over the examples without changing any
// weight, gradient or velocity.
func (nn *NeuralNetwork) Validate(inputs, targets [][]float64, verbose bool) (float64, error) {
	if err := nn.checkExamples(inputs, targets); err != nil {
		return 0, err
	}
	var total float64
	for i := range inputs {
		output, err := nn.forward(inputs[i])
		if err != nil {
			return 0, err
		}
		loss := nn.loss.Compute(output, targets[i])
		total += loss
		if verbose {
			nn.logger.Info("validation pattern",
				"pattern", i+1,
				"input", inputs[i],
				"expected", targets[i],
				"predicted", output,
				"error", loss)
		}
	}
	mean := total / float64(len(inputs))
	if verbose {
		nn.logger.Info("validation finished", "patterns", len(inputs), "mean_error", mean)
	}
	return mean, nil
}

// InputSize returns the declared input width.
func (nn *NeuralNetwork) InputSize() int { return nn.inputSize }

// OutputSize returns the declared output width.
func (nn *NeuralNetwork) OutputSize() int { return nn.outputSize }

// Params returns the current hyperparameters.
func (nn *NeuralNetwork) Params() Params { return nn.params }

// SetParams replaces the hyperparameters used by subsequent training.
func (nn *NeuralNetwork) SetParams(p Params) { nn.params = p }

// Layers returns the layers from input to output. The slice is a copy; the
// layers are not.
func (nn *NeuralNetwork) Layers() []*Layer {
	return append([]*Layer(nil), nn.layers...)
}

// LastError returns the error of the most recent Train call.
func (nn *NeuralNetwork) LastError() float64 { return nn.lastError }

// TrainingIterations counts successful Train calls.
func (nn *NeuralNetwork) TrainingIterations() int { return nn.trainingIterations }

// IsFinalized reports whether the output layer exists.
func (nn *NeuralNetwork) IsFinalized() bool { return nn.finalized }

// ArchitectureInfo describes the layer stack and hyperparameters.
func (nn *NeuralNetwork) ArchitectureInfo() string {
	var sb strings.Builder
	sb.WriteString("Network architecture:\n")
	sb.WriteString(fmt.Sprintf("  Input:    %d neurons\n", nn.inputSize))
	for i, layer := range nn.layers {
		if nn.finalized && i == len(nn.layers)-1 {
			sb.WriteString("  Output:   ")
		} else {
			sb.WriteString(fmt.Sprintf("  Hidden %d: ", i+1))
		}
		sb.WriteString(fmt.Sprintf("%d neurons (%s)\n", layer.NeuronCount(), layer.Activation()))
	}
	sb.WriteString(fmt.Sprintf("  Learning rate: %g\n", nn.params.LearningRate))
	sb.WriteString(fmt.Sprintf("  Momentum: %g", nn.params.Momentum))
	return sb.String()
}

// Define the String() method for the NeuralNetwork type
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	for i, layer := range nn.layers {
		sb.WriteString(fmt.Sprintf("Layer %d:\n%s\n", i, layer.String()))
	}
	return sb.String()
}
