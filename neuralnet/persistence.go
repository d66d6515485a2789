package neuralnet

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// modelFile is the on-disk schema. SaveWeights and LoadWeights both go
// through it, so every saved field is read back.
type modelFile struct {
	ID              string          `json:"id"`
	Architecture    architecture    `json:"architecture"`
	Hyperparameters hyperparameters `json:"hyperparameters"`
	Layers          []layerRecord   `json:"layers"`
}

type architecture struct {
	InputSize  int `json:"inputSize"`
	OutputSize int `json:"outputSize"`
	NumLayers  int `json:"numLayers"`
}

type hyperparameters struct {
	LearningRate float64 `json:"learningRate"`
	Momentum     float64 `json:"momentum"`
}

type layerRecord struct {
	InputSize  int         `json:"inputSize"`
	Neurons    int         `json:"neurons"`
	Activation string      `json:"activation"`
	Weights    [][]float64 `json:"weights"`
	Bias       []float64   `json:"bias"`
}

// SaveWeights writes the architecture, hyperparameters and every layer's
// weights and biases to path as indented JSON.
func (nn *NeuralNetwork) SaveWeights(path string) error {
	if !nn.finalized {
		return errors.Wrap(ErrNotFinalized, "nothing to save")
	}
	m := modelFile{
		ID: uuid.NewString(),
		Architecture: architecture{
			InputSize:  nn.inputSize,
			OutputSize: nn.outputSize,
			NumLayers:  len(nn.layers),
		},
		Hyperparameters: hyperparameters{
			LearningRate: nn.params.LearningRate,
			Momentum:     nn.params.Momentum,
		},
		Layers: make([]layerRecord, len(nn.layers)),
	}
	for i, l := range nn.layers {
		m.Layers[i] = layerRecord{
			InputSize:  l.InputSize(),
			Neurons:    l.NeuronCount(),
			Activation: l.Activation().String(),
			Weights:    l.Weights(),
			Bias:       l.Bias(),
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrapf(ErrFormat, "encode model: %v", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrapf(ErrIO, "write %s: %v", path, err)
	}
	nn.logger.Info("model saved", "path", path, "id", m.ID, "layers", len(nn.layers))
	return nil
}

// LoadWeights reads a file written by SaveWeights. On a network without
// layers the layers are rebuilt from the file and the network is finalized;
// on a finalized network every saved layer must match the existing one.
// Nothing is modified unless the whole file is accepted. Hyperparameters
// stored in the file are not applied; use Load for that.
func (nn *NeuralNetwork) LoadWeights(path string) error {
	m, err := readModel(path)
	if err != nil {
		return err
	}
	if err := nn.apply(m); err != nil {
		return err
	}
	nn.logger.Info("model loaded", "path", path, "id", m.ID, "layers", len(m.Layers))
	return nil
}

// Load builds a new network from a file written by SaveWeights, restoring its
// hyperparameters.
func Load(path string, opts ...Option) (*NeuralNetwork, error) {
	m, err := readModel(path)
	if err != nil {
		return nil, err
	}
	params := NewParams(m.Hyperparameters.LearningRate, m.Hyperparameters.Momentum)
	nn, err := NewNeuralNetwork(m.Architecture.InputSize, m.Architecture.OutputSize, params, opts...)
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "%s: %v", path, err)
	}
	if err := nn.apply(m); err != nil {
		return nil, err
	}
	nn.logger.Info("model loaded", "path", path, "id", m.ID, "layers", len(m.Layers))
	return nn, nil
}

func readModel(path string) (*modelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "read %s: %v", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m modelFile
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrapf(ErrFormat, "%s: %v", path, err)
	}
	if err := m.check(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return &m, nil
}

// check validates the file against itself: sizes chain from input to output
// and every matrix has the declared shape.
func (m *modelFile) check() error {
	a := m.Architecture
	if a.InputSize <= 0 || a.OutputSize <= 0 {
		return errors.Wrapf(ErrFormat, "architecture sizes must be positive, got %d -> %d", a.InputSize, a.OutputSize)
	}
	if a.NumLayers != len(m.Layers) || a.NumLayers == 0 {
		return errors.Wrapf(ErrFormat, "numLayers is %d but %d layers are stored", a.NumLayers, len(m.Layers))
	}
	in := a.InputSize
	for i, l := range m.Layers {
		if l.InputSize != in {
			return errors.Wrapf(ErrFormat, "layer %d: inputSize %d does not follow previous size %d", i, l.InputSize, in)
		}
		if l.Neurons <= 0 {
			return errors.Wrapf(ErrFormat, "layer %d: neurons must be positive, got %d", i, l.Neurons)
		}
		if _, err := ParseActivation(l.Activation); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		if len(l.Weights) != l.InputSize {
			return errors.Wrapf(ErrFormat, "layer %d: %d weight rows, want %d", i, len(l.Weights), l.InputSize)
		}
		for r, row := range l.Weights {
			if len(row) != l.Neurons {
				return errors.Wrapf(ErrFormat, "layer %d: weight row %d has %d values, want %d", i, r, len(row), l.Neurons)
			}
		}
		if len(l.Bias) != l.Neurons {
			return errors.Wrapf(ErrFormat, "layer %d: %d biases, want %d", i, len(l.Bias), l.Neurons)
		}
		in = l.Neurons
	}
	if in != a.OutputSize {
		return errors.Wrapf(ErrFormat, "last layer has %d neurons, outputSize is %d", in, a.OutputSize)
	}
	return nil
}

func (nn *NeuralNetwork) apply(m *modelFile) error {
	if m.Architecture.InputSize != nn.inputSize || m.Architecture.OutputSize != nn.outputSize {
		return errors.Wrapf(ErrDimensionMismatch, "saved model is %d -> %d, network is %d -> %d",
			m.Architecture.InputSize, m.Architecture.OutputSize, nn.inputSize, nn.outputSize)
	}

	if len(nn.layers) == 0 {
		layers := make([]*Layer, len(m.Layers))
		for i, rec := range m.Layers {
			act, _ := ParseActivation(rec.Activation)
			l, err := NewLayer(rec.InputSize, rec.Neurons, act, DefaultWeightInitRange, nn.rng)
			if err != nil {
				return errors.Wrapf(ErrFormat, "layer %d: %v", i, err)
			}
			if err := l.SetWeights(rec.Weights); err != nil {
				return errors.Wrapf(err, "layer %d", i)
			}
			if err := l.SetBias(rec.Bias); err != nil {
				return errors.Wrapf(err, "layer %d", i)
			}
			layers[i] = l
		}
		nn.layers = layers
		nn.finalized = true
		return nil
	}

	if !nn.finalized {
		return errors.Wrap(ErrInvalidState, "cannot load into a partially built network")
	}
	if len(m.Layers) != len(nn.layers) {
		return errors.Wrapf(ErrDimensionMismatch, "saved model has %d layers, network has %d", len(m.Layers), len(nn.layers))
	}
	for i, rec := range m.Layers {
		l := nn.layers[i]
		if rec.InputSize != l.InputSize() || rec.Neurons != l.NeuronCount() {
			return errors.Wrapf(ErrDimensionMismatch, "layer %d: saved %dx%d, network %dx%d",
				i, rec.InputSize, rec.Neurons, l.InputSize(), l.NeuronCount())
		}
		if rec.Activation != l.Activation().String() {
			return errors.Wrapf(ErrDimensionMismatch, "layer %d: saved activation %s, network uses %s",
				i, rec.Activation, l.Activation())
		}
	}
	for i, rec := range m.Layers {
		if err := nn.layers[i].SetWeights(rec.Weights); err != nil {
			return err
		}
		if err := nn.layers[i].SetBias(rec.Bias); err != nil {
			return err
		}
	}
	return nil
}
