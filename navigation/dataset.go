package navigation

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrDataset reports inconsistent example sets.
var ErrDataset = errors.New("invalid dataset")

// Dataset holds N examples as an N×inputs and an N×outputs dense tensor.
type Dataset struct {
	inputs  *tensor.Dense
	targets *tensor.Dense
}

// NewDataset copies the examples into tensors. Every input row must have the
// same width, and likewise every target row.
func NewDataset(inputs, targets [][]float64) (*Dataset, error) {
	if len(inputs) != len(targets) {
		return nil, errors.Wrapf(ErrDataset, "%d inputs but %d targets", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return nil, errors.Wrap(ErrDataset, "no examples")
	}
	in, err := matrix(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	out, err := matrix(targets)
	if err != nil {
		return nil, errors.Wrap(err, "targets")
	}
	return &Dataset{inputs: in, targets: out}, nil
}

func matrix(rows [][]float64) (*tensor.Dense, error) {
	width := len(rows[0])
	if width == 0 {
		return nil, errors.Wrap(ErrDataset, "empty row")
	}
	backing := make([]float64, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrDataset, "row %d has %d values, want %d", i, len(row), width)
		}
		backing = append(backing, row...)
	}
	return tensor.New(tensor.Of(tensor.Float64), tensor.WithShape(len(rows), width), tensor.WithBacking(backing)), nil
}

func rowsOf(t *tensor.Dense) [][]float64 {
	shape := t.Shape()
	n, width := shape[0], shape[1]
	data := t.Data().([]float64)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = append([]float64(nil), data[i*width:(i+1)*width]...)
	}
	return rows
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return d.inputs.Shape()[0] }

// InputWidth returns the length of each input vector.
func (d *Dataset) InputWidth() int { return d.inputs.Shape()[1] }

// TargetWidth returns the length of each target vector.
func (d *Dataset) TargetWidth() int { return d.targets.Shape()[1] }

// Inputs returns a copy of the input rows.
func (d *Dataset) Inputs() [][]float64 { return rowsOf(d.inputs) }

// Targets returns a copy of the target rows.
func (d *Dataset) Targets() [][]float64 { return rowsOf(d.targets) }

// Example returns the i-th input and target.
func (d *Dataset) Example(i int) (input, target []float64, err error) {
	if i < 0 || i >= d.Len() {
		return nil, nil, errors.Wrapf(ErrDataset, "example %d out of range [0,%d)", i, d.Len())
	}
	return rowsOf(d.inputs)[i], rowsOf(d.targets)[i], nil
}

func build(examples ...[2][]float64) *Dataset {
	inputs := make([][]float64, len(examples))
	targets := make([][]float64, len(examples))
	for i, e := range examples {
		inputs[i], targets[i] = e[0], e[1]
	}
	d, err := NewDataset(inputs, targets)
	if err != nil {
		panic(err)
	}
	return d
}

func pair(action Action, flags ...float64) [2][]float64 {
	target, _ := action.Target()
	return [2][]float64{flags, {target}}
}

// TrainingSet returns every combination of [right, left, front, back] free
// flags with its preferred action: forward whenever the front is free, then
// right, then left, backward as a last resort, stop when boxed in.
func TrainingSet() *Dataset {
	return build(
		// one direction free
		pair(TurnRight, 1, 0, 0, 0),
		pair(TurnLeft, 0, 1, 0, 0),
		pair(Forward, 0, 0, 1, 0),
		pair(Backward, 0, 0, 0, 1),
		// two
		pair(Forward, 0, 0, 1, 1),
		pair(TurnRight, 1, 1, 0, 0),
		pair(Forward, 0, 1, 1, 0),
		pair(TurnRight, 1, 0, 0, 1),
		pair(Forward, 1, 0, 1, 0),
		pair(TurnLeft, 0, 1, 0, 1),
		// three
		pair(Forward, 0, 1, 1, 1),
		pair(Forward, 1, 0, 1, 1),
		pair(TurnRight, 1, 1, 0, 1),
		pair(Forward, 1, 1, 1, 0),
		// all free, all blocked
		pair(Forward, 1, 1, 1, 1),
		pair(Stop, 0, 0, 0, 0),
	)
}

// ValidationSet returns eight representative patterns drawn from the
// training combinations.
func ValidationSet() *Dataset {
	return build(
		pair(TurnRight, 1, 0, 0, 0),
		pair(TurnLeft, 0, 1, 0, 0),
		pair(Forward, 0, 0, 1, 0),
		pair(Backward, 0, 0, 0, 1),
		pair(Forward, 1, 1, 1, 1),
		pair(Stop, 0, 0, 0, 0),
		pair(Forward, 1, 0, 1, 0),
		pair(Forward, 0, 1, 1, 0),
	)
}

// Scenario is a named situation used to eyeball a trained network.
type Scenario struct {
	Description string
	Input       []float64
	Expected    Action
}

// Scenarios returns the standard situations a robot runs into.
func Scenarios() []Scenario {
	return []Scenario{
		{"narrow corridor: only front free", []float64{0, 0, 1, 0}, Forward},
		{"T junction: left and right free", []float64{1, 1, 0, 0}, TurnRight},
		{"open corner: right and front free", []float64{1, 0, 1, 0}, Forward},
		{"open corner: left and front free", []float64{0, 1, 1, 0}, Forward},
		{"open room: everything free", []float64{1, 1, 1, 1}, Forward},
		{"boxed in: everything blocked", []float64{0, 0, 0, 0}, Stop},
	}
}
