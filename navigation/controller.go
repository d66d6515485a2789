package navigation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"gonav/neuralnet"
)

// Decision is one sensor-to-action step.
type Decision struct {
	Flags  []float64
	Output float64
	Action Action
}

// Stats counts the decisions taken per action.
type Stats struct {
	Total  int
	Counts map[Action]int
}

func (s Stats) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total decisions: %d\n", s.Total))
	if s.Total == 0 {
		return sb.String()
	}
	for _, a := range append(Actions(), Unmapped) {
		n := s.Counts[a]
		sb.WriteString(fmt.Sprintf("  %-11s %d (%.2f%%)\n", a.String()+":", n, 100*float64(n)/float64(s.Total)))
	}
	return sb.String()
}

// Controller owns a network shared between a sensor loop and anything that
// retrains or saves it. The network itself has no locking; every access goes
// through the controller's mutex.
type Controller struct {
	mu            sync.Mutex
	nn            *neuralnet.NeuralNetwork
	nearThreshold int
	stats         Stats
	logger        *slog.Logger
}

// NewController wraps a finalized network with one input per direction and a
// single output.
func NewController(nn *neuralnet.NeuralNetwork, nearThreshold int, logger *slog.Logger) (*Controller, error) {
	if nn == nil || !nn.IsFinalized() {
		return nil, errors.Wrap(neuralnet.ErrNotFinalized, "controller needs a finalized network")
	}
	if nn.InputSize() != NumDirections || nn.OutputSize() != 1 {
		return nil, errors.Wrapf(neuralnet.ErrDimensionMismatch, "controller needs a %d -> 1 network, got %d -> %d",
			NumDirections, nn.InputSize(), nn.OutputSize())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		nn:            nn,
		nearThreshold: nearThreshold,
		stats:         Stats{Counts: make(map[Action]int)},
		logger:        logger,
	}, nil
}

// Decide normalizes a sonar sweep and returns the action the network picks.
func (c *Controller) Decide(readings []int) (Decision, error) {
	flags, err := Normalize(readings, c.nearThreshold)
	if err != nil {
		return Decision{}, err
	}
	return c.DecideFlags(flags)
}

// DecideFlags runs the network on already normalized direction flags.
func (c *Controller) DecideFlags(flags []float64) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.nn.Predict(flags)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{Flags: flags, Output: out[0], Action: Decode(out[0])}
	c.stats.Total++
	c.stats.Counts[d.Action]++
	if d.Action == Unmapped {
		c.logger.Warn("network output outside every action band", "flags", flags, "output", d.Output)
	} else {
		c.logger.Debug("decision", "flags", flags, "output", d.Output, "action", d.Action.String())
	}
	return d, nil
}

// Retrain runs TrainBatch on the dataset while holding the lock.
func (c *Controller) Retrain(ds *Dataset, epochs int, threshold float64) (neuralnet.TrainResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nn.TrainBatch(ds.Inputs(), ds.Targets(), epochs, threshold, false)
}

// Save writes the network while holding the lock.
func (c *Controller) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nn.SaveWeights(path)
}

// Stats returns a copy of the decision counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[Action]int, len(c.stats.Counts))
	for a, n := range c.stats.Counts {
		counts[a] = n
	}
	return Stats{Total: c.stats.Total, Counts: counts}
}
