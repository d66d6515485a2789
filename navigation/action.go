// Package navigation turns sonar readings into network inputs and network
// outputs into robot actions.
package navigation

// Action is a discrete movement command decoded from the network output.
type Action int

const (
	Unmapped Action = iota
	TurnRight
	TurnLeft
	Forward
	Backward
	Stop
)

// actionRanges are half-open [min, max) output bands, one per action.
var actionRanges = []struct {
	action   Action
	min, max float64
	target   float64
}{
	{TurnRight, 0.50, 0.56, 0.53},
	{TurnLeft, 0.56, 0.62, 0.59},
	{Forward, 0.62, 0.68, 0.65},
	{Backward, 0.68, 0.74, 0.71},
	{Stop, 0.74, 0.80, 0.77},
}

// Actions lists the mapped actions in band order.
func Actions() []Action {
	out := make([]Action, len(actionRanges))
	for i, r := range actionRanges {
		out[i] = r.action
	}
	return out
}

// Decode maps a network output to its action. Outputs outside every band
// decode to Unmapped, which callers must handle themselves.
func Decode(output float64) Action {
	for _, r := range actionRanges {
		if output >= r.min && output < r.max {
			return r.action
		}
	}
	return Unmapped
}

// Target returns the training value for an action: the centre of its band.
func (a Action) Target() (float64, bool) {
	for _, r := range actionRanges {
		if r.action == a {
			return r.target, true
		}
	}
	return 0, false
}

func (a Action) String() string {
	switch a {
	case TurnRight:
		return "turn-right"
	case TurnLeft:
		return "turn-left"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Stop:
		return "stop"
	}
	return "unmapped"
}
