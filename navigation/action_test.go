package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		output float64
		want   Action
	}{
		{0.49, Unmapped},
		{0.50, TurnRight},
		{0.53, TurnRight},
		{0.5599, TurnRight},
		{0.56, TurnLeft},
		{0.62, Forward},
		{0.65, Forward},
		{0.68, Backward},
		{0.74, Stop},
		{0.7999, Stop},
		{0.80, Unmapped},
		{0.1, Unmapped},
		{1.2, Unmapped},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decode(tt.output), "Decode(%v)", tt.output)
	}
}

func TestTargetDecodesToItself(t *testing.T) {
	for _, a := range Actions() {
		target, ok := a.Target()
		assert.True(t, ok)
		assert.Equal(t, a, Decode(target), "%s target %v", a, target)
	}
	_, ok := Unmapped.Target()
	assert.False(t, ok)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "turn-right", TurnRight.String())
	assert.Equal(t, "stop", Stop.String())
	assert.Equal(t, "unmapped", Unmapped.String())
	assert.Equal(t, "unmapped", Action(77).String())
}
