package navigation

import (
	"github.com/pkg/errors"
)

// Sonar layout of the robot: 0 is the right side, 3 and 4 face forward,
// 7 is the left side. There are no rear sensors.
const (
	SonarCount = 8

	// DefaultNearThreshold is the reading at or below which a direction is
	// considered blocked.
	DefaultNearThreshold = 20
)

// Input vector positions.
const (
	Right = iota
	Left
	Front
	Back
	NumDirections
)

// ErrSensorReading reports a reading set the normalizer cannot use.
var ErrSensorReading = errors.New("invalid sonar reading")

// Normalize folds eight sonar readings into the four free/blocked flags the
// network expects: 1 when the closest-facing sensor group reads beyond
// nearThreshold, 0 otherwise. The back is always reported free.
func Normalize(readings []int, nearThreshold int) ([]float64, error) {
	if len(readings) != SonarCount {
		return nil, errors.Wrapf(ErrSensorReading, "expected %d readings, got %d", SonarCount, len(readings))
	}
	right := max(readings[0], readings[1], readings[2])
	left := max(readings[5], readings[6], readings[7])
	front := max(readings[3], readings[4])

	flags := make([]float64, NumDirections)
	flags[Right] = free(right, nearThreshold)
	flags[Left] = free(left, nearThreshold)
	flags[Front] = free(front, nearThreshold)
	flags[Back] = 1
	return flags, nil
}

func free(reading, threshold int) float64 {
	if reading > threshold {
		return 1
	}
	return 0
}
