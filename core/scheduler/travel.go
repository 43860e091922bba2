package scheduler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/track"
)

// ErrNoTravelTime is returned when a travel time cannot be derived.
var ErrNoTravelTime = errors.New("no travel time")

// TravelTimer computes how long a train needs to run along a location.
type TravelTimer interface {
	TravelTime(tr model.Train, loc track.Location) (time.Duration, error)
}

// TravelTimeFunc adapts a function to TravelTimer.
type TravelTimeFunc func(tr model.Train, loc track.Location) (time.Duration, error)

func (f TravelTimeFunc) TravelTime(tr model.Train, loc track.Location) (time.Duration, error) {
	return f(tr, loc)
}

// massSpeedCoefficient relates hauled weight to the speed the available
// power can sustain.
const massSpeedCoefficient = 0.0035

// Physics times a run with constant acceleration up to the allowed speed,
// then constant speed. Without a known acceleration the train runs at the
// allowed speed throughout.
type Physics struct{}

// AllowedSpeedKMH is the lowest of the line limit, the fastest locomotive's
// top speed and the speed the traction power can sustain.
func AllowedSpeedKMH(tr model.Train, loc track.Location) float64 {
	v := math.Min(loc.SpeedLimitKMH(), tr.MaxSpeedKMH())
	if w := tr.TotalWeightT(); w > 0 {
		v = math.Min(v, tr.TotalPowerKW()/(w*massSpeedCoefficient))
	}
	return v
}

func (Physics) TravelTime(tr model.Train, loc track.Location) (time.Duration, error) {
	if !loc.IsSegmentLike() {
		return 0, fmt.Errorf("%w: %s is not running track", ErrNoTravelTime, loc)
	}
	vmax := AllowedSpeedKMH(tr, loc) / 3.6
	if vmax <= 0 || math.IsNaN(vmax) {
		return 0, fmt.Errorf("%w: train %d has no usable speed on %s", ErrNoTravelTime, tr.ID, loc)
	}
	dist := loc.Length()
	accel := tr.MaxAcceleration()
	var sec float64
	switch {
	case accel <= 0:
		sec = dist / vmax
	case vmax*vmax/(2*accel) >= dist:
		sec = math.Sqrt(2 * dist / accel)
	default:
		sAccel := vmax * vmax / (2 * accel)
		sec = vmax/accel + (dist-sAccel)/vmax
	}
	return time.Duration(sec * float64(time.Second)).Truncate(time.Millisecond), nil
}
