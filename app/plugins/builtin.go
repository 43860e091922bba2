package plugins

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/railsched/core/factory"
	"github.com/kilianp07/railsched/core/model"
	"github.com/kilianp07/railsched/core/scheduler"
	"github.com/kilianp07/railsched/core/track"
)

func init() {
	_ = RegisterTravelTimer("physics", func(map[string]any) (scheduler.TravelTimer, error) {
		return scheduler.Physics{}, nil
	})

	// constant runs every train at a fixed speed, capped by the line limit.
	_ = RegisterTravelTimer("constant", func(conf map[string]any) (scheduler.TravelTimer, error) {
		var c struct {
			SpeedKMH float64 `json:"speed_kmh"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.SpeedKMH <= 0 {
			return nil, fmt.Errorf("constant travel model: speed_kmh must be positive")
		}
		return scheduler.TravelTimeFunc(func(_ model.Train, loc track.Location) (time.Duration, error) {
			v := math.Min(c.SpeedKMH, loc.SpeedLimitKMH()) / 3.6
			if v <= 0 {
				return 0, scheduler.ErrNoTravelTime
			}
			return time.Duration(loc.Length() / v * float64(time.Second)), nil
		}), nil
	})

	// padded adds a recovery margin on top of the physics model.
	_ = RegisterTravelTimer("padded", func(conf map[string]any) (scheduler.TravelTimer, error) {
		var c struct {
			Factor float64       `json:"factor"`
			Extra  time.Duration `json:"extra"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Factor == 0 {
			c.Factor = 1
		}
		if c.Factor < 1 || c.Extra < 0 {
			return nil, fmt.Errorf("padded travel model: factor must be >= 1 and extra >= 0")
		}
		return scheduler.TravelTimeFunc(func(tr model.Train, loc track.Location) (time.Duration, error) {
			d, err := scheduler.Physics{}.TravelTime(tr, loc)
			if err != nil {
				return 0, err
			}
			return time.Duration(float64(d)*c.Factor) + c.Extra, nil
		}), nil
	})
}
