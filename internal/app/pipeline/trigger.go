package pipeline

import (
	"fmt"
	"math"

	"github.com/ghalamif/catalink/internal/domain"
	"github.com/ghalamif/catalink/internal/ports"
)

// ValidateTrigger rejects trigger kinds and cadences the scheduler can't honour.
func ValidateTrigger(t ports.Trigger) error {
	switch t.Kind {
	case "", ports.TriggerTimeStep:
		if t.Frequency < 0 {
			return fmt.Errorf("%w: trigger frequency %d", ErrConfiguration, t.Frequency)
		}
	case ports.TriggerTime:
		if t.Interval < 0 || math.IsNaN(t.Interval) || math.IsInf(t.Interval, 0) {
			return fmt.Errorf("%w: trigger interval %v", ErrConfiguration, t.Interval)
		}
	default:
		return fmt.Errorf("%w: trigger kind %q", ErrConfiguration, t.Kind)
	}
	return nil
}

// scaleTrigger returns a trigger firing every n units of the base cadence.
func scaleTrigger(base ports.Trigger, n int) ports.Trigger {
	if n <= 0 {
		n = 1
	}
	out := base
	switch base.Kind {
	case ports.TriggerTime:
		out.Interval = base.Interval * float64(n)
	default:
		out.Kind = ports.TriggerTimeStep
		f := base.Frequency
		if f <= 0 {
			f = 1
		}
		out.Frequency = f * n
	}
	return out
}

// schedule remembers the last firing of one trigger.
type schedule struct {
	trigger    ports.Trigger
	fired      bool
	lastCycle  int64
	lastBucket float64
}

func newSchedule(t ports.Trigger) *schedule {
	return &schedule{trigger: t}
}

// due reports whether the trigger fires on info. A cycle that already fired
// is never due again.
func (s *schedule) due(info domain.ExecInfo) bool {
	if s.fired && s.lastCycle == info.Cycle {
		return false
	}
	switch s.trigger.Kind {
	case ports.TriggerTime:
		if s.trigger.Interval <= 0 {
			return true
		}
		bucket := math.Floor(info.Time / s.trigger.Interval)
		return !s.fired || bucket > s.lastBucket
	default:
		f := int64(s.trigger.Frequency)
		if f <= 0 {
			f = 1
		}
		return info.Cycle%f == 0
	}
}

func (s *schedule) mark(info domain.ExecInfo) {
	s.fired = true
	s.lastCycle = info.Cycle
	if s.trigger.Kind == ports.TriggerTime && s.trigger.Interval > 0 {
		s.lastBucket = math.Floor(info.Time / s.trigger.Interval)
	}
}
