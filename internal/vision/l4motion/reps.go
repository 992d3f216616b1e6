package l4motion

import "github.com/abdulrehhhhman/fitness-ai/internal/vision"

// Position is the rep state machine state.
type Position int

const (
	PositionUnset Position = iota
	PositionUp
	PositionDown
)

func (p Position) String() string {
	switch p {
	case PositionUp:
		return "up"
	case PositionDown:
		return "down"
	default:
		return "unset"
	}
}

// RepCounter counts DOWN→UP transitions of an exercise's primary angle.
type RepCounter struct {
	up, down float64
	primary  []string
	fallback float64

	position Position
	count    int
}

// NewRepCounter returns a counter for cfg. up and down are the primary
// angle thresholds; a rep completes when the angle rises above up after
// having dropped below down.
func NewRepCounter(cfg vision.ExerciseConfig, up, down float64) *RepCounter {
	return &RepCounter{
		up:       up,
		down:     down,
		primary:  cfg.PrimaryAngles,
		fallback: cfg.PrimaryFallback,
	}
}

// Primary returns the mean of the primary angles. A missing angle counts as
// the exercise's fallback value.
func (c *RepCounter) Primary(angles vision.AngleSet) float64 {
	if len(c.primary) == 0 {
		return c.fallback
	}
	sum := 0.0
	for _, name := range c.primary {
		v, ok := angles[name]
		if !ok {
			v = c.fallback
		}
		sum += v
	}
	return sum / float64(len(c.primary))
}

// Observe advances the state machine by one frame and returns the completed
// repetition, if any. The first observation only sets the initial position.
func (c *RepCounter) Observe(obs Observation) *vision.RepEvent {
	p := c.Primary(obs.Angles)

	switch c.position {
	case PositionUnset:
		if p > c.up {
			c.position = PositionUp
		} else {
			c.position = PositionDown
		}
	case PositionUp:
		if p < c.down {
			c.position = PositionDown
		}
	case PositionDown:
		if p > c.up {
			c.position = PositionUp
			c.count++
			return &vision.RepEvent{
				RepNumber:   c.count,
				Timestamp:   obs.Timestamp,
				FormQuality: obs.Score.Score,
				Feedback:    append([]string{}, obs.Score.Feedback...),
			}
		}
	}
	return nil
}

// Position returns the current state.
func (c *RepCounter) Position() Position { return c.position }

// Count returns the number of completed repetitions.
func (c *RepCounter) Count() int { return c.count }
