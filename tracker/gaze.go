package tracker

import (
	"time"

	"golang.org/x/xerrors"
)

// GazeStrategy turns the per-frame drifting signal into gaze violations.
// Implementations are not safe for concurrent use.
type GazeStrategy interface {
	Name() StrategyName
	// Observe consumes one face frame. It returns the alert message and true
	// when the frame signals a gaze violation.
	Observe(at time.Duration, drifting bool) (string, bool)
	// Finalize closes anything still open at end.
	Finalize(end time.Duration)
	Violations() int
	Accumulated() time.Duration
}

func NewGazeStrategy(cfg Config) (GazeStrategy, error) {
	switch cfg.Strategy {
	case StrategyContinuous, "":
		return &continuousGaze{}, nil
	case StrategyWindowed:
		return &windowedGaze{
			threshold: cfg.EyeViolationThreshold,
			window:    cfg.EyeWindowDuration,
			penalty:   cfg.EyeWindowPenalty,
		}, nil
	}
	return nil, xerrors.Errorf("unknown gaze strategy %q", cfg.Strategy)
}

// continuousGaze treats every run of drifting frames as one episode. The
// episode's duration is folded in when it closes.
type continuousGaze struct {
	active      bool
	start       time.Duration
	violations  int
	accumulated time.Duration
}

func (g *continuousGaze) Name() StrategyName { return StrategyContinuous }

func (g *continuousGaze) Observe(at time.Duration, drifting bool) (string, bool) {
	if !drifting {
		g.close(at)
		return "", false
	}

	if !g.active {
		g.active = true
		g.start = at
		g.violations++
	}
	return "Eye movement detected", true
}

func (g *continuousGaze) Finalize(end time.Duration) { g.close(end) }

func (g *continuousGaze) close(at time.Duration) {
	if !g.active {
		return
	}
	g.accumulated += at - g.start
	g.active = false
}

func (g *continuousGaze) Violations() int            { return g.violations }
func (g *continuousGaze) Accumulated() time.Duration { return g.accumulated }

// windowedGaze declares a violation once enough drifting frames fall inside
// a sliding window. Each violation adds a fixed penalty.
type windowedGaze struct {
	threshold   int
	window      time.Duration
	penalty     time.Duration
	events      []time.Duration
	violations  int
	accumulated time.Duration
}

func (g *windowedGaze) Name() StrategyName { return StrategyWindowed }

func (g *windowedGaze) Observe(at time.Duration, drifting bool) (string, bool) {
	if !drifting {
		return "", false
	}

	g.events = append(g.events, at)
	for len(g.events) > 0 && at-g.events[0] > g.window {
		g.events = g.events[1:]
	}

	if len(g.events) < g.threshold {
		return "", false
	}

	g.violations++
	g.accumulated += g.penalty
	g.events = g.events[:0]
	return "Frequent eye movement detected", true
}

func (g *windowedGaze) Finalize(time.Duration) {}

func (g *windowedGaze) Violations() int            { return g.violations }
func (g *windowedGaze) Accumulated() time.Duration { return g.accumulated }
