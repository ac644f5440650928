// Package tracker converts a per-frame stream of face landmarks into
// debounced, duration-tracked violation events: gaze drift, head turns and
// face absence.
//
// A Tracker has exactly one writer. Feed it observations in temporal order,
// then call Finalize once at end of stream.
package tracker

import (
	"time"

	"golang.org/x/xerrors"
)

type Tracker struct {
	cfg     Config
	gaze    GazeStrategy
	head    headTurnState
	absence absenceState

	started   bool
	start     time.Duration
	last      time.Duration
	frames    int
	malformed int

	finalized bool
	totals    SessionTotals
}

func New(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gaze, err := NewGazeStrategy(cfg)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		cfg:  cfg,
		gaze: gaze,
		head: headTurnState{
			threshold: cfg.HeadTurnThreshold,
			minFrames: cfg.HeadTurnFrameThreshold,
		},
		absence: absenceState{
			interval: cfg.LogInterval,
		},
	}, nil
}

func (t *Tracker) Strategy() StrategyName { return t.gaze.Name() }

// Observe processes one frame. A frame whose landmark set lacks a required
// index returns ErrMalformedLandmarks and leaves violation state untouched.
func (t *Tracker) Observe(obs Observation) (Verdict, error) {
	if err := t.advance(obs.Index, obs.At); err != nil {
		return Verdict{}, err
	}

	if len(obs.Faces) == 0 {
		return t.observeMissing(obs.At), nil
	}

	// Single subject: extra faces are ignored
	m, err := measure(obs.Faces[0])
	if err != nil {
		t.malformed++
		return Verdict{}, xerrors.Errorf("frame %d: %w", obs.Index, err)
	}

	return t.observeFace(obs.At, m), nil
}

// ObserveMalformed records a frame whose landmarks could not be decoded at
// all. It counts as a malformed frame, like a short landmark set passed to
// Observe, and moves the clock without touching violation state.
func (t *Tracker) ObserveMalformed(index int, at time.Duration) error {
	if err := t.advance(index, at); err != nil {
		return err
	}
	t.malformed++
	return nil
}

func (t *Tracker) advance(index int, at time.Duration) error {
	if t.finalized {
		return ErrFinalized
	}
	if t.started && at < t.last {
		return xerrors.Errorf("frame %d at %s before %s: %w", index, at, t.last, ErrOutOfOrder)
	}

	if !t.started {
		t.started = true
		t.start = at
	}
	t.last = at
	t.frames++
	return nil
}

func (t *Tracker) observeMissing(at time.Duration) Verdict {
	v := Verdict{Overlay: OverlayNoFace}
	if t.absence.missing(at) {
		v.Alerts = append(v.Alerts, Alert{At: at, Kind: KindNoFace, Message: "No face detected"})
	}
	return v
}

func (t *Tracker) observeFace(at time.Duration, m measurement) Verdict {
	var v Verdict

	drifting := m.leftDrift > t.cfg.GazeDriftThreshold || m.rightDrift > t.cfg.GazeDriftThreshold
	if msg, ok := t.gaze.Observe(at, drifting); ok {
		v.Overlay = OverlayGaze
		v.Alerts = append(v.Alerts, Alert{At: at, Kind: KindGaze, Message: msg})
	}

	if t.head.observe(m.noseOffset) {
		v.Overlay = OverlayHeadTurn
		v.Alerts = append(v.Alerts, Alert{At: at, Kind: KindHeadTurn, Message: "Head turn detected"})
	}

	t.absence.present(at)
	return v
}

// Finalize closes any open gaze or absence episode at end and returns the
// session totals. end earlier than the last observation is clamped to it.
// Calling Finalize again returns the same totals.
func (t *Tracker) Finalize(end time.Duration) SessionTotals {
	if t.finalized {
		return t.totals
	}

	if !t.started {
		t.start = end
		t.last = end
	}
	if end < t.last {
		end = t.last
	}

	t.gaze.Finalize(end)
	t.absence.present(end)

	t.finalized = true
	t.totals = t.snapshot(end)
	return t.totals
}

// Totals reports closed episodes so far. Open episodes are only counted
// once Finalize runs.
func (t *Tracker) Totals() SessionTotals {
	if t.finalized {
		return t.totals
	}
	return t.snapshot(t.last)
}

func (t *Tracker) snapshot(end time.Duration) SessionTotals {
	return SessionTotals{
		Strategy:           t.gaze.Name(),
		Start:              t.start,
		End:                end,
		Frames:             t.frames,
		MalformedFrames:    t.malformed,
		GazeViolations:     t.gaze.Violations(),
		GazeTime:           t.gaze.Accumulated(),
		HeadTurnViolations: t.head.violations,
		AbsenceViolations:  t.absence.violations,
		AbsenceTime:        t.absence.accumulated,
	}
}
