package tracker

import (
	"math"
	"time"
)

type headTurnState struct {
	threshold   float64
	minFrames   int
	consecutive int
	violations  int
}

// observe registers a head turn on the first frame back under the threshold
// after at least minFrames consecutive turned frames.
func (h *headTurnState) observe(offset float64) bool {
	if math.Abs(offset) > h.threshold {
		h.consecutive++
		return false
	}

	registered := h.consecutive >= h.minFrames
	if registered {
		h.violations++
	}
	h.consecutive = 0
	return registered
}

type absenceState struct {
	interval    time.Duration
	open        bool
	start       time.Duration
	logged      bool
	lastLog     time.Duration
	violations  int
	accumulated time.Duration
}

// missing opens an absence episode if needed and reports whether this frame
// may write a log line. The rate limit spans episodes.
func (a *absenceState) missing(at time.Duration) bool {
	if !a.open {
		a.open = true
		a.start = at
	}

	if a.logged && at-a.lastLog <= a.interval {
		return false
	}
	a.logged = true
	a.lastLog = at
	return true
}

func (a *absenceState) present(at time.Duration) {
	if !a.open {
		return
	}
	a.accumulated += at - a.start
	a.violations++
	a.open = false
}
