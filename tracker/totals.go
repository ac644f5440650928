package tracker

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type SessionTotals struct {
	Strategy           StrategyName  `json:"strategy"`
	Start              time.Duration `json:"start"`
	End                time.Duration `json:"end"`
	Frames             int           `json:"frames"`
	MalformedFrames    int           `json:"malformedFrames"`
	GazeViolations     int           `json:"gazeViolations"`
	GazeTime           time.Duration `json:"gazeTime"`
	HeadTurnViolations int           `json:"headTurnViolations"`
	AbsenceViolations  int           `json:"absenceViolations"`
	AbsenceTime        time.Duration `json:"absenceTime"`
}

func (s SessionTotals) Duration() time.Duration {
	return s.End - s.Start
}

// CheatingTime is gaze plus absence time, capped at the session duration so
// overlapping episodes never exceed 100%.
func (s SessionTotals) CheatingTime() time.Duration {
	return min(s.GazeTime+s.AbsenceTime, s.Duration())
}

// Report is the rounded, human-facing view of the totals.
type Report struct {
	SessionSeconds     int     `json:"sessionSeconds"`
	GazeViolations     int     `json:"gazeViolations"`
	HeadTurnViolations int     `json:"headTurnViolations"`
	AbsenceViolations  int     `json:"absenceViolations"`
	GazeSeconds        int     `json:"gazeSeconds"`
	GazePercent        float64 `json:"gazePercent"`
	AbsenceSeconds     int     `json:"absenceSeconds"`
	AbsencePercent     float64 `json:"absencePercent"`
	CheatingSeconds    int     `json:"cheatingSeconds"`
	CheatingPercent    float64 `json:"cheatingPercent"`
	MalformedFrames    int     `json:"malformedFrames"`
}

func (s SessionTotals) Report() Report {
	d := s.Duration()
	return Report{
		SessionSeconds:     seconds(d),
		GazeViolations:     s.GazeViolations,
		HeadTurnViolations: s.HeadTurnViolations,
		AbsenceViolations:  s.AbsenceViolations,
		GazeSeconds:        seconds(s.GazeTime),
		GazePercent:        percent(s.GazeTime, d),
		AbsenceSeconds:     seconds(s.AbsenceTime),
		AbsencePercent:     percent(s.AbsenceTime, d),
		CheatingSeconds:    seconds(s.CheatingTime()),
		CheatingPercent:    percent(s.CheatingTime(), d),
		MalformedFrames:    s.MalformedFrames,
	}
}

// Text renders the fixed-order session summary.
func (r Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Session Time: %d seconds\n", r.SessionSeconds)
	fmt.Fprintf(&b, "Eye Gaze Violations: %d\n", r.GazeViolations)
	fmt.Fprintf(&b, "Head Turn Violations: %d\n", r.HeadTurnViolations)
	fmt.Fprintf(&b, "No Face Violations: %d\n", r.AbsenceViolations)
	fmt.Fprintf(&b, "Time Not Looking at Screen: %d sec (%.1f%%)\n", r.GazeSeconds, r.GazePercent)
	fmt.Fprintf(&b, "Time with No Face Detected: %d sec (%.1f%%)\n", r.AbsenceSeconds, r.AbsencePercent)
	fmt.Fprintf(&b, "Total Cheating Duration: %d sec (%.1f%%)\n", r.CheatingSeconds, r.CheatingPercent)
	return b.String()
}

func seconds(d time.Duration) int {
	return int(math.RoundToEven(d.Seconds()))
}

// percent of total, one decimal place. A zero-length session is 0%.
func percent(part, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return math.RoundToEven(part.Seconds()/total.Seconds()*1000) / 10
}
