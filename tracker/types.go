package tracker

import (
	"fmt"
	"time"

	"golang.org/x/xerrors"
)

// Face-mesh landmark indices used by the detectors. The landmark model
// returns normalized coordinates, x and y in [0,1].
const (
	NoseTip       = 1
	LeftEyeOuter  = 33
	LeftEyeInner  = 133
	RightEyeInner = 362
	RightEyeOuter = 263
	LeftFaceEdge  = 234
	RightFaceEdge = 454
	LeftIris      = 468
	RightIris     = 473
)

// Overlay texts drawn on annotated frames
const (
	OverlayGaze     = "Frequent Eye Movement"
	OverlayHeadTurn = "Head Turn Detected"
	OverlayNoFace   = "No Face Detected"
)

var (
	ErrMalformedLandmarks = xerrors.New("malformed landmarks")
	ErrOutOfOrder         = xerrors.New("observation out of temporal order")
	ErrFinalized          = xerrors.New("tracker already finalized")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Landmarks is one face's landmark set, indexed by the model's landmark index.
type Landmarks []Point

func (l Landmarks) At(idx int) (Point, error) {
	if idx < 0 || idx >= len(l) {
		return Point{}, xerrors.Errorf("landmark %d of %d: %w", idx, len(l), ErrMalformedLandmarks)
	}
	return l[idx], nil
}

// Observation is the landmark result for a single video frame. At is the
// frame's video-relative presentation time. No faces means no face was found.
type Observation struct {
	Index int
	At    time.Duration
	Faces []Landmarks
}

type Kind string

const (
	KindGaze     Kind = "gaze"
	KindHeadTurn Kind = "head_turn"
	KindNoFace   Kind = "no_face"
)

type Alert struct {
	At      time.Duration `json:"at"`
	Kind    Kind          `json:"kind"`
	Message string        `json:"message"`
}

// Line renders the alert as a persisted log line. Alert times are offsets
// into the video, origin anchors them to the wall clock.
func (a Alert) Line(origin time.Time) string {
	return fmt.Sprintf("[%s] ALERT: %s.\n", origin.Add(a.At).Format("2006-01-02 15:04:05"), a.Message)
}

// Verdict is what a single frame produced: the overlay text to draw (empty
// when nothing is signaled) and the alerts to persist.
type Verdict struct {
	Overlay string
	Alerts  []Alert
}
