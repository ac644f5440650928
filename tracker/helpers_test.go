package tracker

import (
	"testing"
	"time"
)

const frameInterval = 100 * time.Millisecond

func frameAt(i int) time.Duration { return time.Duration(i) * frameInterval }

type faceOpt func(Landmarks)

// face builds a 478-point landmark set looking straight at the camera.
func face(opts ...faceOpt) Landmarks {
	lm := make(Landmarks, 478)
	for i := range lm {
		lm[i] = Point{X: 0.5, Y: 0.5}
	}
	lm[LeftEyeOuter] = Point{X: 0.35, Y: 0.4}
	lm[LeftEyeInner] = Point{X: 0.45, Y: 0.4}
	lm[LeftIris] = Point{X: 0.40, Y: 0.4}
	lm[RightEyeInner] = Point{X: 0.55, Y: 0.4}
	lm[RightEyeOuter] = Point{X: 0.65, Y: 0.4}
	lm[RightIris] = Point{X: 0.60, Y: 0.4}
	lm[LeftFaceEdge] = Point{X: 0.30, Y: 0.5}
	lm[RightFaceEdge] = Point{X: 0.70, Y: 0.5}
	lm[NoseTip] = Point{X: 0.50, Y: 0.55}
	for _, opt := range opts {
		opt(lm)
	}
	return lm
}

// drifting moves the left iris a tenth of the eye width off centre.
func drifting(lm Landmarks) { lm[LeftIris].X += 0.01 }

// turned moves the nose a tenth of the frame off the face centre.
func turned(lm Landmarks) { lm[NoseTip].X += 0.1 }

func obs(i int, faces ...Landmarks) Observation {
	return Observation{Index: i, At: frameAt(i), Faces: faces}
}

func newTracker(t testing.TB, mutate func(*Config)) *Tracker {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	trk, err := New(cfg)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	return trk
}

func feed(trk *Tracker, observations ...Observation) []Verdict {
	verdicts := make([]Verdict, 0, len(observations))
	for _, o := range observations {
		v, _ := trk.Observe(o)
		verdicts = append(verdicts, v)
	}
	return verdicts
}
