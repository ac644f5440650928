package landmark

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/tracker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame is what a landmark model sees of one decoded video frame. Encode
// yields JPEG bytes and is only called by adapters that need pixels.
type Frame struct {
	Index  int
	At     time.Duration
	Width  int
	Height int
	Encode func() ([]byte, error)
}

// IService is the face-landmark model. Detect returns one landmark set per
// face found, or none. Calls are made by a single goroutine in frame order.
type IService interface {
	Detect(ctx context.Context, frame Frame) ([]tracker.Landmarks, error)
	Close() error
}

// record is one line of the landmark wire format shared by the replay file
// and the worker protocol:
//
//	{"frame": 12, "faces": [[[x, y, z], [x, y, z], ...]]}
type record struct {
	Frame int           `json:"frame"`
	Faces [][][]float64 `json:"faces"`
	Error string        `json:"error,omitempty"`
}

func (r record) landmarks() ([]tracker.Landmarks, error) {
	if r.Error != "" {
		return nil, xerrors.Errorf("frame %d: model error: %s", r.Frame, r.Error)
	}
	if len(r.Faces) == 0 {
		return nil, nil
	}

	faces := make([]tracker.Landmarks, 0, len(r.Faces))
	for f, pts := range r.Faces {
		lm := make(tracker.Landmarks, len(pts))
		for i, p := range pts {
			if len(p) < 2 {
				return nil, xerrors.Errorf("frame %d face %d point %d has %d coordinates: %w", r.Frame, f, i, len(p), tracker.ErrMalformedLandmarks)
			}
			lm[i] = tracker.Point{X: p[0], Y: p[1]}
			if len(p) > 2 {
				lm[i].Z = p[2]
			}
		}
		faces = append(faces, lm)
	}
	return faces, nil
}

func encodeRecord(faces []tracker.Landmarks, frame int) ([]byte, error) {
	r := record{Frame: frame, Faces: make([][][]float64, 0, len(faces))}
	for _, lm := range faces {
		pts := make([][]float64, len(lm))
		for i, p := range lm {
			pts[i] = []float64{p.X, p.Y, p.Z}
		}
		r.Faces = append(r.Faces, pts)
	}
	return json.Marshal(r)
}
