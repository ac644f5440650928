package pipeline

import (
	"context"
	"log/slog"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/service/lgr"
)

// Source is an opened recorded video
type Source struct {
	Path   string
	FPS    float64
	Width  int
	Height int
	Frames int

	capture *gocv.VideoCapture
}

// OpenSource opens a video file. Any failure wraps model.ErrSourceUnavailable.
func OpenSource(path string, defaultFPS float64) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, model.SourceError(xerrors.Errorf("open %s: %w", path, err))
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, model.SourceError(xerrors.Errorf("open %s: capture not opened", path))
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		lgr.Logger.Warn("video reports no frame rate, using default",
			slog.String("source", path),
			slog.Float64("fps", defaultFPS),
		)
		fps = defaultFPS
	}

	return &Source{
		Path:    path,
		FPS:     fps,
		Width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		Frames:  int(capture.Get(gocv.VideoCaptureFrameCount)),
		capture: capture,
	}, nil
}

// Timestamp is the presentation time of frame index
func (src *Source) Timestamp(index int) time.Duration {
	return time.Duration(float64(index) / src.FPS * float64(time.Second))
}

func (src *Source) Close() error {
	return src.capture.Close()
}

// framer decodes frames in order onto a bounded channel. A failed read is
// end of stream. The channel is closed when the stream ends or ctx is done.
func framer(canxCtx context.Context, src *Source, queueSize int) <-chan FrameData {
	out := make(chan FrameData, queueSize)

	go func() {
		defer close(out)

		startTime := time.Now().Unix()
		frames := 0

		defer func() {
			lgr.Logger.Info("framer stats", slog.Any("stats", model.FramerStats{
				Name:      "videoFramer",
				Source:    src.Path,
				FPS:       src.FPS,
				Frames:    frames,
				Uptime:    time.Now().Unix() - startTime,
				Timestamp: time.Now().Unix(),
			}))
		}()

		for {
			select {
			case <-canxCtx.Done():
				lgr.Logger.Info("framer context cancelled")
				return
			default:
			}

			img := gocv.NewMat()
			if ok := src.capture.Read(&img); !ok || img.Empty() {
				img.Close() // Crucial to close the image to avoid memory leaks
				lgr.Logger.Debug("end of stream", slog.Int("frames", frames))
				return
			}

			frame := FrameData{Mat: img, Index: frames, Timestamp: src.Timestamp(frames)}
			frames++

			select {
			case <-canxCtx.Done():
				lgr.Logger.Info("framer context cancelled while sending")
				img.Close()
				return
			case out <- frame:
			}
		}
	}()

	return out
}
