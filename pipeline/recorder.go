package pipeline

import (
	"image"
	"log/slog"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/service/lgr"
)

// recorder writes annotated frames to a video file. The writer is opened
// on the first frame so the output matches the decoded frame size.
type recorder struct {
	path   string
	fps    float64
	writer *gocv.VideoWriter
	cols   int
	rows   int
	frames int
}

func newRecorder(path string, fps float64) *recorder {
	if path == "" {
		return nil
	}
	return &recorder{path: path, fps: fps}
}

func (r *recorder) write(mat gocv.Mat) error {
	if r == nil {
		return nil
	}

	if r.writer == nil {
		if mat.Empty() || mat.Cols() <= 0 || mat.Rows() <= 0 {
			return xerrors.Errorf("invalid frame dimensions: cols=%d, rows=%d", mat.Cols(), mat.Rows())
		}

		writer, err := gocv.VideoWriterFile(r.path, "mp4v", r.fps, mat.Cols(), mat.Rows(), true)
		if err != nil {
			return xerrors.Errorf("create video writer %s: %w", r.path, err)
		}
		r.writer = writer
		r.cols = mat.Cols()
		r.rows = mat.Rows()

		lgr.Logger.Info("annotated video recording",
			slog.String("file", r.path),
			slog.Int("cols", r.cols),
			slog.Int("rows", r.rows),
		)
	}

	// Check if the frame dimensions match the video dimensions
	if mat.Cols() != r.cols || mat.Rows() != r.rows {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(mat, &resized, image.Pt(r.cols, r.rows), 0, 0, gocv.InterpolationLinear); err != nil {
			return xerrors.Errorf("resize frame: %w", err)
		}
		mat = resized
	}

	if err := r.writer.Write(mat); err != nil {
		return xerrors.Errorf("write frame %d: %w", r.frames, err)
	}
	r.frames++
	return nil
}

func (r *recorder) close() error {
	if r == nil || r.writer == nil {
		return nil
	}
	err := r.writer.Close()
	r.writer = nil
	return err
}
