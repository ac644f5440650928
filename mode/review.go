package mode

import (
	"context"
	"log/slog"
	"os"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/pipeline"
	"github.com/khaledhikmat/proctor-go/service/lgr"
)

const (
	reviewWindowTitle = "AI Interview Monitoring Summary"
	keyEscape         = 27
)

type windowDisplay struct {
	window *gocv.Window
}

func (d *windowDisplay) Show(mat gocv.Mat) bool {
	d.window.IMShow(mat)
	return d.window.WaitKey(1)&0xFF != keyEscape
}

func (d *windowDisplay) Close() error {
	return d.window.Close()
}

// Review runs the same pipeline as Analyze while showing annotated frames.
// ESC stops the session cleanly: open episodes are closed and the summary
// is still written.
func Review(canxCtx context.Context, svcs pipeline.ServicesFactory, session model.Session) error {
	display := &windowDisplay{window: gocv.NewWindow(reviewWindowTitle)}
	defer display.Close()

	result, err := pipeline.Run(canxCtx, svcs, session, display)
	if err != nil {
		lgr.Logger.Error("review failed",
			slog.String("session", session.ID),
			slog.Any("error", err),
		)
		return err
	}

	if result.Stopped {
		lgr.Logger.Info("review stopped by viewer", slog.String("session", session.ID))
	}

	printReport(os.Stdout, result)
	return nil
}
