package mode

import (
	"context"
	"log/slog"
	"os"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/pipeline"
	"github.com/khaledhikmat/proctor-go/service/lgr"
)

// Analyze proctors a recorded video headless and writes the alert log and
// session summary
func Analyze(canxCtx context.Context, svcs pipeline.ServicesFactory, session model.Session) error {
	result, err := pipeline.Run(canxCtx, svcs, session, nil)
	if err != nil {
		lgr.Logger.Error("analyze failed",
			slog.String("session", session.ID),
			slog.Any("error", err),
		)
		return err
	}

	printReport(os.Stdout, result)
	return nil
}
