package pipeline

import (
	"log/slog"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

// alerter persists tracker alerts in order. It runs on the proctor goroutine
// so the alert log follows frame order.
type alerter struct {
	svcs   ServicesFactory
	logger *slog.Logger
}

func (a *alerter) raise(frame int, alerts []tracker.Alert) error {
	for _, alert := range alerts {
		if err := a.svcs.DataSvc.AppendAlert(alert); err != nil {
			return model.GenError("proctor_alerter",
				err,
				map[string]interface{}{"frame": frame, "kind": alert.Kind},
				"error persisting alert")
		}

		if a.svcs.Metrics != nil {
			a.svcs.Metrics.ObserveAlert(alert.Kind)
		}

		a.logger.Info("alert",
			slog.Int("frame", frame),
			slog.String("kind", string(alert.Kind)),
			slog.String("message", alert.Message),
			slog.Duration("at", alert.At),
		)
	}
	return nil
}

// newAlerter logs through logger, which is expected to carry the session.
func newAlerter(svcs ServicesFactory, logger *slog.Logger) *alerter {
	if logger == nil {
		logger = lgr.Logger
	}
	return &alerter{svcs: svcs, logger: logger}
}
