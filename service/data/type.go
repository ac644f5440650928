package data

import (
	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/tracker"
)

// IService persists the session artifacts. Every write failure wraps
// model.ErrSinkWriteFailure.
type IService interface {
	AppendAlert(alert tracker.Alert) error
	WriteSummary(totals tracker.SessionTotals) error
	Alerts() int
	Close() error
}

type SummaryDocument struct {
	Session model.Session         `json:"session"`
	Alerts  int                   `json:"alerts"`
	Totals  tracker.SessionTotals `json:"totals"`
	Report  tracker.Report        `json:"report"`
}
