package data

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/service/config"
	"github.com/khaledhikmat/proctor-go/tracker"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type filesService struct {
	CfgSvc  config.IService
	Session model.Session
	alerts  int
	log     *os.File
}

// NewFiles truncates the alert log and keeps it open for appending. Alert
// lines are written straight through so a crash keeps what was logged.
func NewFiles(cfgSvc config.IService, session model.Session) (IService, error) {
	for _, fn := range []string{cfgSvc.GetAlertLogFile(), cfgSvc.GetSummaryFile(), cfgSvc.GetSummaryJSONFile()} {
		if fn == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
			return nil, model.SinkError(xerrors.Errorf("create folder for %s: %w", fn, err))
		}
	}

	f, err := os.OpenFile(cfgSvc.GetAlertLogFile(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, model.SinkError(xerrors.Errorf("open alert log: %w", err))
	}

	return &filesService{
		CfgSvc:  cfgSvc,
		Session: session,
		log:     f,
	}, nil
}

func (svc *filesService) AppendAlert(alert tracker.Alert) error {
	if svc.log == nil {
		return model.SinkError(xerrors.New("alert log closed"))
	}
	if _, err := svc.log.WriteString(alert.Line(svc.Session.StartedAt)); err != nil {
		return model.SinkError(xerrors.Errorf("append alert: %w", err))
	}
	svc.alerts++
	return nil
}

func (svc *filesService) Alerts() int {
	return svc.alerts
}

func (svc *filesService) WriteSummary(totals tracker.SessionTotals) error {
	report := totals.Report()

	err := os.WriteFile(svc.CfgSvc.GetSummaryFile(), []byte(report.Text()), 0o644)
	if err != nil {
		return model.SinkError(xerrors.Errorf("write summary: %w", err))
	}

	fn := svc.CfgSvc.GetSummaryJSONFile()
	if fn == "" {
		return nil
	}

	data, err := json.MarshalIndent(SummaryDocument{
		Session: svc.Session,
		Alerts:  svc.alerts,
		Totals:  totals,
		Report:  report,
	}, "", "  ")
	if err != nil {
		return model.SinkError(xerrors.Errorf("marshal summary: %w", err))
	}

	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return model.SinkError(xerrors.Errorf("write json summary: %w", err))
	}
	return nil
}

func (svc *filesService) Close() error {
	if svc.log == nil {
		return nil
	}
	err := svc.log.Close()
	svc.log = nil
	if err != nil {
		return model.SinkError(xerrors.Errorf("close alert log: %w", err))
	}
	return nil
}
