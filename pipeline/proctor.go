package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/service/landmark"
	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

type Result struct {
	Session model.Session
	Totals  tracker.SessionTotals
	Alerts  int
	Stopped bool
}

// Run proctors one recorded video. Frames are decoded on a framer goroutine
// and fully processed here one at a time: landmarks, tracker, alert log,
// overlay, recorder, display. The tracker is finalized and the summary
// written on every exit path that got past opening the source.
func Run(canxCtx context.Context, svcs ServicesFactory, session model.Session, display Display) (Result, error) {
	canxCtx = session.Context(canxCtx)
	logger := lgr.FromContext(canxCtx).With(slog.String("session", session.ID))
	result := Result{Session: session}

	src, err := OpenSource(session.Source, svcs.CfgSvc.GetDefaultFPS())
	if err != nil {
		return result, err
	}
	defer src.Close()

	trk, err := tracker.New(svcs.CfgSvc.GetTrackerConfig())
	if err != nil {
		return result, xerrors.Errorf("tracker config: %w", err)
	}

	logger.Info("proctor starting...",
		slog.String("source", src.Path),
		slog.Float64("fps", src.FPS),
		slog.Int("frames", src.Frames),
		slog.String("strategy", string(trk.Strategy())),
	)

	runCtx, runCancel := context.WithCancel(canxCtx)
	defer runCancel()

	p := newProctor(svcs, session, trk, src.Timestamp(1), logger)
	p.rec = newRecorder(svcs.CfgSvc.GetAnnotatedVideoFile(), src.FPS)
	p.display = display

	result.Totals, err = p.run(runCtx, runCancel, framer(runCtx, src, svcs.CfgSvc.GetFrameQueueSize()))
	result.Alerts = svcs.DataSvc.Alerts()
	result.Stopped = p.stopped

	if canxCtx.Err() != nil && err == nil {
		logger.Info("proctor context cancelled, session finalized early")
	}
	return result, err
}

// proctor owns the per-session processing state. interval is the video time
// of one frame; the session ends one interval after the last frame read.
type proctor struct {
	svcs     ServicesFactory
	trk      *tracker.Tracker
	alerts   *alerter
	rec      *recorder
	display  Display
	logger   *slog.Logger
	interval time.Duration
	stats    model.ProctorStats
	stopped  bool
}

func newProctor(svcs ServicesFactory, session model.Session, trk *tracker.Tracker, interval time.Duration, logger *slog.Logger) *proctor {
	if logger == nil {
		logger = lgr.Logger
	}
	return &proctor{
		svcs:     svcs,
		trk:      trk,
		alerts:   newAlerter(svcs, logger),
		logger:   logger,
		interval: interval,
		stats:    model.ProctorStats{Name: "proctor", Session: session.ID},
	}
}

// run drains frames until the channel closes. After a fatal error or a stop
// request the remaining frames are released unprocessed and cancel is called
// so the producer winds down.
func (p *proctor) run(ctx context.Context, cancel context.CancelFunc, frames <-chan FrameData) (tracker.SessionTotals, error) {
	beginTime := time.Now()
	var totalProcTime time.Duration
	var fatal error
	var end time.Duration

	for frame := range frames {
		if fatal != nil || p.stopped {
			frame.Mat.Close()
			continue
		}

		procStart := time.Now()
		end = frame.Timestamp + p.interval
		malformed, err := p.process(ctx, frame)
		if err != nil {
			fatal = err
			cancel()
		}
		if p.stopped {
			cancel()
		}
		elapsed := time.Since(procStart)
		if p.svcs.Metrics != nil {
			p.svcs.Metrics.ObserveFrame(elapsed, malformed)
		}
		p.stats.Frames++
		totalProcTime += elapsed
	}

	// Any still-open episode closes at the end of the last frame read
	totals := p.trk.Finalize(end)
	if p.svcs.Metrics != nil {
		p.svcs.Metrics.ObserveTotals(totals)
	}

	if err := p.rec.close(); err != nil {
		p.logger.Error("error closing annotated video", slog.Any("error", err))
	}

	if err := p.svcs.DataSvc.WriteSummary(totals); err != nil {
		summaryErr := model.GenError("proctor_summary", err, nil, "error writing session summary")
		if fatal == nil {
			fatal = summaryErr
		} else {
			p.logger.Error("error writing session summary", slog.Any("error", summaryErr))
		}
	}

	p.stats.Alerts = p.svcs.DataSvc.Alerts()
	p.stats.Uptime = int64(time.Since(beginTime).Seconds())
	p.stats.Timestamp = time.Now().Unix()
	if p.stats.Frames > 0 {
		p.stats.AvgProcTime = totalProcTime.Seconds() / float64(p.stats.Frames)
	}
	p.logger.Info("proctor stats", slog.Any("stats", p.stats))

	return totals, fatal
}

// process runs one frame through landmarks, tracker, alert log, overlay,
// recorder and display. It reports whether the frame was malformed.
func (p *proctor) process(ctx context.Context, frame FrameData) (bool, error) {
	defer frame.Mat.Close()

	var verdict tracker.Verdict
	faces, err := p.svcs.LandmarkSvc.Detect(ctx, landmark.Frame{
		Index:  frame.Index,
		At:     frame.Timestamp,
		Width:  frame.Mat.Cols(),
		Height: frame.Mat.Rows(),
		Encode: jpegEncoder(frame.Mat),
	})
	switch {
	case errors.Is(err, tracker.ErrMalformedLandmarks):
		if trkErr := p.trk.ObserveMalformed(frame.Index, frame.Timestamp); trkErr != nil {
			return false, trkErr
		}
	case err != nil:
		if ctx.Err() == nil {
			p.logger.Warn("landmark detection failed, skipping frame",
				slog.Int("frame", frame.Index),
				slog.Any("error", err),
			)
		}
		return false, nil
	default:
		verdict, err = p.trk.Observe(tracker.Observation{Index: frame.Index, At: frame.Timestamp, Faces: faces})
		if err != nil && !errors.Is(err, tracker.ErrMalformedLandmarks) {
			return false, err
		}
	}

	malformed := err != nil
	if malformed {
		p.stats.MalformedFrames++
		p.logger.Warn("malformed landmarks, skipping frame",
			slog.Int("frame", frame.Index),
			slog.Any("error", err),
		)
	}

	if err := p.alerts.raise(frame.Index, verdict.Alerts); err != nil {
		return malformed, err
	}

	drawOverlay(&frame.Mat, verdict.Overlay)

	if err := p.rec.write(frame.Mat); err != nil {
		p.logger.Error("annotated video disabled", slog.Any("error", err))
		_ = p.rec.close()
		p.rec = nil
	}

	if p.display != nil && !p.display.Show(frame.Mat) {
		p.stopped = true
	}
	return malformed, nil
}
