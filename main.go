package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/mode"
	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/pipeline"
	"github.com/khaledhikmat/proctor-go/service/config"
	"github.com/khaledhikmat/proctor-go/service/data"
	"github.com/khaledhikmat/proctor-go/service/landmark"
	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/service/metrics"
)

var modeProcessors = map[string]mode.Processor{
	"analyze": mode.Analyze,
	"review":  mode.Review,
}

// usage: proctor [analyze|review] [video]
func main() {
	os.Exit(run())
}

func run() int {
	rootCtx := context.Background()
	canxCtx, canxFn := context.WithCancel(rootCtx)
	defer canxFn()

	// Hook up a signal handler to cancel the context
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		lgr.Logger.Info(
			"received kill signal",
			slog.Any("signal", sig),
		)
		canxFn()
	}()

	// Load env vars if we are in DEV mode
	if os.Getenv("RUN_TIME_ENV") == "dev" || os.Getenv("RUN_TIME_ENV") == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			lgr.Logger.Error("error loading .env file", slog.Any("error", xerrors.New(err.Error())))
			return 1
		}
	}

	modeType := "analyze"
	args := os.Args[1:]
	if len(args) > 0 {
		modeType = args[0]
	}

	modeProc, ok := modeProcessors[modeType]
	if !ok {
		lgr.Logger.Error("invalid mode", slog.String("mode", modeType))
		return 2
	}

	cfgSvc := config.NewEnv()

	source := cfgSvc.GetInputVideo()
	if len(args) > 1 {
		source = args[1]
	}
	session := model.NewSession(source)

	// Data service
	dataSvc, err := data.NewFiles(cfgSvc, session)
	if err != nil {
		lgr.Logger.Error("error opening outputs", slog.Any("error", err))
		return 1
	}
	defer dataSvc.Close()

	// Landmark service
	landmarkSvc, err := newLandmarkService(canxCtx, cfgSvc)
	if err != nil {
		lgr.Logger.Error("error starting landmark model", slog.Any("error", err))
		return 1
	}
	defer landmarkSvc.Close()

	// Metrics service
	metricsSvc := metrics.New()
	metricsSvc.Serve(canxCtx, cfgSvc.GetMetricsAddr())

	svcs := pipeline.ServicesFactory{
		CfgSvc:      cfgSvc,
		DataSvc:     dataSvc,
		LandmarkSvc: landmarkSvc,
		Metrics:     metricsSvc,
	}

	lgr.Logger.Info("proctor starting",
		slog.String("mode", modeType),
		slog.String("session", session.ID),
		slog.String("source", source),
	)

	// Create mode processor result
	modeProcResult := make(chan error, 1)

	// Start the mode processor
	go func() {
		modeProcResult <- modeProc(canxCtx, svcs, session)
	}()

	// The mode processor finalizes the session on cancellation, so after a
	// signal we still wait for it, but only up to the shutdown period
	select {
	case err := <-modeProcResult:
		return exitCode(err)
	case <-canxCtx.Done():
	}

	shutdown := time.Duration(cfgSvc.GetModeMaxShutdownTime()) * time.Second
	lgr.Logger.Info(
		"proctor is waiting for the mode processor to finalize",
		slog.Duration("period", shutdown),
	)

	timer := time.NewTimer(shutdown)
	defer timer.Stop()

	select {
	case err := <-modeProcResult:
		return exitCode(err)
	case <-timer.C:
		lgr.Logger.Warn(
			"proctor shutdown waiting period expired. Exiting now",
			slog.Duration("period", shutdown),
		)
		return 1
	}
}

func newLandmarkService(canxCtx context.Context, cfgSvc config.IService) (landmark.IService, error) {
	switch cfgSvc.GetLandmarkSource() {
	case config.LandmarkSourceReplay:
		return landmark.NewReplay(cfgSvc.GetLandmarkReplayFile())
	case config.LandmarkSourceWorker:
		return landmark.NewWorker(canxCtx, cfgSvc.GetLandmarkWorkerCommand(), cfgSvc.GetLandmarkWorkerTimeout())
	}
	return nil, xerrors.Errorf("unknown landmark source %q", cfgSvc.GetLandmarkSource())
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	lgr.Logger.Error(
		"proctor mode processor exited",
		slog.Any("error", err),
	)
	return 1
}
