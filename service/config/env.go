package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

// envService reads overrides from the environment and falls back to the
// hardcoded defaults. Unparseable values are logged and ignored.
type envService struct {
	defaults IService
	lookup   func(string) (string, bool)
}

func NewEnv() IService {
	return newEnv(os.LookupEnv)
}

func newEnv(lookup func(string) (string, bool)) IService {
	return &envService{
		defaults: NewHardCoded(),
		lookup:   lookup,
	}
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return svc.integer("PROCTOR_SHUTDOWN_SECONDS", svc.defaults.GetModeMaxShutdownTime())
}

func (svc *envService) GetInputVideo() string {
	return svc.str("PROCTOR_VIDEO", svc.defaults.GetInputVideo())
}

func (svc *envService) GetOutputFolder() string {
	return svc.str("PROCTOR_OUTPUT_FOLDER", svc.defaults.GetOutputFolder())
}

func (svc *envService) GetAlertLogFile() string {
	return svc.str("PROCTOR_ALERT_LOG", filepath.Join(svc.GetOutputFolder(), "cheat_log.txt"))
}

func (svc *envService) GetSummaryFile() string {
	return svc.str("PROCTOR_SUMMARY", filepath.Join(svc.GetOutputFolder(), "session_summary.txt"))
}

func (svc *envService) GetSummaryJSONFile() string {
	return svc.str("PROCTOR_SUMMARY_JSON", filepath.Join(svc.GetOutputFolder(), "session_summary.json"))
}

func (svc *envService) GetAnnotatedVideoFile() string {
	return svc.str("PROCTOR_ANNOTATED_VIDEO", svc.defaults.GetAnnotatedVideoFile())
}

func (svc *envService) GetLandmarkSource() string {
	return svc.str("PROCTOR_LANDMARK_SOURCE", svc.defaults.GetLandmarkSource())
}

func (svc *envService) GetLandmarkReplayFile() string {
	return svc.str("PROCTOR_LANDMARK_FILE", svc.defaults.GetLandmarkReplayFile())
}

func (svc *envService) GetLandmarkWorkerCommand() []string {
	v, ok := svc.lookup("PROCTOR_LANDMARK_WORKER")
	if !ok || strings.TrimSpace(v) == "" {
		return svc.defaults.GetLandmarkWorkerCommand()
	}
	return strings.Fields(v)
}

func (svc *envService) GetLandmarkWorkerTimeout() time.Duration {
	return svc.seconds("PROCTOR_LANDMARK_TIMEOUT", svc.defaults.GetLandmarkWorkerTimeout())
}

func (svc *envService) GetFrameQueueSize() int {
	return svc.integer("PROCTOR_FRAME_QUEUE", svc.defaults.GetFrameQueueSize())
}

func (svc *envService) GetDefaultFPS() float64 {
	return svc.number("PROCTOR_DEFAULT_FPS", svc.defaults.GetDefaultFPS())
}

func (svc *envService) GetMetricsAddr() string {
	return svc.str("PROCTOR_METRICS_ADDR", svc.defaults.GetMetricsAddr())
}

func (svc *envService) GetTrackerConfig() tracker.Config {
	cfg := svc.defaults.GetTrackerConfig()
	cfg.Strategy = tracker.StrategyName(svc.str("PROCTOR_GAZE_STRATEGY", string(cfg.Strategy)))
	cfg.GazeDriftThreshold = svc.number("GAZE_DRIFT_THRESHOLD", cfg.GazeDriftThreshold)
	cfg.HeadTurnThreshold = svc.number("HEAD_TURN_THRESHOLD", cfg.HeadTurnThreshold)
	cfg.HeadTurnFrameThreshold = svc.integer("HEAD_TURN_FRAME_THRESHOLD", cfg.HeadTurnFrameThreshold)
	cfg.EyeViolationThreshold = svc.integer("EYE_VIOLATION_THRESHOLD", cfg.EyeViolationThreshold)
	cfg.EyeWindowDuration = svc.seconds("EYE_WINDOW_DURATION", cfg.EyeWindowDuration)
	cfg.LogInterval = svc.seconds("LOG_INTERVAL", cfg.LogInterval)
	cfg.EyeWindowPenalty = svc.seconds("EYE_WINDOW_PENALTY_SECONDS", cfg.EyeWindowPenalty)
	return cfg
}

func (svc *envService) str(key, def string) string {
	if v, ok := svc.lookup(key); ok && v != "" {
		return v
	}
	return def
}

func (svc *envService) integer(key string, def int) int {
	v, ok := svc.lookup(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		lgr.Logger.Warn("invalid integer setting, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Int("default", def),
		)
		return def
	}
	return n
}

func (svc *envService) number(key string, def float64) float64 {
	v, ok := svc.lookup(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		lgr.Logger.Warn("invalid number setting, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Float64("default", def),
		)
		return def
	}
	return f
}

// seconds accepts either a plain number of seconds or a Go duration
func (svc *envService) seconds(key string, def time.Duration) time.Duration {
	v, ok := svc.lookup(key)
	if !ok || v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		lgr.Logger.Warn("invalid duration setting, using default",
			slog.String("key", key),
			slog.String("value", v),
			slog.Duration("default", def),
		)
		return def
	}
	return time.Duration(f * float64(time.Second))
}
