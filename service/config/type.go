package config

import (
	"time"

	"github.com/khaledhikmat/proctor-go/tracker"
)

const (
	LandmarkSourceReplay = "replay"
	LandmarkSourceWorker = "worker"
)

type IService interface {
	GetModeMaxShutdownTime() int
	GetInputVideo() string
	GetOutputFolder() string
	GetAlertLogFile() string
	GetSummaryFile() string
	GetSummaryJSONFile() string
	GetAnnotatedVideoFile() string
	GetLandmarkSource() string
	GetLandmarkReplayFile() string
	GetLandmarkWorkerCommand() []string
	GetLandmarkWorkerTimeout() time.Duration
	GetFrameQueueSize() int
	GetDefaultFPS() float64
	GetMetricsAddr() string
	GetTrackerConfig() tracker.Config
}
