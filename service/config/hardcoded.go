package config

import (
	"path/filepath"
	"time"

	"github.com/khaledhikmat/proctor-go/tracker"
)

type hardcodedService struct {
}

func NewHardCoded() IService {
	return &hardcodedService{}
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return 5
}

func (svc *hardcodedService) GetInputVideo() string {
	return "./zoom1.mkv"
}

func (svc *hardcodedService) GetOutputFolder() string {
	return "./output"
}

func (svc *hardcodedService) GetAlertLogFile() string {
	return filepath.Join(svc.GetOutputFolder(), "cheat_log.txt")
}

func (svc *hardcodedService) GetSummaryFile() string {
	return filepath.Join(svc.GetOutputFolder(), "session_summary.txt")
}

func (svc *hardcodedService) GetSummaryJSONFile() string {
	return filepath.Join(svc.GetOutputFolder(), "session_summary.json")
}

// Empty disables the annotated video
func (svc *hardcodedService) GetAnnotatedVideoFile() string {
	return ""
}

func (svc *hardcodedService) GetLandmarkSource() string {
	return LandmarkSourceReplay
}

func (svc *hardcodedService) GetLandmarkReplayFile() string {
	return "./zoom1.landmarks.jsonl"
}

func (svc *hardcodedService) GetLandmarkWorkerCommand() []string {
	return []string{"python3", "./facemesh/worker.py"}
}

func (svc *hardcodedService) GetLandmarkWorkerTimeout() time.Duration {
	return 2 * time.Second
}

func (svc *hardcodedService) GetFrameQueueSize() int {
	return 100
}

// Used when the container does not report a frame rate
func (svc *hardcodedService) GetDefaultFPS() float64 {
	return 30
}

func (svc *hardcodedService) GetMetricsAddr() string {
	return ""
}

func (svc *hardcodedService) GetTrackerConfig() tracker.Config {
	return tracker.DefaultConfig()
}
