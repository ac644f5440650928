package pipeline

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/proctor-go/service/config"
	"github.com/khaledhikmat/proctor-go/service/data"
	"github.com/khaledhikmat/proctor-go/service/landmark"
	"github.com/khaledhikmat/proctor-go/service/metrics"
)

// FrameData is one decoded frame. Timestamp is the video presentation time,
// not the time it was read. The receiver owns Mat and must close it.
type FrameData struct {
	Mat       gocv.Mat
	Index     int
	Timestamp time.Duration
}

type ServicesFactory struct {
	CfgSvc      config.IService
	DataSvc     data.IService
	LandmarkSvc landmark.IService
	Metrics     *metrics.Metrics
}

// Display shows annotated frames as they are processed. Show returns false
// when the viewer asks to stop.
type Display interface {
	Show(mat gocv.Mat) bool
	Close() error
}
