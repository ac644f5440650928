package tracker

import (
	"time"

	"golang.org/x/xerrors"
)

const (
	DefaultGazeDriftThreshold     = 0.03
	DefaultHeadTurnThreshold      = 0.08
	DefaultHeadTurnFrameThreshold = 5
	DefaultEyeViolationThreshold  = 3
	DefaultEyeWindowDuration      = 10 * time.Second
	DefaultLogInterval            = 5 * time.Second
	DefaultEyeWindowPenalty       = 2 * time.Second
)

type StrategyName string

const (
	StrategyContinuous StrategyName = "continuous"
	StrategyWindowed   StrategyName = "windowed"
)

type Config struct {
	Strategy               StrategyName
	GazeDriftThreshold     float64
	HeadTurnThreshold      float64
	HeadTurnFrameThreshold int
	EyeViolationThreshold  int
	EyeWindowDuration      time.Duration
	LogInterval            time.Duration
	EyeWindowPenalty       time.Duration
}

func DefaultConfig() Config {
	return Config{
		Strategy:               StrategyContinuous,
		GazeDriftThreshold:     DefaultGazeDriftThreshold,
		HeadTurnThreshold:      DefaultHeadTurnThreshold,
		HeadTurnFrameThreshold: DefaultHeadTurnFrameThreshold,
		EyeViolationThreshold:  DefaultEyeViolationThreshold,
		EyeWindowDuration:      DefaultEyeWindowDuration,
		LogInterval:            DefaultLogInterval,
		EyeWindowPenalty:       DefaultEyeWindowPenalty,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Strategy != StrategyContinuous && c.Strategy != StrategyWindowed:
		return xerrors.Errorf("unknown gaze strategy %q", c.Strategy)
	case c.GazeDriftThreshold <= 0:
		return xerrors.New("gaze drift threshold must be positive")
	case c.HeadTurnThreshold <= 0:
		return xerrors.New("head turn threshold must be positive")
	case c.HeadTurnFrameThreshold < 1:
		return xerrors.New("head turn frame threshold must be at least 1")
	case c.EyeViolationThreshold < 1:
		return xerrors.New("eye violation threshold must be at least 1")
	case c.EyeWindowDuration <= 0:
		return xerrors.New("eye window duration must be positive")
	case c.LogInterval < 0:
		return xerrors.New("log interval must not be negative")
	case c.EyeWindowPenalty < 0:
		return xerrors.New("eye window penalty must not be negative")
	}
	return nil
}
