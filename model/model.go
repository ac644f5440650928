package model

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	stackerr "github.com/mdobak/go-xerrors"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

var (
	// ErrSourceUnavailable means the video source could not be opened. It is
	// always returned before any frame is processed.
	ErrSourceUnavailable = xerrors.New("video source unavailable")
	// ErrSinkWriteFailure means an alert log or summary could not be written.
	ErrSinkWriteFailure = xerrors.New("sink write failure")
)

// SourceError marks err as ErrSourceUnavailable and records the caller's stack.
func SourceError(err error) error {
	return stackerr.WithStackTrace(stackerr.WithWrapper(ErrSourceUnavailable, err), 1)
}

// SinkError marks err as ErrSinkWriteFailure and records the caller's stack.
func SinkError(err error) error {
	return stackerr.WithStackTrace(stackerr.WithWrapper(ErrSinkWriteFailure, err), 1)
}

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	if err != nil && len(stackerr.StackTrace(err)) == 0 {
		err = stackerr.WithStackTrace(err, 1)
	}
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Session identifies one proctoring run over one video
type Session struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"startedAt"`
}

func NewSession(source string) Session {
	return Session{
		ID:        uuid.NewString(),
		Source:    source,
		StartedAt: time.Now(),
	}
}

// Context carries the session as the trace of ctx so every log line of the
// run can be correlated. The trace id is the session uuid.
func (s Session) Context(ctx context.Context) context.Context {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return ctx
	}

	var span trace.SpanID
	copy(span[:], id[8:])
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID(id),
		SpanID:     span,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(ctx, sc)
}

type FramerStats struct {
	Name      string  `json:"name"`
	Source    string  `json:"source"`
	FPS       float64 `json:"fps"`
	Frames    int     `json:"frames"`
	Errors    int     `json:"errors"`
	Uptime    int64   `json:"uptime"`
	Timestamp int64   `json:"timestamp"`
}

type ProctorStats struct {
	Name            string  `json:"name"`
	Session         string  `json:"session"`
	Frames          int     `json:"frames"`
	MalformedFrames int     `json:"malformedFrames"`
	Alerts          int     `json:"alerts"`
	Uptime          int64   `json:"uptime"`
	AvgProcTime     float64 `json:"avgProcTime"`
	Timestamp       int64   `json:"timestamp"`
}
