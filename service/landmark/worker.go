package landmark

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

type workerRequest struct {
	Frame  int    `json:"frame"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Image  string `json:"image"`
}

type workerLine struct {
	data []byte
	err  error
}

// workerService runs the face-mesh model as a subprocess. Each request is
// one JSON line on stdin, carrying a base64 JPEG. Each response is one
// record line on stdout.
type workerService struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan workerLine
	timeout time.Duration
	done    chan struct{}
	readers sync.WaitGroup
	once    sync.Once
}

func NewWorker(ctx context.Context, command []string, timeout time.Duration) (IService, error) {
	if len(command) == 0 {
		return nil, xerrors.New("landmark worker command is empty")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, xerrors.Errorf("landmark worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, xerrors.Errorf("landmark worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, xerrors.Errorf("landmark worker stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, xerrors.Errorf("start landmark worker %s: %w", command[0], err)
	}

	lgr.Logger.Info("landmark worker started",
		slog.String("command", strings.Join(command, " ")),
		slog.Int("pid", cmd.Process.Pid),
	)

	svc := &workerService{
		cmd:     cmd,
		stdin:   stdin,
		lines:   make(chan workerLine, 1),
		timeout: timeout,
		done:    make(chan struct{}),
	}

	// Wait closes the pipes, so it must follow the readers
	svc.readers.Add(2)
	go svc.readResults(stdout)
	go svc.logStderr(stderr)
	go svc.waitProcess()

	return svc, nil
}

func (svc *workerService) Detect(ctx context.Context, frame Frame) ([]tracker.Landmarks, error) {
	req := workerRequest{
		Frame:  frame.Index,
		Width:  frame.Width,
		Height: frame.Height,
	}
	if frame.Encode != nil {
		img, err := frame.Encode()
		if err != nil {
			return nil, xerrors.Errorf("encode frame %d: %w", frame.Index, err)
		}
		req.Image = base64.StdEncoding.EncodeToString(img)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, xerrors.Errorf("marshal frame %d: %w", frame.Index, err)
	}
	if _, err := svc.stdin.Write(append(payload, '\n')); err != nil {
		return nil, xerrors.Errorf("send frame %d to landmark worker: %w", frame.Index, err)
	}

	timer := time.NewTimer(svc.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, xerrors.Errorf("landmark worker timed out on frame %d after %s", frame.Index, svc.timeout)
		case line, ok := <-svc.lines:
			if !ok {
				return nil, xerrors.New("landmark worker exited")
			}
			if line.err != nil {
				return nil, line.err
			}

			var rec record
			if err := json.Unmarshal(line.data, &rec); err != nil {
				return nil, xerrors.Errorf("decode landmark worker response: %w", err)
			}
			// A reply for an earlier frame arrived after that frame timed out.
			if rec.Frame < frame.Index {
				lgr.Logger.Debug("discarding late landmark reply",
					slog.Int("frame", rec.Frame),
					slog.Int("waiting", frame.Index))
				continue
			}
			if rec.Frame != frame.Index {
				return nil, xerrors.Errorf("landmark worker answered frame %d for frame %d", rec.Frame, frame.Index)
			}
			return rec.landmarks()
		}
	}
}

func (svc *workerService) readResults(stdout io.Reader) {
	defer svc.readers.Done()
	defer close(svc.lines)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	for scanner.Scan() {
		data := append([]byte(nil), scanner.Bytes()...)
		select {
		case svc.lines <- workerLine{data: data}:
		case <-svc.done:
			return
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case svc.lines <- workerLine{err: xerrors.Errorf("read landmark worker: %w", err)}:
		case <-svc.done:
		}
	}
}

func (svc *workerService) logStderr(stderr io.Reader) {
	defer svc.readers.Done()

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"):
			lgr.Logger.Error("landmark worker", slog.String("line", line))
		case strings.Contains(line, "[WARNING]"), strings.Contains(line, "[WARN]"):
			lgr.Logger.Warn("landmark worker", slog.String("line", line))
		default:
			lgr.Logger.Debug("landmark worker", slog.String("line", line))
		}
	}
}

func (svc *workerService) waitProcess() {
	svc.readers.Wait()
	err := svc.cmd.Wait()
	select {
	case <-svc.done:
		lgr.Logger.Debug("landmark worker stopped")
	default:
		if err != nil {
			lgr.Logger.Error("landmark worker exited unexpectedly", slog.Any("error", err))
		}
	}
}

// Close asks the worker to exit by closing its stdin and kills it if it
// has not exited within the timeout.
func (svc *workerService) Close() error {
	var first bool
	svc.once.Do(func() { first = true })
	if !first {
		return nil
	}

	close(svc.done)
	_ = svc.stdin.Close()

	exited := make(chan struct{})
	go func() {
		for range svc.lines {
		}
		close(exited)
	}()

	select {
	case <-exited:
		return nil
	case <-time.After(svc.timeout):
		lgr.Logger.Warn("landmark worker did not exit, killing it")
		return svc.cmd.Process.Kill()
	}
}
