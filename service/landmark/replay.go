package landmark

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/tracker"
)

const maxRecordSize = 4 * 1024 * 1024

// replayService streams precomputed landmarks from a JSON-lines file, one
// record per frame in ascending frame order. Frames without a record have
// no face.
type replayService struct {
	closer  io.Closer
	scanner *bufio.Scanner
	pending *record
	line    int
	eof     bool
}

func NewReplay(path string) (IService, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("open landmark replay %s: %w", path, err)
	}

	svc := newReplay(f)
	svc.closer = f
	return svc, nil
}

func newReplay(r io.Reader) *replayService {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	return &replayService{scanner: scanner}
}

func (svc *replayService) Detect(_ context.Context, frame Frame) ([]tracker.Landmarks, error) {
	for {
		if svc.pending == nil {
			rec, err := svc.next()
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, nil
			}
			svc.pending = rec
		}

		switch {
		case svc.pending.Frame < frame.Index:
			svc.pending = nil
		case svc.pending.Frame > frame.Index:
			return nil, nil
		default:
			rec := svc.pending
			svc.pending = nil
			return rec.landmarks()
		}
	}
}

func (svc *replayService) next() (*record, error) {
	for !svc.eof && svc.scanner.Scan() {
		svc.line++
		line := svc.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			lgr.Logger.Warn("skipping unreadable landmark record",
				slog.Int("line", svc.line),
				slog.Any("error", err),
			)
			continue
		}
		return &rec, nil
	}

	svc.eof = true
	if err := svc.scanner.Err(); err != nil {
		return nil, xerrors.Errorf("read landmark replay line %d: %w", svc.line, err)
	}
	return nil, nil
}

func (svc *replayService) Close() error {
	if svc.closer == nil {
		return nil
	}
	return svc.closer.Close()
}
