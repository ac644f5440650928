package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/service/lgr"
	"github.com/khaledhikmat/proctor-go/service/metrics"
	"github.com/khaledhikmat/proctor-go/tracker"
)

func TestAlerterLogsSessionOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := lgr.New("info", &buf).With(slog.String("session", "session-1"))

	data := &fakeData{}
	svcs := ServicesFactory{DataSvc: data, Metrics: metrics.New()}
	a := newAlerter(svcs, logger)

	err := a.raise(7, []tracker.Alert{{At: 700 * time.Millisecond, Kind: tracker.KindHeadTurn, Message: "Head turn detected"}})
	require.NoError(t, err)

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, `"session"`))
	assert.Contains(t, line, `"frame":7`)
	assert.Len(t, data.alerts, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(svcs.Metrics.Alerts.WithLabelValues(string(tracker.KindHeadTurn))))
}

func TestAlerterSinkFailure(t *testing.T) {
	svcs := ServicesFactory{DataSvc: &fakeData{failAlerts: true}}
	a := newAlerter(svcs, nil)

	err := a.raise(3, []tracker.Alert{{Kind: tracker.KindNoFace, Message: "No face detected"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSinkWriteFailure))
}
