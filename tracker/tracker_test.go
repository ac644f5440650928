package tracker

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuousGaze(t *testing.T) {
	t.Run("isolated drifting frame counts one frame interval", func(t *testing.T) {
		trk := newTracker(t, nil)

		verdicts := feed(trk, obs(0, face(drifting)), obs(1, face()))

		totals := trk.Totals()
		assert.Equal(t, 1, totals.GazeViolations)
		assert.Equal(t, frameInterval, totals.GazeTime)
		assert.Equal(t, OverlayGaze, verdicts[0].Overlay)
		require.Len(t, verdicts[0].Alerts, 1)
		assert.Equal(t, KindGaze, verdicts[0].Alerts[0].Kind)
		assert.Empty(t, verdicts[1].Overlay)
	})

	t.Run("alerts every drifting frame of one episode", func(t *testing.T) {
		trk := newTracker(t, nil)

		verdicts := feed(trk,
			obs(0, face(drifting)),
			obs(1, face(drifting)),
			obs(2, face(drifting)),
			obs(3, face()),
		)

		alerts := 0
		for _, v := range verdicts {
			alerts += len(v.Alerts)
		}
		assert.Equal(t, 3, alerts)
		assert.Equal(t, 1, trk.Totals().GazeViolations)
		assert.Equal(t, 3*frameInterval, trk.Totals().GazeTime)
	})

	t.Run("open episode is not counted before finalize", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face()), obs(1, face(drifting)), obs(2, face(drifting)))

		assert.Zero(t, trk.Totals().GazeTime)

		totals := trk.Finalize(frameAt(5))
		assert.Equal(t, 4*frameInterval, totals.GazeTime)
		assert.Equal(t, 1, totals.GazeViolations)
	})

	t.Run("faceless frames keep the episode open", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face(drifting)), obs(1), obs(2), obs(3, face()))

		assert.Equal(t, 3*frameInterval, trk.Totals().GazeTime)
		assert.Equal(t, 1, trk.Totals().GazeViolations)
	})
}

func TestWindowedGaze(t *testing.T) {
	windowed := func(c *Config) { c.Strategy = StrategyWindowed }

	t.Run("stale events are evicted", func(t *testing.T) {
		trk := newTracker(t, windowed)

		// two drifts, then the third lands more than ten seconds later
		verdicts := feed(trk,
			obs(0, face(drifting)),
			obs(1, face(drifting)),
			obs(102, face(drifting)),
		)

		assert.Zero(t, trk.Totals().GazeViolations)
		assert.Zero(t, trk.Totals().GazeTime)
		for _, v := range verdicts {
			assert.Empty(t, v.Alerts)
		}
	})

	t.Run("threshold within window declares one violation", func(t *testing.T) {
		trk := newTracker(t, windowed)

		verdicts := feed(trk,
			obs(0, face(drifting)),
			obs(1, face()),
			obs(2, face(drifting)),
			obs(3, face(drifting)),
			obs(4, face(drifting)),
		)

		totals := trk.Totals()
		assert.Equal(t, 1, totals.GazeViolations)
		assert.Equal(t, DefaultEyeWindowPenalty, totals.GazeTime)
		require.Len(t, verdicts[3].Alerts, 1)
		assert.Equal(t, OverlayGaze, verdicts[3].Overlay)
		assert.Empty(t, verdicts[4].Alerts, "queue is cleared after a violation")
	})

	t.Run("finalize adds nothing", func(t *testing.T) {
		trk := newTracker(t, windowed)
		feed(trk, obs(0, face(drifting)), obs(1, face(drifting)))

		totals := trk.Finalize(frameAt(50))
		assert.Zero(t, totals.GazeTime)
		assert.Equal(t, StrategyWindowed, totals.Strategy)
	})
}

func TestHeadTurnDebounce(t *testing.T) {
	run := func(turnedFrames int) (SessionTotals, Verdict) {
		trk := newTracker(t, nil)
		var observations []Observation
		for i := 0; i < turnedFrames; i++ {
			observations = append(observations, obs(i, face(turned)))
		}
		observations = append(observations, obs(turnedFrames, face()))
		verdicts := feed(trk, observations...)
		return trk.Totals(), verdicts[len(verdicts)-1]
	}

	totals, last := run(4)
	assert.Zero(t, totals.HeadTurnViolations)
	assert.Empty(t, last.Alerts)

	totals, last = run(5)
	assert.Equal(t, 1, totals.HeadTurnViolations)
	assert.Equal(t, OverlayHeadTurn, last.Overlay)
	require.Len(t, last.Alerts, 1)
	assert.Equal(t, "Head turn detected", last.Alerts[0].Message)

	t.Run("turned frames do not alert on their own", func(t *testing.T) {
		trk := newTracker(t, nil)
		for _, v := range feed(trk, obs(0, face(turned)), obs(1, face(turned))) {
			assert.Empty(t, v.Alerts)
		}
	})

	t.Run("head turn overlay wins over gaze", func(t *testing.T) {
		trk := newTracker(t, func(c *Config) { c.HeadTurnFrameThreshold = 1 })
		verdicts := feed(trk, obs(0, face(turned)), obs(1, face(drifting)))
		assert.Equal(t, OverlayHeadTurn, verdicts[1].Overlay)
		assert.Len(t, verdicts[1].Alerts, 2)
	})
}

func TestFaceAbsence(t *testing.T) {
	t.Run("log is rate limited within the interval", func(t *testing.T) {
		trk := newTracker(t, nil)

		lines := 0
		for i := 0; i < 100; i++ {
			v, err := trk.Observe(Observation{Index: i, At: time.Duration(i) * 10 * time.Millisecond})
			require.NoError(t, err)
			assert.Equal(t, OverlayNoFace, v.Overlay)
			lines += len(v.Alerts)
		}
		assert.Equal(t, 1, lines)
	})

	t.Run("log repeats past the interval", func(t *testing.T) {
		trk := newTracker(t, nil)

		lines := 0
		for i := 0; i < 100; i++ {
			v, _ := trk.Observe(obs(i))
			lines += len(v.Alerts)
		}
		// 9.9s of absence: logs at 0s and 5.1s
		assert.Equal(t, 2, lines)
	})

	t.Run("reappearance closes the episode", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face()), obs(1), obs(2), obs(3, face()), obs(4), obs(5, face()))

		totals := trk.Totals()
		assert.Equal(t, 2, totals.AbsenceViolations)
		assert.Equal(t, 3*frameInterval, totals.AbsenceTime)
	})

	t.Run("rate limit spans episodes", func(t *testing.T) {
		trk := newTracker(t, nil)
		verdicts := feed(trk, obs(0), obs(1, face()), obs(2))
		assert.Len(t, verdicts[0].Alerts, 1)
		assert.Empty(t, verdicts[2].Alerts)
	})

	t.Run("open episode is flushed at end of stream", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face()), obs(1), obs(2))

		totals := trk.Finalize(frameAt(4))
		assert.Equal(t, 1, totals.AbsenceViolations)
		assert.Equal(t, 3*frameInterval, totals.AbsenceTime)
	})
}

func TestMalformedLandmarksSkipFrame(t *testing.T) {
	trk := newTracker(t, nil)

	feed(trk, obs(0, face(turned)), obs(1, face(turned)), obs(2, face(turned)), obs(3, face(turned)))
	v, err := trk.Observe(obs(4, face()[:300]))
	require.ErrorIs(t, err, ErrMalformedLandmarks)
	assert.Empty(t, v.Alerts)

	// the run of turned frames survives the malformed frame
	feed(trk, obs(5, face(turned)), obs(6, face()))

	totals := trk.Totals()
	assert.Equal(t, 1, totals.MalformedFrames)
	assert.Equal(t, 1, totals.HeadTurnViolations)
	assert.Equal(t, 7, totals.Frames)
}

func TestObserveMalformed(t *testing.T) {
	trk := newTracker(t, nil)

	feed(trk, obs(0, face()), obs(1), obs(2))
	require.NoError(t, trk.ObserveMalformed(3, frameAt(3)))
	feed(trk, obs(4, face()))

	// the absence episode spans the undecodable frame
	totals := trk.Finalize(frameAt(5))
	assert.Equal(t, 5, totals.Frames)
	assert.Equal(t, 1, totals.MalformedFrames)
	assert.Equal(t, 1, totals.AbsenceViolations)
	assert.Equal(t, 300*time.Millisecond, totals.AbsenceTime)
	assert.Equal(t, frameAt(5), totals.Duration())

	require.ErrorIs(t, trk.ObserveMalformed(6, frameAt(6)), ErrFinalized)

	trk = newTracker(t, nil)
	feed(trk, obs(4, face()))
	require.ErrorIs(t, trk.ObserveMalformed(3, frameAt(3)), ErrOutOfOrder)
	assert.Zero(t, trk.Totals().MalformedFrames)
}

func TestObserveOrdering(t *testing.T) {
	trk := newTracker(t, nil)
	_, err := trk.Observe(obs(5, face()))
	require.NoError(t, err)

	_, err = trk.Observe(obs(4, face()))
	require.ErrorIs(t, err, ErrOutOfOrder)

	trk.Finalize(frameAt(6))
	_, err = trk.Observe(obs(7, face()))
	require.ErrorIs(t, err, ErrFinalized)
}

func TestFinalize(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face(drifting)), obs(1))

		first := trk.Finalize(frameAt(3))
		second := trk.Finalize(frameAt(30))
		assert.Equal(t, first, second)
		assert.Equal(t, first, trk.Totals())
	})

	t.Run("end before last frame is clamped", func(t *testing.T) {
		trk := newTracker(t, nil)
		feed(trk, obs(0, face()), obs(3))

		totals := trk.Finalize(frameAt(1))
		assert.Equal(t, frameAt(3), totals.End)
		assert.Zero(t, totals.AbsenceTime)
		assert.Equal(t, 1, totals.AbsenceViolations)
	})

	t.Run("empty session", func(t *testing.T) {
		trk := newTracker(t, nil)
		totals := trk.Finalize(0)
		assert.Zero(t, totals.Duration())
		assert.Zero(t, totals.Frames)
	})
}

func TestKnownSequence(t *testing.T) {
	trk := newTracker(t, nil)

	verdicts := feed(trk,
		obs(0, face()),
		obs(1, face(drifting)),
		obs(2, face(drifting)),
		obs(3, face()),
		obs(4, face(turned)),
		obs(5, face(turned)),
		obs(6, face(turned)),
		obs(7, face(turned)),
		obs(8, face(turned)),
		obs(9, face()),
		obs(10),
		obs(11),
		obs(12, face()),
		obs(13, face(drifting)),
	)
	totals := trk.Finalize(frameAt(15))

	want := SessionTotals{
		Strategy:           StrategyContinuous,
		Start:              0,
		End:                1500 * time.Millisecond,
		Frames:             14,
		GazeViolations:     2,
		GazeTime:           400 * time.Millisecond,
		HeadTurnViolations: 1,
		AbsenceViolations:  1,
		AbsenceTime:        200 * time.Millisecond,
	}
	if diff := cmp.Diff(want, totals); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}

	var kinds []Kind
	for _, v := range verdicts {
		for _, a := range v.Alerts {
			kinds = append(kinds, a.Kind)
		}
	}
	assert.Equal(t, []Kind{KindGaze, KindGaze, KindHeadTurn, KindNoFace, KindGaze}, kinds)
}

func TestCheatingTimeNeverExceedsSession(t *testing.T) {
	t.Run("overlapping gaze and absence are capped", func(t *testing.T) {
		trk := newTracker(t, nil)
		observations := []Observation{obs(0, face(drifting))}
		for i := 1; i < 10; i++ {
			observations = append(observations, obs(i))
		}
		feed(trk, observations...)

		totals := trk.Finalize(frameAt(10))
		assert.Greater(t, totals.GazeTime+totals.AbsenceTime, totals.Duration())
		assert.Equal(t, totals.Duration(), totals.CheatingTime())
		assert.InDelta(t, 100.0, totals.Report().CheatingPercent, 1e-9)
	})

	t.Run("random sequences", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		variants := []func() []Landmarks{
			func() []Landmarks { return nil },
			func() []Landmarks { return []Landmarks{face()} },
			func() []Landmarks { return []Landmarks{face(drifting)} },
			func() []Landmarks { return []Landmarks{face(turned)} },
			func() []Landmarks { return []Landmarks{face(drifting, turned)} },
		}

		for run := 0; run < 200; run++ {
			strategy := StrategyContinuous
			if run%2 == 1 {
				strategy = StrategyWindowed
			}
			trk := newTracker(t, func(c *Config) { c.Strategy = strategy })

			n := 1 + rng.Intn(300)
			for i := 0; i < n; i++ {
				_, err := trk.Observe(Observation{Index: i, At: frameAt(i), Faces: variants[rng.Intn(len(variants))]()})
				require.NoError(t, err)
			}
			totals := trk.Finalize(frameAt(n))

			assert.LessOrEqual(t, totals.CheatingTime(), totals.Duration())
			assert.LessOrEqual(t, totals.Report().CheatingPercent, 100.0)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Strategy = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.HeadTurnFrameThreshold = 0
	assert.Error(t, cfg.Validate())

	_, err := New(cfg)
	assert.Error(t, err)
}
