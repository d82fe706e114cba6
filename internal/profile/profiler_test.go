package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureElapsedWithinTolerance(t *testing.T) {
	p := New(10 * time.Millisecond)

	m, err := p.Measure(func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, float64(m.Elapsed.Milliseconds()), 50, "elapsed should be within ±50ms of the sleep")
}

func TestMeasureReportsPeakMemory(t *testing.T) {
	p := New(5 * time.Millisecond)

	var ballast [][]byte
	m, err := p.Measure(func() error {
		// Hold a visible allocation across several sampling intervals.
		for i := 0; i < 16; i++ {
			ballast = append(ballast, make([]byte, 1<<20))
			time.Sleep(2 * time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)
	_ = ballast

	assert.Greater(t, m.PeakMemoryMiB, 0.0, "a live process always has resident memory")
	assert.GreaterOrEqual(t, m.Samples, 1)
}

func TestMeasurePropagatesErrorAfterSamplerRelease(t *testing.T) {
	p := New(5 * time.Millisecond)
	boom := errors.New("workload failed")

	m, err := p.Measure(func() error { return boom })
	assert.ErrorIs(t, err, boom)
	// The measurement is still fully formed even when the callable fails.
	assert.GreaterOrEqual(t, m.Samples, 1)
}

func TestMeasureZeroDurationCallableStillSamples(t *testing.T) {
	p := New(time.Hour) // interval never fires; final poll must cover it
	m, err := p.Measure(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, m.Samples)
	assert.Greater(t, m.PeakMemoryMiB, 0.0)
}

func TestMeasureValue(t *testing.T) {
	p := New(0)
	got, m, err := MeasureValue(p, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Greater(t, m.PeakMemoryMiB, 0.0)
}

func TestNewDefaultsInterval(t *testing.T) {
	p := New(-1)
	assert.Equal(t, DefaultSampleInterval, p.interval)
}
