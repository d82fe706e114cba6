package profile

import (
	"time"
)

// DefaultSampleInterval is how often resident memory is polled during a
// measured invocation. Frequent enough to catch pool workers that live for
// fractions of a second, cheap enough to stay negligible next to the
// workload.
const DefaultSampleInterval = 50 * time.Millisecond

// Measurement is the profile of one wrapped invocation.
type Measurement struct {
	Elapsed       time.Duration
	PeakMemoryMiB float64
	// Samples counts memory polls taken during the invocation, including
	// the final poll at completion. Zero-duration callables still get one.
	Samples int
}

// Profiler measures wall time and peak resident memory of callables, one at
// a time. A Profiler is not safe for concurrent measurements: its sampling is
// scoped to exactly one invocation's lifetime, and overlapping invocations
// would corrupt the attribution.
type Profiler struct {
	interval time.Duration
	reader   memoryReader
}

// New creates a profiler polling memory at the given interval. A
// non-positive interval selects DefaultSampleInterval.
func New(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &Profiler{interval: interval, reader: newMemoryReader()}
}

// Measure runs fn, timing exactly the call itself while a background
// goroutine samples resident memory. The callable's error is always
// propagated after the sampler has been released; it is never swallowed.
func (p *Profiler) Measure(fn func() error) (Measurement, error) {
	stop := make(chan struct{})
	done := make(chan peak, 1)
	go p.sample(stop, done)

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(stop)
	result := <-done

	return Measurement{
		Elapsed:       elapsed,
		PeakMemoryMiB: result.mib,
		Samples:       result.samples,
	}, err
}

type peak struct {
	mib     float64
	samples int
}

// sample polls until stopped, then reports the maximum observed sample. One
// final poll runs after stop so even sub-interval callables get a reading.
func (p *Profiler) sample(stop <-chan struct{}, done chan<- peak) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var result peak
	observe := func() {
		if mib := p.reader.ResidentMiB(); mib > result.mib {
			result.mib = mib
		}
		result.samples++
	}

	for {
		select {
		case <-ticker.C:
			observe()
		case <-stop:
			observe()
			done <- result
			return
		}
	}
}

// MeasureValue is Measure for callables that return a value.
func MeasureValue[T any](p *Profiler, fn func() (T, error)) (T, Measurement, error) {
	var value T
	m, err := p.Measure(func() error {
		var ferr error
		value, ferr = fn()
		return ferr
	})
	return value, m, err
}
