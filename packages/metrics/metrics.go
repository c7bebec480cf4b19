// Package metrics aggregates request latencies for the end-of-run
// statistics summary.
package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range: 1us to 60s, 3 significant digits.
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Recorder collects latencies across a run.
type Recorder struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram
	requests  int64
	failed    int64
}

func NewRecorder() *Recorder {
	return &Recorder{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Record adds one request's latency. failed marks requests whose tests
// did not pass.
func (r *Recorder) Record(duration time.Duration, failed bool) {
	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	if failed {
		r.failed++
	}
	_ = r.histogram.RecordValue(latencyUs)
}

// Summary is the latency distribution of a run.
type Summary struct {
	Requests int64
	Failed   int64
	Min      time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Max      time.Duration
}

func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.requests == 0 {
		return Summary{}
	}
	us := func(v int64) time.Duration {
		return time.Duration(v) * time.Microsecond
	}
	return Summary{
		Requests: r.requests,
		Failed:   r.failed,
		Min:      us(r.histogram.Min()),
		P50:      us(r.histogram.ValueAtQuantile(50)),
		P95:      us(r.histogram.ValueAtQuantile(95)),
		P99:      us(r.histogram.ValueAtQuantile(99)),
		Max:      us(r.histogram.Max()),
	}
}

// Print writes the summary as a small table.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "requests: %d (%d with failed tests)\n", s.Requests, s.Failed)
	if s.Requests == 0 {
		return
	}
	fmt.Fprintf(w, "latency: min=%s p50=%s p95=%s p99=%s max=%s\n",
		s.Min, s.P50, s.P95, s.P99, s.Max)
}
