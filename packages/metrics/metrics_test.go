package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorderSummary(t *testing.T) {
	recorder := NewRecorder()
	recorder.Record(10*time.Millisecond, false)
	recorder.Record(20*time.Millisecond, true)
	recorder.Record(30*time.Millisecond, false)

	summary := recorder.Summary()
	assert.Equal(t, int64(3), summary.Requests)
	assert.Equal(t, int64(1), summary.Failed)
	assert.GreaterOrEqual(t, summary.Max, summary.P50)
	assert.GreaterOrEqual(t, summary.P50, summary.Min)
	assert.InDelta(t, float64(10*time.Millisecond), float64(summary.Min), float64(time.Millisecond))
	assert.InDelta(t, float64(30*time.Millisecond), float64(summary.Max), float64(time.Millisecond))
}

func TestRecorderEmpty(t *testing.T) {
	summary := NewRecorder().Summary()
	assert.Equal(t, Summary{}, summary)

	var buf bytes.Buffer
	summary.Print(&buf)
	assert.Equal(t, "requests: 0 (0 with failed tests)\n", buf.String())
}

func TestSummaryPrint(t *testing.T) {
	recorder := NewRecorder()
	recorder.Record(5*time.Millisecond, false)

	var buf bytes.Buffer
	recorder.Summary().Print(&buf)
	text := buf.String()
	assert.Contains(t, text, "requests: 1 (0 with failed tests)")
	assert.Contains(t, text, "p95=")
}

func TestRecorderClampsOutOfRange(t *testing.T) {
	recorder := NewRecorder()
	recorder.Record(0, false)
	recorder.Record(2*time.Minute, false)

	summary := recorder.Summary()
	assert.Equal(t, int64(2), summary.Requests)
	assert.LessOrEqual(t, summary.Max, 61*time.Second)
}
