package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAccumulates(t *testing.T) {
	r := NewRegistry()

	r.AddToCounter("sms_sent_total", 1, nil, "Total SMS sent")
	r.AddToCounter("sms_sent_total", 1, nil, "Total SMS sent")
	r.AddToCounter("sms_sent_total", 3, nil, "Total SMS sent")

	snap := r.GetSnapshot()
	require.Len(t, snap.Counters, 1)
	assert.Equal(t, float64(5), snap.Counters[0].Value)
	assert.Equal(t, "sms_sent_total", snap.Counters[0].Name)
}

func TestCounterLabelsSeparateSeries(t *testing.T) {
	r := NewRegistry()

	r.AddToCounter("http_requests_total", 1, map[string]string{"endpoint": "/send"}, "")
	r.AddToCounter("http_requests_total", 1, map[string]string{"endpoint": "/fetch"}, "")
	r.AddToCounter("http_requests_total", 1, map[string]string{"endpoint": "/send"}, "")

	snap := r.GetSnapshot()
	require.Len(t, snap.Counters, 2)

	values := map[string]float64{}
	for _, c := range snap.Counters {
		values[c.Labels["endpoint"]] = c.Value
	}
	assert.Equal(t, float64(2), values["/send"])
	assert.Equal(t, float64(1), values["/fetch"])
}

func TestTimerStats(t *testing.T) {
	r := NewRegistry()

	r.RecordTimer("fanout_duration", 10*time.Millisecond)
	r.RecordTimer("fanout_duration", 30*time.Millisecond)
	r.RecordTimer("fanout_duration", 20*time.Millisecond)

	snap := r.GetSnapshot()
	require.Len(t, snap.Timers, 1)

	timer := snap.Timers[0]
	assert.Equal(t, int64(3), timer.Count)
	assert.Equal(t, float64(10), timer.Min)
	assert.Equal(t, float64(30), timer.Max)
	assert.Equal(t, float64(20), timer.Average)
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.AddToCounter("c", 1, map[string]string{"k": "v"}, "")

	snap := r.GetSnapshot()
	snap.Counters[0].Value = 999
	snap.Counters[0].Labels["k"] = "mutated"

	fresh := r.GetSnapshot()
	assert.Equal(t, float64(1), fresh.Counters[0].Value)
	assert.Equal(t, "v", fresh.Counters[0].Labels["k"])
}

func TestGlobalRegistry(t *testing.T) {
	GetRegistry().Reset()

	IncrementCounter("global_test_total", nil, "")
	IncrementCounter("global_test_total", nil, "")

	snap := GetRegistry().GetSnapshot()
	require.Len(t, snap.Counters, 1)
	assert.Equal(t, float64(2), snap.Counters[0].Value)
}
