package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	ResetMetrics()
	t.Cleanup(ResetMetrics)

	RecordImageHostCall(10*time.Millisecond, nil)
	RecordImageHostCall(30*time.Millisecond, errors.New("bad gateway"))
	RecordWebhookCall(5*time.Millisecond, nil)
	RecordSubmission(true)
	RecordSubmission(false)
	RecordSubmission(false)
	RecordChatAnswer(false)
	RecordChatAnswer(true)

	m := GetMetrics()
	assert.InDelta(t, 20.0, m.AverageImageHostLatency(), 0.001)
	assert.InDelta(t, 50.0, m.ImageHostErrorRate(), 0.001)
	assert.InDelta(t, 5.0, m.AverageWebhookLatency(), 0.001)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.ImageHostCalls)
	assert.Equal(t, int64(1), s.ImageHostErrors)
	assert.Equal(t, int64(1), s.SubmissionsSucceeded)
	assert.Equal(t, int64(2), s.SubmissionsFailed)
	assert.Equal(t, int64(2), s.ChatAnswers)
	assert.Equal(t, int64(1), s.ChatFallbacks)
}

func TestAveragesWithoutCalls(t *testing.T) {
	ResetMetrics()
	m := GetMetrics()
	assert.Zero(t, m.AverageImageHostLatency())
	assert.Zero(t, m.AverageWebhookLatency())
	assert.Zero(t, m.ImageHostErrorRate())
}
