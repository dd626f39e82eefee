package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics tracks service call metrics
type Metrics struct {
	imageHostCalls    int64
	imageHostErrors   int64
	imageHostLatency  int64 // Total latency in nanoseconds
	webhookCalls      int64
	webhookErrors     int64
	webhookLatency    int64
	submissionsOK     int64
	submissionsFailed int64
	chatAnswers       int64
	chatFallbacks     int64
}

var globalMetrics = &Metrics{}

// Snapshot is the JSON view of the counters.
type Snapshot struct {
	ImageHostCalls        int64   `json:"image_host_calls"`
	ImageHostErrors       int64   `json:"image_host_errors"`
	ImageHostAvgLatencyMs float64 `json:"image_host_avg_latency_ms"`
	WebhookCalls          int64   `json:"webhook_calls"`
	WebhookErrors         int64   `json:"webhook_errors"`
	WebhookAvgLatencyMs   float64 `json:"webhook_avg_latency_ms"`
	SubmissionsSucceeded  int64   `json:"submissions_succeeded"`
	SubmissionsFailed     int64   `json:"submissions_failed"`
	ChatAnswers           int64   `json:"chat_answers"`
	ChatFallbacks         int64   `json:"chat_fallbacks"`
}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		imageHostCalls:    atomic.LoadInt64(&globalMetrics.imageHostCalls),
		imageHostErrors:   atomic.LoadInt64(&globalMetrics.imageHostErrors),
		imageHostLatency:  atomic.LoadInt64(&globalMetrics.imageHostLatency),
		webhookCalls:      atomic.LoadInt64(&globalMetrics.webhookCalls),
		webhookErrors:     atomic.LoadInt64(&globalMetrics.webhookErrors),
		webhookLatency:    atomic.LoadInt64(&globalMetrics.webhookLatency),
		submissionsOK:     atomic.LoadInt64(&globalMetrics.submissionsOK),
		submissionsFailed: atomic.LoadInt64(&globalMetrics.submissionsFailed),
		chatAnswers:       atomic.LoadInt64(&globalMetrics.chatAnswers),
		chatFallbacks:     atomic.LoadInt64(&globalMetrics.chatFallbacks),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.imageHostCalls, 0)
	atomic.StoreInt64(&globalMetrics.imageHostErrors, 0)
	atomic.StoreInt64(&globalMetrics.imageHostLatency, 0)
	atomic.StoreInt64(&globalMetrics.webhookCalls, 0)
	atomic.StoreInt64(&globalMetrics.webhookErrors, 0)
	atomic.StoreInt64(&globalMetrics.webhookLatency, 0)
	atomic.StoreInt64(&globalMetrics.submissionsOK, 0)
	atomic.StoreInt64(&globalMetrics.submissionsFailed, 0)
	atomic.StoreInt64(&globalMetrics.chatAnswers, 0)
	atomic.StoreInt64(&globalMetrics.chatFallbacks, 0)
}

// RecordImageHostCall records an image host upload call
func RecordImageHostCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.imageHostCalls, 1)
	atomic.AddInt64(&globalMetrics.imageHostLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.imageHostErrors, 1)
	}
}

// RecordWebhookCall records a webhook submission call
func RecordWebhookCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.webhookCalls, 1)
	atomic.AddInt64(&globalMetrics.webhookLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.webhookErrors, 1)
	}
}

// RecordSubmission records the terminal outcome of a submission attempt
func RecordSubmission(succeeded bool) {
	if succeeded {
		atomic.AddInt64(&globalMetrics.submissionsOK, 1)
		return
	}
	atomic.AddInt64(&globalMetrics.submissionsFailed, 1)
}

// RecordChatAnswer records a chat answer; fallback marks unmatched questions
func RecordChatAnswer(fallback bool) {
	atomic.AddInt64(&globalMetrics.chatAnswers, 1)
	if fallback {
		atomic.AddInt64(&globalMetrics.chatFallbacks, 1)
	}
}

// AverageImageHostLatency returns the average latency in milliseconds
func (m Metrics) AverageImageHostLatency() float64 {
	return averageMs(m.imageHostLatency, m.imageHostCalls)
}

// AverageWebhookLatency returns the average latency in milliseconds
func (m Metrics) AverageWebhookLatency() float64 {
	return averageMs(m.webhookLatency, m.webhookCalls)
}

// ImageHostErrorRate returns the error rate as a percentage
func (m Metrics) ImageHostErrorRate() float64 {
	if m.imageHostCalls == 0 {
		return 0
	}
	return float64(m.imageHostErrors) / float64(m.imageHostCalls) * 100
}

// Snapshot converts the counters into their JSON view.
func (m Metrics) Snapshot() Snapshot {
	return Snapshot{
		ImageHostCalls:        m.imageHostCalls,
		ImageHostErrors:       m.imageHostErrors,
		ImageHostAvgLatencyMs: m.AverageImageHostLatency(),
		WebhookCalls:          m.webhookCalls,
		WebhookErrors:         m.webhookErrors,
		WebhookAvgLatencyMs:   m.AverageWebhookLatency(),
		SubmissionsSucceeded:  m.submissionsOK,
		SubmissionsFailed:     m.submissionsFailed,
		ChatAnswers:           m.chatAnswers,
		ChatFallbacks:         m.chatFallbacks,
	}
}

func averageMs(totalNs, calls int64) float64 {
	if calls == 0 {
		return 0
	}
	avgNs := float64(totalNs) / float64(calls)
	return avgNs / 1e6 // Convert nanoseconds to milliseconds
}
