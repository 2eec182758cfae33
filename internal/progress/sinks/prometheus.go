package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/billtext-ingest/internal/progress"
)

// PrometheusSink exports ingestion progress metrics. It owns all
// collectors for job lifecycle and per-bill completion counters.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    *prometheus.HistogramVec

	billsProcessed *prometheus.CounterVec
	billText       *prometheus.CounterVec
	fetchBytes     prometheus.Counter
	billDuration   *prometheus.HistogramVec

	tracker *jobTracker
}

// NewPrometheusSink registers the collectors against the provided
// registry; nil falls back to the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billtext_jobs_started_total",
			Help: "Total ingestion jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billtext_jobs_completed_total",
			Help: "Total ingestion jobs completed partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "billtext_jobs_running",
			Help: "Current number of running ingestion jobs.",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billtext_job_runtime_seconds",
			Help:    "Wall time per completed ingestion job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),
		billsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billtext_bills_processed_total",
			Help: "Bill completions partitioned by result.",
		}, []string{"result"}),
		billText: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billtext_bill_text_total",
			Help: "Bills with text acquired, partitioned by source and rendition.",
		}, []string{"source", "rendition"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billtext_fetch_bytes_total",
			Help: "Raw bytes downloaded for winning renditions.",
		}),
		billDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billtext_bill_duration_seconds",
			Help:    "Per-bill pipeline duration partitioned by result.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"result"}),
		tracker: newJobTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.billsProcessed,
		s.billText,
		s.fetchBytes,
		s.billDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent
// use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageJobStart:
		s.jobsStarted.Inc()
		if s.tracker.start(evt.JobID) {
			s.jobsRunning.Inc()
		}
	case progress.StageJobDone:
		s.completeJob(evt, "success")
	case progress.StageJobError:
		s.completeJob(evt, "error")
	case progress.StageBillDone:
		s.consumeBillDone(evt)
	}
}

func (s *PrometheusSink) completeJob(evt progress.Event, label string) {
	s.jobsCompleted.WithLabelValues(label).Inc()
	if evt.Dur > 0 {
		s.jobRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
	if s.tracker.complete(evt.JobID) {
		s.jobsRunning.Dec()
	}
}

func (s *PrometheusSink) consumeBillDone(evt progress.Event) {
	result := string(evt.Result)
	if result == "" {
		result = "unknown"
	}
	s.billsProcessed.WithLabelValues(result).Inc()
	if evt.Source != "" {
		rendition := evt.Rendition
		if rendition == "" {
			rendition = "unknown"
		}
		s.billText.WithLabelValues(string(evt.Source), rendition).Inc()
	}
	if evt.Bytes > 0 {
		s.fetchBytes.Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.billDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

type jobTracker struct {
	mu      sync.Mutex
	running map[[16]byte]struct{}
}

func newJobTracker() *jobTracker {
	return &jobTracker{running: make(map[[16]byte]struct{})}
}

func (t *jobTracker) start(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *jobTracker) complete(id [16]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
