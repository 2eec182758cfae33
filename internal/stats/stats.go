// Package stats holds per-worker ingestion counters and their read-only
// aggregation. Each WorkerStat has a single writer (its worker); readers
// see an eventually consistent view, which is acceptable for an advisory
// display.
package stats

import (
	"sync/atomic"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
)

// WorkerStat is the mutable counter record owned by one worker. All
// fields are atomics so the aggregator and renderer can read without
// locks while the owning worker writes.
type WorkerStat struct {
	Processed  atomic.Int64
	Successful atomic.Int64
	Failed     atomic.Int64
	WithText   atomic.Int64
	APIText    atomic.Int64
	PDFText    atomic.Int64

	current atomic.Pointer[bills.ID]
}

// SetCurrent records the bill the worker is processing; nil means idle.
func (s *WorkerStat) SetCurrent(id *bills.ID) {
	s.current.Store(id)
}

// Current returns the in-flight bill, or nil when the worker is idle.
func (s *WorkerStat) Current() *bills.ID {
	return s.current.Load()
}

// View is a point-in-time copy of one worker's counters.
type View struct {
	Worker     int
	Processed  int64
	Successful int64
	Failed     int64
	WithText   int64
	APIText    int64
	PDFText    int64
	Current    *bills.ID
}

// Load copies the counters for the given worker id.
func (s *WorkerStat) Load(worker int) View {
	return View{
		Worker:     worker,
		Processed:  s.Processed.Load(),
		Successful: s.Successful.Load(),
		Failed:     s.Failed.Load(),
		WithText:   s.WithText.Load(),
		APIText:    s.APIText.Load(),
		PDFText:    s.PDFText.Load(),
		Current:    s.Current(),
	}
}

// Snapshot is the derived global aggregate at one render tick. It is
// recomputed each cycle and never persisted.
type Snapshot struct {
	Processed  int64
	Successful int64
	Failed     int64
	WithText   int64
	APIText    int64
	PDFText    int64
	Workers    int
}

// Aggregate sums per-worker counters into a Snapshot. It is a pure
// read-only reduction; workers absent from the map simply contribute
// zero for this cycle.
func Aggregate(byWorker map[int]*WorkerStat) Snapshot {
	var snap Snapshot
	for id, ws := range byWorker {
		if ws == nil {
			continue
		}
		v := ws.Load(id)
		snap.Processed += v.Processed
		snap.Successful += v.Successful
		snap.Failed += v.Failed
		snap.WithText += v.WithText
		snap.APIText += v.APIText
		snap.PDFText += v.PDFText
		snap.Workers++
	}
	return snap
}

// AggregateViews is Aggregate over already-copied views; the renderer
// uses it so one tick reads each worker exactly once.
func AggregateViews(views []View) Snapshot {
	var snap Snapshot
	for _, v := range views {
		snap.Processed += v.Processed
		snap.Successful += v.Successful
		snap.Failed += v.Failed
		snap.WithText += v.WithText
		snap.APIText += v.APIText
		snap.PDFText += v.PDFText
		snap.Workers++
	}
	return snap
}
