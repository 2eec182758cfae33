// Package render turns progress snapshots into operator-facing views.
package render

import (
	"math"

	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

// Options carries the job parameters a renderer needs to compute
// completion percentages.
type Options struct {
	// Limit is the total number of bills the job was asked to process.
	Limit int
	// ThreadCount is the size of the worker pool.
	ThreadCount int
}

// SnapshotRenderer consumes one render tick. Implementations write to a
// display surface (terminal, log stream, HTTP response) and must not
// retain the slice.
type SnapshotRenderer interface {
	Render(snapshot stats.Snapshot, perWorker []stats.View, opts Options)
}

// Percent computes round(processed/target*100). It is deliberately not
// clamped: a job that overruns its limit reads as more than 100%, which
// matches the long-standing display behavior operators expect.
func Percent(processed int64, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(float64(processed) / target * 100))
}

// WorkerTarget is each worker's share of the overall limit.
func WorkerTarget(opts Options) float64 {
	if opts.ThreadCount <= 0 {
		return float64(opts.Limit)
	}
	return float64(opts.Limit) / float64(opts.ThreadCount)
}
