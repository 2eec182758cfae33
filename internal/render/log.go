package render

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

// LogRenderer emits one structured log line per tick. It serves non-TTY
// runs (CI, containers) where ANSI redraws would garbage the output.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer wraps the given logger.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogRenderer{logger: logger}
}

// Render implements SnapshotRenderer.
func (r *LogRenderer) Render(snapshot stats.Snapshot, perWorker []stats.View, opts Options) {
	r.logger.Info("ingestion progress",
		zap.Int("percent", Percent(snapshot.Processed, float64(opts.Limit))),
		zap.Int64("processed", snapshot.Processed),
		zap.Int("limit", opts.Limit),
		zap.Int64("successful", snapshot.Successful),
		zap.Int64("failed", snapshot.Failed),
		zap.Int64("with_text", snapshot.WithText),
		zap.Int("workers", len(perWorker)),
	)
}
