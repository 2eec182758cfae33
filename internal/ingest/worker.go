// Package ingest runs bill-text ingestion jobs: a coordinator shards the
// backlog across a fixed worker pool, each worker acquires, normalizes,
// and persists text for its bills while a ticker renders live progress.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/fetcher"
	"github.com/JakeFAU/billtext-ingest/internal/progress"
	"github.com/JakeFAU/billtext-ingest/internal/stats"
	"github.com/JakeFAU/billtext-ingest/internal/storage"
	"github.com/JakeFAU/billtext-ingest/internal/textnorm"
)

// VersionLister lists a bill's text versions, oldest first.
type VersionLister interface {
	TextVersions(ctx context.Context, bill bills.ID) ([]bills.TextVersion, error)
}

// BillStore persists one bill's text row.
type BillStore interface {
	UpsertBillText(ctx context.Context, record bills.TextRecord) error
}

// Publisher announces a freshly ingested bill downstream.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Deps bundles the collaborators shared by every worker in a job.
// Archive and Publish are optional; nil disables the feature.
type Deps struct {
	Versions VersionLister
	Fetch    fetcher.Fetcher
	Store    BillStore
	Archive  storage.BlobStore
	Publish  Publisher
	Topic    string
	Emit     progress.Emitter
	Logger   *zap.Logger
}

// Notification is the payload published after a successful upsert.
type Notification struct {
	Bill       bills.ID         `json:"bill"`
	TextSource bills.TextSource `json:"text_source"`
	Bytes      int64            `json:"bytes"`
	TS         time.Time        `json:"ts"`
}

type nopEmitter struct{}

func (nopEmitter) Emit(progress.Event) {}

// Worker processes one shard of the backlog sequentially. It is the
// single writer of its WorkerStat.
type Worker struct {
	id    int
	jobID [16]byte
	deps  Deps
	stat  *stats.WorkerStat
}

// NewWorker wires a worker for one job run.
func NewWorker(id int, jobID [16]byte, deps Deps, stat *stats.WorkerStat) *Worker {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger = deps.Logger.With(zap.Int("worker", id))
	if deps.Emit == nil {
		deps.Emit = nopEmitter{}
	}
	return &Worker{id: id, jobID: jobID, deps: deps, stat: stat}
}

// Run processes the shard in order. It returns early only when the job
// context is canceled; per-bill failures are absorbed into counters.
func (w *Worker) Run(ctx context.Context, shard []bills.ID) error {
	for _, bill := range shard {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processBill(ctx, bill)
	}
	return nil
}

func (w *Worker) processBill(ctx context.Context, bill bills.ID) {
	start := time.Now()
	w.stat.SetCurrent(&bill)
	defer w.stat.SetCurrent(nil)

	w.deps.Emit.Emit(progress.Event{
		JobID:  w.jobID,
		TS:     start.UTC(),
		Stage:  progress.StageBillStart,
		Worker: w.id,
		Bill:   bill,
	})

	outcome, rawBytes, acquireErr := w.acquire(ctx, bill)

	var persistErr error
	if acquireErr == nil {
		persistErr = w.deps.Store.UpsertBillText(ctx, bills.TextRecord{
			Bill:        bill,
			FullText:    outcome.Text,
			HasFullText: outcome.HasText(),
			TextSource:  outcome.Source,
		})
		if persistErr != nil {
			w.deps.Logger.Error("persist bill text",
				zap.String("bill", bill.String()),
				zap.Error(persistErr),
			)
		}
	}

	// Counters move exactly once per bill, after its fate is known.
	w.stat.Processed.Add(1)
	var result progress.Result
	switch {
	case acquireErr != nil || persistErr != nil:
		w.stat.Failed.Add(1)
		result = progress.ResultFailed
	case outcome.HasText():
		w.stat.Successful.Add(1)
		w.stat.WithText.Add(1)
		w.stat.APIText.Add(1)
		result = progress.ResultSuccess
	default:
		w.stat.Successful.Add(1)
		result = progress.ResultNoText
	}

	if result == progress.ResultSuccess && w.deps.Publish != nil {
		if _, err := w.deps.Publish.Publish(ctx, w.deps.Topic, Notification{
			Bill:       bill,
			TextSource: outcome.Source,
			Bytes:      rawBytes,
			TS:         time.Now().UTC(),
		}); err != nil {
			w.deps.Logger.Warn("publish ingest notification",
				zap.String("bill", bill.String()),
				zap.Error(err),
			)
		}
	}

	note := ""
	if acquireErr != nil {
		note = acquireErr.Error()
	} else if persistErr != nil {
		note = persistErr.Error()
	}
	w.deps.Emit.Emit(progress.Event{
		JobID:     w.jobID,
		TS:        time.Now().UTC(),
		Stage:     progress.StageBillDone,
		Worker:    w.id,
		Bill:      bill,
		Result:    result,
		Source:    outcome.Source,
		Rendition: outcome.RenditionType,
		Bytes:     rawBytes,
		Dur:       time.Since(start),
		Note:      note,
	})
}

// acquire runs selector, fetch, and normalization for one bill. A nil
// error with an empty outcome means the bill legitimately has no text;
// a non-nil error means every eligible rendition failed.
func (w *Worker) acquire(ctx context.Context, bill bills.ID) (bills.FetchOutcome, int64, error) {
	versions, err := w.deps.Versions.TextVersions(ctx, bill)
	if err != nil {
		return bills.FetchOutcome{}, 0, fmt.Errorf("list text versions: %w", err)
	}

	latest, ok := bills.LatestVersion(versions)
	if !ok {
		w.deps.Logger.Debug("no text versions", zap.String("bill", bill.String()))
		return bills.FetchOutcome{}, 0, nil
	}

	renditions := bills.ChooseRenditions(latest)
	if len(renditions) == 0 {
		w.deps.Logger.Debug("no eligible renditions", zap.String("bill", bill.String()))
		return bills.FetchOutcome{}, 0, nil
	}

	var lastErr error
	for _, rendition := range renditions {
		resp, err := w.deps.Fetch.Fetch(ctx, rendition.URL)
		if err != nil {
			lastErr = err
			w.deps.Logger.Warn("rendition fetch failed",
				zap.String("bill", bill.String()),
				zap.String("rendition", rendition.Type),
				zap.Error(err),
			)
			continue
		}

		text := textnorm.Normalize(string(resp.Body))
		if anomalies := textnorm.ScanForAnomalies(text); len(anomalies) > 0 {
			w.deps.Logger.Warn("possible malformed text",
				zap.String("bill", bill.String()),
				zap.String("rendition", rendition.Type),
				zap.Int("anomalies", len(anomalies)),
				zap.String("first_context", anomalies[0].Context),
			)
		}

		w.archive(ctx, bill, rendition, resp.Body)

		return bills.FetchOutcome{
			Text:          text,
			Source:        bills.SourceAPI,
			RenditionType: rendition.Type,
		}, int64(len(resp.Body)), nil
	}
	return bills.FetchOutcome{}, 0, fmt.Errorf("all renditions failed: %w", lastErr)
}

// archive stores the winning rendition's raw payload. Failures are
// logged only; archiving is best effort.
func (w *Worker) archive(ctx context.Context, bill bills.ID, rendition bills.TextRendition, body []byte) {
	if w.deps.Archive == nil {
		return
	}
	path := archivePath(bill, rendition.Type)
	uri, err := w.deps.Archive.PutObject(ctx, path, renditionContentType(rendition.Type), bytes.NewReader(body))
	if err != nil {
		w.deps.Logger.Warn("archive raw rendition",
			zap.String("bill", bill.String()),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	w.deps.Logger.Debug("raw rendition archived",
		zap.String("bill", bill.String()),
		zap.String("uri", uri),
	)
}

func archivePath(bill bills.ID, renditionType string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(renditionType), " ", "-"))
	ext := ".txt"
	switch renditionType {
	case bills.RenditionXML:
		ext = ".xml"
	case bills.RenditionHTML:
		ext = ".html"
	}
	return fmt.Sprintf("%d/%s/%s/%s%s", bill.Congress, bill.Type, bill.Number, slug, ext)
}

func renditionContentType(renditionType string) string {
	switch renditionType {
	case bills.RenditionXML:
		return "text/xml"
	case bills.RenditionHTML:
		return "text/html"
	default:
		return "text/plain"
	}
}
