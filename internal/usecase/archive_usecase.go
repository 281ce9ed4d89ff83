package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

// Wayback timestamps are YYYYMMDDhhmmss in UTC.
const archiveTimestampLayout = "20060102150405"

// ArchiveSummary counts what one retriever run did.
type ArchiveSummary struct {
	Processed  int
	Archived   int
	NoSnapshot int
	Skipped    int
	Errors     int
}

// Archiver drains the dead-URL queue into archived_documents.
type Archiver interface {
	Run(ctx context.Context) (ArchiveSummary, error)
}

type archiveUseCase struct {
	queue     repository.QueueRepository
	visited   repository.VisitedRepository
	snapshots repository.SnapshotRepository
	docs      repository.ArchivedDocumentRepository
	dedup     time.Duration
	delay     time.Duration
}

// NewArchiver creates the archive retriever. URLs handled within dedup are
// skipped; delay separates archive lookups.
func NewArchiver(
	queue repository.QueueRepository,
	visited repository.VisitedRepository,
	snapshots repository.SnapshotRepository,
	docs repository.ArchivedDocumentRepository,
	dedup time.Duration,
	delay time.Duration,
) Archiver {
	return &archiveUseCase{
		queue:     queue,
		visited:   visited,
		snapshots: snapshots,
		docs:      docs,
		dedup:     dedup,
		delay:     delay,
	}
}

// Run pops URLs until the queue is empty, then upserts every document found
// in one batch. Anything not stored goes back on the queue: URLs whose lookup
// failed, the batch when the upsert fails, and all pending work when the run
// is cut short.
func (uc *archiveUseCase) Run(ctx context.Context) (ArchiveSummary, error) {
	var sum ArchiveSummary
	var docs []*entity.ArchivedDocument
	// Failed lookups are pushed back only after the drain, or they would be
	// popped again in the same run.
	var retry []string

	for {
		if sum.Processed > 0 {
			if err := sleep(ctx, uc.delay); err != nil {
				uc.requeue(ctx, append(docURLs(docs), retry...))
				return sum, err
			}
		}
		url, err := uc.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Queue is empty, which is a normal state.
				break
			}
			uc.requeue(ctx, append(docURLs(docs), retry...))
			return sum, fmt.Errorf("failed to pop URL from queue: %w", err)
		}
		sum.Processed++

		doc, result := uc.retrieve(ctx, url)
		metrics.ArchiveResultsTotal.WithLabelValues(result).Inc()
		switch result {
		case "skipped":
			sum.Skipped++
		case "no_snapshot":
			sum.NoSnapshot++
		case "error":
			sum.Errors++
			retry = append(retry, url)
		default:
			docs = append(docs, doc)
		}
	}

	uc.requeue(ctx, retry)
	if size, err := uc.queue.Size(ctx); err == nil {
		metrics.DeadURLsInQueue.Set(float64(size))
	}
	if len(docs) == 0 {
		return sum, nil
	}

	n, err := uc.docs.UpsertBatch(ctx, docs)
	if err != nil {
		uc.requeue(ctx, docURLs(docs))
		return sum, fmt.Errorf("failed to store archived documents: %w", err)
	}
	sum.Archived = n
	slog.Info("Archived documents stored", "count", n)
	return sum, nil
}

// retrieve returns the document for url and a metric label for the outcome.
func (uc *archiveUseCase) retrieve(ctx context.Context, url string) (*entity.ArchivedDocument, string) {
	seen, err := uc.visited.IsVisited(ctx, url)
	if err != nil {
		slog.Warn("Failed to check archive marker", "url", url, "error", err)
	} else if seen {
		slog.Debug("URL archived recently, skipping", "url", url)
		return nil, "skipped"
	}

	snap, err := uc.snapshots.Closest(ctx, url)
	if err != nil {
		if errors.Is(err, repository.ErrNoSnapshot) {
			slog.Info("No archived snapshot", "url", url)
			uc.mark(ctx, url)
			return nil, "no_snapshot"
		}
		slog.Error("Archive lookup failed", "url", url, "error", err)
		return nil, "error"
	}

	text, err := uc.snapshots.FetchText(ctx, snap)
	if err != nil {
		// The capture still exists, so its timestamp is worth keeping.
		slog.Warn("Failed to download snapshot", "url", url, "snapshot", snap.URL, "error", err)
	}

	doc := &entity.ArchivedDocument{OriginalURL: url, CleanedText: text}
	if ts, err := time.Parse(archiveTimestampLayout, snap.Timestamp); err == nil {
		doc.ArchiveTimestamp = &ts
	} else {
		slog.Warn("Unparseable snapshot timestamp", "url", url, "timestamp", snap.Timestamp)
	}
	uc.mark(ctx, url)
	slog.Info("Snapshot retrieved", "url", url, "timestamp", snap.Timestamp, "chars", len(text))
	return doc, "archived"
}

func (uc *archiveUseCase) mark(ctx context.Context, url string) {
	if uc.dedup <= 0 {
		return
	}
	if err := uc.visited.MarkVisited(ctx, url, uc.dedup); err != nil {
		slog.Warn("Failed to set archive marker", "url", url, "error", err)
	}
}

// requeue clears the markers of urls and pushes them back. It runs on a
// context detached from ctx so a cancelled run still hands its work back.
func (uc *archiveUseCase) requeue(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := uc.visited.RemoveVisited(ctx, url); err != nil {
			slog.Warn("Failed to clear archive marker", "url", url, "error", err)
		}
		if err := uc.queue.Push(ctx, url); err != nil {
			slog.Error("Failed to requeue URL", "url", url, "error", err)
		}
	}
	if len(urls) > 0 {
		slog.Info("URLs requeued", "count", len(urls))
	}
}

func docURLs(docs []*entity.ArchivedDocument) []string {
	urls := make([]string, 0, len(docs))
	for _, d := range docs {
		urls = append(urls, d.OriginalURL)
	}
	return urls
}
