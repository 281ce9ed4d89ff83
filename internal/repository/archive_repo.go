package repository

import (
	"context"
	"errors"

	"github.com/user/deadpage-hunter/internal/entity"
)

var (
	ErrNoSnapshot          = errors.New("no archived snapshot")
	ErrUnsupportedLanguage = errors.New("unsupported search language")
)

// ArchivedDocumentRepository stores cleaned snapshot text.
type ArchivedDocumentRepository interface {
	// UpsertBatch inserts or refreshes every document, keyed by original URL and capture timestamp.
	UpsertBatch(ctx context.Context, docs []*entity.ArchivedDocument) (int, error)
}

// DocumentSearcher ranks archived documents against a full-text query.
type DocumentSearcher interface {
	// Search returns ErrUnsupportedLanguage for a language without a text index.
	Search(ctx context.Context, q entity.SearchQuery) ([]*entity.SearchResult, error)
}

// SnapshotRepository looks up and downloads web archive captures.
type SnapshotRepository interface {
	// Closest returns ErrNoSnapshot when the archive holds no capture.
	Closest(ctx context.Context, url string) (*entity.Snapshot, error)
	// FetchText downloads the capture and returns its readable text.
	FetchText(ctx context.Context, snap *entity.Snapshot) (string, error)
}
