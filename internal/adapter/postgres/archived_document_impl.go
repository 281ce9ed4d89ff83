package postgres

import (
	"context"
	"fmt"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

// searchQueries holds one statement per text search configuration. The
// configuration is spelled out so the planner can match the GIN expression
// indexes in schema.sql.
var searchQueries = map[string]string{
	"indonesian": searchQuery("indonesian"),
	"english":    searchQuery("english"),
}

func searchQuery(lang string) string {
	return fmt.Sprintf(`
		SELECT original_url,
			ts_headline('%[1]s', cleaned_text, plainto_tsquery('%[1]s', $1)) AS snippet,
			archive_timestamp,
			COALESCE(category, 'General')
		FROM archived_documents
		WHERE to_tsvector('%[1]s', cleaned_text) @@ plainto_tsquery('%[1]s', $1)
		ORDER BY ts_rank(to_tsvector('%[1]s', cleaned_text), plainto_tsquery('%[1]s', $1)) DESC
		LIMIT $2;
	`, lang)
}

// ArchivedDocumentRepoImpl stores cleaned snapshot text in archived_documents.
type ArchivedDocumentRepoImpl struct {
	db DB
}

// NewArchivedDocumentRepo creates a new instance of ArchivedDocumentRepoImpl.
func NewArchivedDocumentRepo(db DB) *ArchivedDocumentRepoImpl {
	return &ArchivedDocumentRepoImpl{db: db}
}

// UpsertBatch writes all documents in a single transaction. A capture that
// already exists for the same URL and timestamp gets its text refreshed.
func (r *ArchivedDocumentRepoImpl) UpsertBatch(ctx context.Context, docs []*entity.ArchivedDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO archived_documents (original_url, archive_timestamp, cleaned_text)
		VALUES ($1, $2, $3)
		ON CONFLICT (original_url, archive_timestamp) DO UPDATE SET
			cleaned_text = EXCLUDED.cleaned_text;
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	written := 0
	for _, doc := range docs {
		if doc == nil || doc.OriginalURL == "" {
			continue
		}
		if _, err := tx.Exec(ctx, query, doc.OriginalURL, doc.ArchiveTimestamp, doc.CleanedText); err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("upsert %s: %w", doc.OriginalURL, err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// Search ranks documents by ts_rank and returns a ts_headline excerpt for each.
func (r *ArchivedDocumentRepoImpl) Search(ctx context.Context, q entity.SearchQuery) ([]*entity.SearchResult, error) {
	query, ok := searchQueries[q.Language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnsupportedLanguage, q.Language)
	}

	rows, err := r.db.Query(ctx, query, q.Text, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*entity.SearchResult
	for rows.Next() {
		var res entity.SearchResult
		if err := rows.Scan(&res.OriginalURL, &res.Snippet, &res.ArchiveTimestamp, &res.Category); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}
