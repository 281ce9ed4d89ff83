package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

const (
	DefaultSearchLanguage = "indonesian"
	DefaultSearchLimit    = 20
)

// Searcher answers full-text queries over archived documents.
type Searcher interface {
	Search(ctx context.Context, text, language string) ([]*entity.SearchResult, error)
}

type searchUseCase struct {
	docs  repository.DocumentSearcher
	limit int
}

// NewSearcher creates the archive search. limit caps the results per query.
func NewSearcher(docs repository.DocumentSearcher, limit int) Searcher {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &searchUseCase{docs: docs, limit: limit}
}

// Search returns no results for blank text without touching the database.
// An empty language selects DefaultSearchLanguage.
func (uc *searchUseCase) Search(ctx context.Context, text, language string) ([]*entity.SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*entity.SearchResult{}, nil
	}
	if language == "" {
		language = DefaultSearchLanguage
	}

	results, err := uc.docs.Search(ctx, entity.SearchQuery{Text: text, Language: language, Limit: uc.limit})
	if err != nil {
		return nil, fmt.Errorf("failed to search archived documents: %w", err)
	}
	if results == nil {
		results = []*entity.SearchResult{}
	}
	slog.Debug("Archive search", "query", text, "language", language, "results", len(results))
	return results, nil
}
