package postgres

import (
	"context"

	"github.com/user/deadpage-hunter/internal/entity"
)

// ReportedURLRepoImpl provides a concrete implementation for the ReportedURLRepository interface using PostgreSQL.
type ReportedURLRepoImpl struct {
	db DB
}

// NewReportedURLRepo creates a new instance of ReportedURLRepoImpl.
func NewReportedURLRepo(db DB) *ReportedURLRepoImpl {
	return &ReportedURLRepoImpl{db: db}
}

// ClaimPending flips up to limit PENDING rows to PROCESSING in one statement,
// so two verifiers never claim the same row.
func (r *ReportedURLRepoImpl) ClaimPending(ctx context.Context, limit int) ([]*entity.ReportedURL, error) {
	query := `
		UPDATE reported_urls SET status = $1
		WHERE id IN (
			SELECT id FROM reported_urls
			WHERE status = $2
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, url, source, status, reported_at;
	`
	rows, err := r.db.Query(ctx, query, string(entity.ReportProcessing), string(entity.ReportPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []*entity.ReportedURL
	for rows.Next() {
		var ru entity.ReportedURL
		var status string
		if err := rows.Scan(&ru.ID, &ru.URL, &ru.Source, &status, &ru.ReportedAt); err != nil {
			return nil, err
		}
		ru.Status = entity.ReportStatus(status)
		claimed = append(claimed, &ru)
	}
	return claimed, rows.Err()
}

// MarkConfirmedDead flags a URL as verified dead.
func (r *ReportedURLRepoImpl) MarkConfirmedDead(ctx context.Context, url string) error {
	query := `UPDATE reported_urls SET status = $1 WHERE url = $2;`
	_, err := r.db.Exec(ctx, query, string(entity.ReportConfirmedDead), url)
	return err
}

// Delete removes a reported URL, typically after it answered as alive.
func (r *ReportedURLRepoImpl) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM reported_urls WHERE url = $1;`
	_, err := r.db.Exec(ctx, query, url)
	return err
}

// Release puts claimed rows back to PENDING. Rows already settled by another
// statement are left alone.
func (r *ReportedURLRepoImpl) Release(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE reported_urls SET status = $1 WHERE id = ANY($2) AND status = $3;`
	_, err := r.db.Exec(ctx, query, string(entity.ReportPending), ids, string(entity.ReportProcessing))
	return err
}
