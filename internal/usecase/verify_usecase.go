package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

// VerifySummary counts what one verifier run did.
type VerifySummary struct {
	Checked int
	Dead    int
	Alive   int
	Errors  int
}

// Verifier re-checks reported URLs and forwards confirmed dead ones.
type Verifier interface {
	Run(ctx context.Context) (VerifySummary, error)
}

type verifyUseCase struct {
	reports   repository.ReportedURLRepository
	checker   repository.StatusChecker
	queue     repository.QueueRepository
	batchSize int
	delay     time.Duration
}

// NewVerifier creates a verifier claiming up to batchSize rows per run and
// pausing delay between checks.
func NewVerifier(
	reports repository.ReportedURLRepository,
	checker repository.StatusChecker,
	queue repository.QueueRepository,
	batchSize int,
	delay time.Duration,
) Verifier {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &verifyUseCase{
		reports:   reports,
		checker:   checker,
		queue:     queue,
		batchSize: batchSize,
		delay:     delay,
	}
}

// Run claims one batch of PENDING reports. Dead URLs are marked
// CONFIRMED_DEAD and queued for archive retrieval; live ones are deleted.
// Per-URL failures are logged and counted, never returned. Claimed rows that
// were not settled, because recording failed or the run was cancelled, are
// released back to PENDING.
func (uc *verifyUseCase) Run(ctx context.Context) (VerifySummary, error) {
	var sum VerifySummary

	pending, err := uc.reports.ClaimPending(ctx, uc.batchSize)
	if err != nil {
		return sum, fmt.Errorf("failed to claim pending reports: %w", err)
	}
	slog.Info("Verifying reported URLs", "count", len(pending))

	var unsettled []int64
	for i, report := range pending {
		if i > 0 {
			if err := sleep(ctx, uc.delay); err != nil {
				for _, r := range pending[i:] {
					unsettled = append(unsettled, r.ID)
				}
				uc.release(ctx, unsettled)
				return sum, err
			}
		}

		res := uc.checker.Check(ctx, report.URL)
		sum.Checked++
		if err := uc.apply(ctx, res); err != nil {
			unsettled = append(unsettled, report.ID)
			sum.Errors++
			metrics.VerifyResultsTotal.WithLabelValues("error").Inc()
			slog.Error("Failed to record verification", "url", report.URL, "reason", res.Reason, "error", err)
			continue
		}

		if res.Dead {
			sum.Dead++
			metrics.VerifyResultsTotal.WithLabelValues("dead").Inc()
			slog.Info("URL confirmed dead", "url", report.URL, "reason", res.Reason)
		} else {
			sum.Alive++
			metrics.VerifyResultsTotal.WithLabelValues("alive").Inc()
			slog.Info("URL alive, removing report", "url", report.URL, "reason", res.Reason)
		}
	}

	uc.release(ctx, unsettled)
	if size, err := uc.queue.Size(ctx); err == nil {
		metrics.DeadURLsInQueue.Set(float64(size))
	}
	return sum, nil
}

// release hands rows back on a context detached from ctx, so a cancelled
// run does not strand them in PROCESSING.
func (uc *verifyUseCase) release(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	if err := uc.reports.Release(context.WithoutCancel(ctx), ids); err != nil {
		slog.Error("Failed to release claimed reports", "ids", ids, "error", err)
		return
	}
	slog.Info("Claimed reports released", "count", len(ids))
}

func (uc *verifyUseCase) apply(ctx context.Context, res entity.VerifyResult) error {
	if !res.Dead {
		return uc.reports.Delete(ctx, res.URL)
	}
	if err := uc.reports.MarkConfirmedDead(ctx, res.URL); err != nil {
		return err
	}
	if err := uc.queue.Push(ctx, res.URL); err != nil {
		return fmt.Errorf("failed to queue dead URL: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
