package usecase

import (
	"context"
	"log/slog"

	"github.com/user/deadpage-hunter/internal/detector"
	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
	"github.com/user/deadpage-hunter/pkg/utils"
)

const (
	NotificationTitle   = "Dead Link Hunter"
	DeadPageReportedMsg = "404 page detected and reported!"
)

// Prober inspects a loaded page and reports it when it looks dead.
type Prober interface {
	Probe(ctx context.Context, tabID, url string)
}

type proberUseCase struct {
	browser   repository.BrowserRepository
	submitter repository.SubmissionClient
	notifier  repository.Notifier
}

// NewProber creates the page prober.
func NewProber(
	browser repository.BrowserRepository,
	submitter repository.SubmissionClient,
	notifier repository.Notifier,
) Prober {
	return &proberUseCase{
		browser:   browser,
		submitter: submitter,
		notifier:  notifier,
	}
}

// Probe reads the tab's title and body text, and on a match submits url once.
// Nothing is returned; every failure ends up in the log.
func (uc *proberUseCase) Probe(ctx context.Context, tabID, url string) {
	page, err := uc.browser.ReadPage(ctx, tabID)
	if err != nil {
		metrics.ProbesTotal.WithLabelValues("error").Inc()
		slog.Warn("Failed to read page", "tab_id", tabID, "url", url, "error", err)
		return
	}

	result := detector.Detect(*page)
	if !result.IsDeadPage {
		metrics.ProbesTotal.WithLabelValues("alive").Inc()
		slog.Debug("Page looks alive", "tab_id", tabID, "url", url)
		return
	}
	metrics.ProbesTotal.WithLabelValues("dead").Inc()
	slog.Info("Dead page detected", "tab_id", tabID, "url", url, "host", utils.Hostname(url), "indicator", result.Indicator)

	resp := submitURL(ctx, uc.submitter, url, originAuto)
	if !resp.Success {
		slog.Error("Failed to report dead page", "url", url, "error", resp.Error)
		return
	}
	slog.Info("Dead URL reported", "url", url)

	note := entity.Notification{Title: NotificationTitle, Message: DeadPageReportedMsg, URL: url}
	if err := uc.notifier.Notify(ctx, note); err != nil {
		slog.Warn("Failed to raise notification", "url", url, "error", err)
	}
}
