package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

// Outcomes of a navigation event, used as metric labels.
const (
	outcomeProbed      = "probed"
	outcomeSubframe    = "subframe"
	outcomeInactiveTab = "inactive_tab"
	outcomeNoTab       = "no_tab"
	outcomeError       = "error"
)

// NavigationObserver turns navigation-completed events into page probes.
type NavigationObserver interface {
	// Run consumes events until ctx is done or the channel closes, then waits
	// for in-flight probes.
	Run(ctx context.Context, events <-chan entity.NavigationEvent) error
}

type navigationUseCase struct {
	tabs   repository.TabQuerier
	prober Prober
	wg     sync.WaitGroup
}

// NewNavigationObserver creates the observer. tabs is usually the browser adapter.
func NewNavigationObserver(tabs repository.TabQuerier, prober Prober) NavigationObserver {
	return &navigationUseCase{tabs: tabs, prober: prober}
}

func (uc *navigationUseCase) Run(ctx context.Context, events <-chan entity.NavigationEvent) error {
	defer uc.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			outcome := uc.handle(ctx, ev)
			metrics.NavigationEventsTotal.WithLabelValues(outcome).Inc()
		}
	}
}

// handle probes ev only when it is a top-level load in the active tab.
func (uc *navigationUseCase) handle(ctx context.Context, ev entity.NavigationEvent) string {
	if !ev.IsTopLevel() {
		return outcomeSubframe
	}

	tab, err := uc.tabs.ActiveTab(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveTab) {
			return outcomeNoTab
		}
		slog.Error("Failed to query active tab", "tab_id", ev.TabID, "error", err)
		return outcomeError
	}
	if tab == nil {
		return outcomeNoTab
	}
	if tab.ID != ev.TabID {
		slog.Debug("Ignoring navigation in background tab", "tab_id", ev.TabID, "active_tab_id", tab.ID)
		return outcomeInactiveTab
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.prober.Probe(ctx, ev.TabID, ev.URL)
	}()
	return outcomeProbed
}
