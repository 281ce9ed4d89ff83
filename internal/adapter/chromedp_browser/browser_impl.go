package chromedp_browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

//go:embed probe.js
var probeScript string

//go:embed active.js
var activeScript string

const (
	eventBuffer      = 64
	pageTargetType   = "page"
	tabQueryTimeout  = 3 * time.Second
	defaultProbeWait = 15 * time.Second
)

type activeState struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
	Focused bool   `json:"focused"`
}

// Options controls how the browser is reached.
type Options struct {
	// RemoteURL attaches to a running Chrome (its DevTools websocket URL).
	// When empty a new Chrome is launched.
	RemoteURL    string
	Headless     bool
	ProbeTimeout time.Duration
}

// ChromedpBrowser implements repository.BrowserRepository over the Chrome DevTools Protocol.
type ChromedpBrowser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	probeTimeout  time.Duration
	// remote is set when attached to a Chrome the user owns. Cancelling a
	// chromedp context closes its target (and the first one closes the whole
	// browser), so nothing is cancelled in that mode.
	remote bool

	mu     sync.Mutex
	tabs   map[target.ID]*tabState
	events chan entity.NavigationEvent
	once   sync.Once
	done   chan struct{}
	closed sync.Once
}

var _ repository.BrowserRepository = (*ChromedpBrowser)(nil)

// NewChromedpBrowser connects to (or launches) Chrome and returns once the
// browser answers.
func NewChromedpBrowser(ctx context.Context, opts Options) (*ChromedpBrowser, error) {
	remote := opts.RemoteURL != ""
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if remote {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(allocParent(ctx, remote), opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opts.Headless {
			execOpts = append(execOpts,
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
			)
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, execOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(cdpLogf(slog.LevelDebug)),
		chromedp.WithErrorf(cdpLogf(slog.LevelWarn)),
	)
	if err := startBrowser(ctx, browserCtx, remote); err != nil {
		if !remote {
			browserCancel()
			allocCancel()
		}
		return nil, fmt.Errorf("start browser: %w", err)
	}

	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeWait
	}

	b := &ChromedpBrowser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		probeTimeout:  opts.ProbeTimeout,
		remote:        remote,
		tabs:          make(map[target.ID]*tabState),
		events:        make(chan entity.NavigationEvent, eventBuffer),
		done:          make(chan struct{}),
	}

	// The context chromedp just created is itself a page target.
	if c := chromedp.FromContext(browserCtx); c != nil && c.Target != nil {
		b.track(c.Target.TargetID, browserCtx, func() {})
	}
	return b, nil
}

// Navigations attaches to every page target and streams their load completions.
func (b *ChromedpBrowser) Navigations(ctx context.Context) (<-chan entity.NavigationEvent, error) {
	var err error
	b.once.Do(func() {
		chromedp.ListenBrowser(b.browserCtx, func(ev interface{}) {
			switch ev := ev.(type) {
			case *target.EventTargetCreated:
				if ev.TargetInfo != nil && ev.TargetInfo.Type == pageTargetType {
					go b.attach(ev.TargetInfo.TargetID)
				}
			case *target.EventTargetDestroyed:
				b.detach(ev.TargetID)
			}
		})

		var infos []*target.Info
		infos, err = chromedp.Targets(b.browserCtx)
		if err != nil {
			err = fmt.Errorf("list targets: %w", err)
			return
		}
		for _, info := range infos {
			if info.Type == pageTargetType {
				b.attach(info.TargetID)
			}
		}
		slog.Info("Browser observer attached", "tabs", b.tabCount())
	})
	if err != nil {
		return nil, err
	}
	return b.events, nil
}

// ActiveTab returns the visible tab that holds focus, or the first visible tab
// when no window is focused.
func (b *ChromedpBrowser) ActiveTab(ctx context.Context) (*entity.Tab, error) {
	var fallback *entity.Tab
	for _, st := range b.snapshot() {
		var state activeState
		if err := b.run(ctx, st, tabQueryTimeout, chromedp.Evaluate(activeScript, &state)); err != nil {
			slog.Debug("Skipping tab during active tab lookup", "tab_id", st.id, "error", err)
			continue
		}
		if !state.Visible {
			continue
		}
		tab := &entity.Tab{ID: string(st.id), URL: state.URL, Title: state.Title, Active: true}
		if state.Focused {
			return tab, nil
		}
		if fallback == nil {
			fallback = tab
		}
	}
	if fallback == nil {
		return nil, repository.ErrNoActiveTab
	}
	return fallback, nil
}

// ReadPage evaluates the probe script inside the tab.
func (b *ChromedpBrowser) ReadPage(ctx context.Context, tabID string) (*entity.PageText, error) {
	b.mu.Lock()
	st, ok := b.tabs[target.ID(tabID)]
	b.mu.Unlock()
	if !ok {
		return nil, repository.ErrTabNotFound
	}

	var text entity.PageText
	if err := b.run(ctx, st, b.probeTimeout, chromedp.Evaluate(probeScript, &text)); err != nil {
		return nil, fmt.Errorf("evaluate probe in tab %s: %w", tabID, err)
	}
	return &text, nil
}

// Close stops event delivery. A launched Chrome is shut down with it; an
// attached Chrome and all of its tabs are left running, and the websocket
// goes away with the process.
func (b *ChromedpBrowser) Close() {
	b.closed.Do(func() { close(b.done) })

	b.mu.Lock()
	b.tabs = make(map[target.ID]*tabState)
	b.mu.Unlock()

	if b.remote {
		return
	}
	b.browserCancel()
	b.allocCancel()
}

// allocParent detaches an attached browser from the caller's cancellation,
// so a shutdown signal never reaches chromedp's close-on-cancel handling.
func allocParent(ctx context.Context, remote bool) context.Context {
	if remote {
		return context.WithoutCancel(ctx)
	}
	return ctx
}

// startBrowser connects the first context. In remote mode the caller's ctx
// bounds only the wait, never the context chromedp keeps.
func startBrowser(ctx, browserCtx context.Context, remote bool) error {
	if !remote {
		return chromedp.Run(browserCtx)
	}
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(browserCtx) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes actions in the tab, bounded by timeout and the caller's ctx.
func (b *ChromedpBrowser) run(ctx context.Context, st *tabState, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(st.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

func (b *ChromedpBrowser) attach(id target.ID) {
	b.mu.Lock()
	_, exists := b.tabs[id]
	b.mu.Unlock()
	if exists {
		return
	}

	tabCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithTargetID(id))
	st := b.track(id, tabCtx, cancel)
	if st == nil {
		cancel()
		return
	}

	if err := chromedp.Run(tabCtx); err != nil {
		slog.Warn("Failed to attach to tab", "tab_id", id, "error", err)
		b.detach(id)
		return
	}
	slog.Debug("Attached to tab", "tab_id", id)
}

// track registers a tab and its event listener. It returns nil if the tab is
// already tracked.
func (b *ChromedpBrowser) track(id target.ID, tabCtx context.Context, cancel context.CancelFunc) *tabState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.tabs[id]; exists {
		return nil
	}

	st := newTabState(id)
	st.ctx = tabCtx
	st.cancel = cancel
	b.tabs[id] = st

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventFrameNavigated:
			st.frameNavigated(ev.Frame)
		case *page.EventFrameDetached:
			st.frameDetached(ev.FrameID)
		case *page.EventFrameStoppedLoading:
			if nav, ok := st.frameStoppedLoading(ev.FrameID); ok {
				go b.emit(nav)
			}
		}
	})
	return st
}

// detach forgets a tab. Its context is only cancelled for a launched
// browser; cancelling would send Target.closeTarget.
func (b *ChromedpBrowser) detach(id target.ID) {
	b.mu.Lock()
	st, ok := b.tabs[id]
	delete(b.tabs, id)
	b.mu.Unlock()
	if ok && !b.remote {
		st.cancel()
	}
}

func (b *ChromedpBrowser) emit(nav entity.NavigationEvent) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.events <- nav:
	case <-b.done:
	case <-b.browserCtx.Done():
	}
}

func (b *ChromedpBrowser) snapshot() []*tabState {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*tabState, 0, len(b.tabs))
	for _, st := range b.tabs {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (b *ChromedpBrowser) tabCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tabs)
}

func cdpLogf(level slog.Level) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		slog.Log(context.Background(), level, fmt.Sprintf(format, args...), "component", "chromedp")
	}
}
