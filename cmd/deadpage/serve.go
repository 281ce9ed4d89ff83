package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/deadpage-hunter/internal/adapter/chromedp_browser"
	"github.com/user/deadpage-hunter/internal/adapter/notify"
	"github.com/user/deadpage-hunter/internal/adapter/postgres"
	redis_adapter "github.com/user/deadpage-hunter/internal/adapter/redis"
	"github.com/user/deadpage-hunter/internal/adapter/submitter"
	"github.com/user/deadpage-hunter/internal/delivery/http/handler"
	"github.com/user/deadpage-hunter/internal/delivery/http/router"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/internal/usecase"
	"github.com/user/deadpage-hunter/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the background daemon attached to Chrome",
		Long: `serve attaches to Chrome (BROWSER_WS_URL, or a freshly launched instance),
probes every page the active tab finishes loading, and reports dead pages to
API_URL. It also serves the popup message API on SERVER_PORT.

Examples:
  # Launch a visible Chrome and watch it
  deadpage serve

  # Attach to a Chrome started with --remote-debugging-port=9222
  BROWSER_WS_URL=ws://127.0.0.1:9222/devtools/browser/<id> deadpage serve

  # Also publish notifications for 'deadpage watch'
  deadpage serve --redis-notify

  # Serve GET /api/search over the archive in POSTGRES_URL
  deadpage serve --search`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().Bool("redis-notify", false, "Publish notifications on the Redis NOTIFY_CHANNEL")
	cmd.Flags().Bool("search", false, "Serve archive search from POSTGRES_URL")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	browser, err := chromedp_browser.NewChromedpBrowser(ctx, chromedp_browser.Options{
		RemoteURL:    cfg.BrowserWSURL,
		Headless:     cfg.BrowserHeadless,
		ProbeTimeout: cfg.ProbeTimeout(),
	})
	if err != nil {
		return err
	}
	defer browser.Close()
	slog.Info("Browser connected", "remote", cfg.BrowserWSURL != "")

	redisNotify, _ := cmd.Flags().GetBool("redis-notify")
	notifier, closeNotifier, err := buildNotifier(ctx, cfg, redisNotify)
	if err != nil {
		return err
	}
	defer closeNotifier()

	// --- Use Cases ---
	client := submitter.NewHTTPClient(cfg.APIURL, cfg.SubmitTimeout())
	prober := usecase.NewProber(browser, client, notifier)
	observer := usecase.NewNavigationObserver(browser, prober)
	broker := usecase.NewBroker(client)
	slog.Info("Reporting dead pages", "endpoint", client.Endpoint())

	var searcher usecase.Searcher
	if withSearch, _ := cmd.Flags().GetBool("search"); withSearch {
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		searcher = usecase.NewSearcher(postgres.NewArchivedDocumentRepo(pool), usecase.DefaultSearchLimit)
		slog.Info("Archive search enabled")
	}

	events, err := browser.Navigations(ctx)
	if err != nil {
		return err
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(handler.NewHandler(broker, browser, searcher)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // manual submissions wait as long as the endpoint does
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return observer.Run(gctx, events)
	})
	g.Go(func() error {
		return broker.Serve(gctx)
	})
	g.Go(func() error {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not listen on port %s: %w", cfg.ServerPort, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("Daemon stopped")
	return err
}

// buildNotifier always logs notifications and, when asked, publishes them to Redis too.
func buildNotifier(ctx context.Context, cfg *config.Config, useRedis bool) (repository.Notifier, func(), error) {
	if !useRedis {
		return notify.LogNotifier{}, func() {}, nil
	}
	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	fan := notify.Fanout{notify.LogNotifier{}, redis_adapter.NewNotifier(rdb, cfg.NotifyChannel)}
	return fan, func() { rdb.Close() }, nil
}
