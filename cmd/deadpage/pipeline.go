package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/deadpage-hunter/internal/adapter/httpcheck"
	"github.com/user/deadpage-hunter/internal/adapter/postgres"
	redis_adapter "github.com/user/deadpage-hunter/internal/adapter/redis"
	"github.com/user/deadpage-hunter/internal/adapter/wayback"
	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/usecase"
)

func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-check reported URLs and queue the confirmed dead ones",
		Long: `verify claims PENDING rows from reported_urls, sends each URL a HEAD request
and either marks it CONFIRMED_DEAD (404, timeout or connection error) and
queues it for 'deadpage archive', or deletes the report when the page is alive.`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}
	cmd.Flags().Int("batch", 0, "Rows to claim (default VERIFY_BATCH_SIZE)")
	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	batch := cfg.VerifyBatchSize
	if n, _ := cmd.Flags().GetInt("batch"); n > 0 {
		batch = n
	}

	verifier := usecase.NewVerifier(
		postgres.NewReportedURLRepo(pool),
		httpcheck.NewChecker(cfg.VerifyTimeout()),
		redis_adapter.NewQueueRepo(rdb),
		batch,
		cfg.VerifyDelay(),
	)
	sum, err := verifier.Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "checked=%d dead=%d alive=%d errors=%d\n", sum.Checked, sum.Dead, sum.Alive, sum.Errors)
	return err
}

func NewArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Fetch Wayback Machine snapshots for queued dead URLs",
		Long: `archive drains the dead-URL queue filled by 'deadpage verify', looks up the
closest Wayback Machine capture of each URL, strips page boilerplate and
stores the text in archived_documents.`,
		Args: cobra.NoArgs,
		RunE: runArchive,
	}
}

func runArchive(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := newRedisClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	archiver := usecase.NewArchiver(
		redis_adapter.NewQueueRepo(rdb),
		redis_adapter.NewVisitedRepo(rdb),
		wayback.NewClient(cfg.WaybackURL),
		postgres.NewArchivedDocumentRepo(pool),
		cfg.ArchiveDedup(),
		cfg.ArchiveDelay(),
	)
	sum, err := archiver.Run(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "processed=%d archived=%d no_snapshot=%d skipped=%d errors=%d\n",
		sum.Processed, sum.Archived, sum.NoSnapshot, sum.Skipped, sum.Errors)
	return err
}

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over archived documents",
		Long: `search ranks archived_documents against the query with PostgreSQL full-text
search and prints each match with a highlighted excerpt.

Examples:
  deadpage search harga beras
  deadpage search --lang english rice prices`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().String("lang", usecase.DefaultSearchLanguage, "Text search configuration (indonesian, english)")
	cmd.Flags().Int("limit", usecase.DefaultSearchLimit, "Maximum results")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	lang, _ := cmd.Flags().GetString("lang")
	limit, _ := cmd.Flags().GetInt("limit")
	searcher := usecase.NewSearcher(postgres.NewArchivedDocumentRepo(pool), limit)

	results, err := searcher.Search(cmd.Context(), strings.Join(args, " "), lang)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), results)
	return nil
}

func printResults(w io.Writer, results []*entity.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no matches")
		return
	}
	for _, res := range results {
		captured := "unknown"
		if res.ArchiveTimestamp != nil {
			captured = res.ArchiveTimestamp.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s  [%s]\n    %s\n", res.OriginalURL, captured, res.Snippet)
	}
}

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the reported_urls and archived_documents tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.EnsureSchema(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
