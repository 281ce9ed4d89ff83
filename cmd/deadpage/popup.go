package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/deadpage-hunter/internal/adapter/messenger"
	"github.com/user/deadpage-hunter/internal/adapter/submitter"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/internal/usecase"
	"github.com/user/deadpage-hunter/pkg/config"
)

const daemonRequestTimeout = 30 * time.Second

// consoleView prints popup state, one line per change.
type consoleView struct {
	mu  sync.Mutex
	out io.Writer
}

func (v *consoleView) ShowStatus(s usecase.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, "[%s] %s\n", s.Kind, s.Text)
}

func (v *consoleView) ShowInput(value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if value != "" {
		fmt.Fprintf(v.out, "url: %s\n", value)
	}
}

func NewPopupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "popup",
		Short: "Interactive manual reporting prompt",
		Long: `popup is the manual reporting front end. It pre-fills the URL of the
active tab (asked from a running 'deadpage serve' at DAEMON_URL), then reads
URLs from stdin and submits each one through the daemon.

An empty line submits the current URL; "q" or EOF quits.`,
		Args: cobra.NoArgs,
		RunE: runPopup,
	}
}

func runPopup(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon := messenger.NewDaemonClient(cfg.DaemonURL, daemonRequestTimeout)
	view := &consoleView{out: cmd.OutOrStdout()}
	popup := usecase.NewPopupController(daemon, daemon, view, usecase.DefaultRevertDelay)
	defer popup.Close()

	view.ShowStatus(usecase.Status{Kind: usecase.StatusIdle, Text: usecase.IdleText})
	popup.Prefill(ctx)

	lines := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !lines.Scan() {
			return lines.Err()
		}
		line := strings.TrimSpace(lines.Text())
		if line == "q" || line == "quit" {
			return nil
		}
		if line != "" {
			popup.SetInput(line)
		}
		popup.Submit(ctx)
		if ctx.Err() != nil {
			return nil
		}
	}
}

func NewSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Report a single URL as dead",
		Long: `submit validates the URL like the popup does and sends it to the collection
endpoint, through the daemon by default or directly with --direct.

Examples:
  deadpage submit https://example.com/removed-article
  API_URL=https://collector.example/submit-url deadpage submit --direct https://example.com/x`,
		Args: cobra.ExactArgs(1),
		RunE: runSubmit,
	}
	cmd.Flags().Bool("direct", false, "Post to API_URL without going through a running daemon")
	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	direct, _ := cmd.Flags().GetBool("direct")
	daemon := messenger.NewDaemonClient(cfg.DaemonURL, daemonRequestTimeout)
	var send repository.Messenger = daemon
	if direct {
		broker, stopBroker := startDirectBroker(ctx, cfg)
		defer stopBroker()
		send = broker
	}

	popup := usecase.NewPopupController(send, daemon, &consoleView{out: cmd.OutOrStdout()}, 0)
	defer popup.Close()
	popup.SetInput(args[0])

	if st := popup.Submit(ctx); st.Kind != usecase.StatusSuccess {
		return fmt.Errorf("%s", st.Text)
	}
	return nil
}

// startDirectBroker runs an in-process broker in front of the submission client.
func startDirectBroker(ctx context.Context, cfg *config.Config) (*usecase.Broker, func()) {
	broker := usecase.NewBroker(submitter.NewHTTPClient(cfg.APIURL, cfg.SubmitTimeout()))
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = broker.Serve(ctx)
	}()
	return broker, func() {
		cancel()
		<-done
	}
}
