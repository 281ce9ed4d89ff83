package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	redis_adapter "github.com/user/deadpage-hunter/internal/adapter/redis"
	"github.com/user/deadpage-hunter/internal/entity"
)

func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print notifications published by 'serve --redis-notify'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rdb, err := newRedisClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer rdb.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Listening on %s\n", cfg.NotifyChannel)
			return redis_adapter.NewNotifier(rdb, cfg.NotifyChannel).Subscribe(ctx, func(n entity.Notification) {
				fmt.Fprintf(out, "%s: %s %s\n", n.Title, n.Message, n.URL)
			})
		},
	}
}
