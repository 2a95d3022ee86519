package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gagyebu/internal/amqp"
	"gagyebu/internal/log"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ledger change notifications from the message broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := rt.loadConfig()
			if err != nil {
				return err
			}
			if cfg.AMQP.URL == "" {
				return fmt.Errorf("change notifications are not configured: set amqp.url")
			}
			client, err := amqp.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
			if err != nil {
				return err
			}
			defer client.Close()

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			ctx, done := GracefulShutdown(runCtx, logger.WithComponent(log.ComponentAMQP), cfg.Server.ShutdownTimeout, nil)
			out := cmd.OutOrStdout()
			err = client.ConsumeChanges(ctx, func(m *amqp.ChangeMessage) error {
				_, werr := fmt.Fprintf(out, "%s\t%s\t%s\t%s\tcount=%d\n",
					m.Timestamp.Format("2006-01-02T15:04:05Z07:00"), m.Collection, m.Op, m.ID, m.Count)
				return werr
			})
			cancel()
			WaitForShutdown(ctx, done)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
