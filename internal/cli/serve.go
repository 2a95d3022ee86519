package cli

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	apphttp "gagyebu/internal/http"
	"gagyebu/internal/log"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var (
		port      int
		rateLimit int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a JSON API",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, app *App, _ []string) error {
			cfg := app.Config
			addr := ":" + cfg.Server.Port
			if cmd.Flags().Changed("port") {
				addr = ":" + strconv.Itoa(port)
			}

			opts := []apphttp.Option{
				apphttp.WithLogger(app.Logger),
				apphttp.WithClock(rt.now),
				apphttp.WithRateLimit(rateLimit),
				apphttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
			}
			if cfg.Sheets.SpreadsheetID != "" || rt.exporter != nil {
				exp, err := app.Exporter(cmd.Context())
				if err != nil {
					return err
				}
				opts = append(opts, apphttp.WithExporter(exp))
			}
			srv := apphttp.NewServer(addr, app.Records, app.Applier, opts...)

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			ctx, done := GracefulShutdown(runCtx, app.Logger, cfg.Server.ShutdownTimeout, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Error("Server shutdown error", log.FieldError, err)
				}
			})

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Starting gagyebu server",
					"addr", addr,
					"backend", cfg.Backend,
					"records", len(app.Store.Records()))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var serveErr error
			select {
			case serveErr = <-errCh:
				cancel()
			case <-ctx.Done():
			}
			WaitForShutdown(ctx, done)
			if serveErr != nil {
				return serveErr
			}
			app.Logger.Info("Server stopped gracefully")
			return nil
		}),
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", apphttp.DefaultRequestsPerMinute, "requests per minute per client, 0 disables")
	return cmd
}
