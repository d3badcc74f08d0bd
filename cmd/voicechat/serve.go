package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/spf13/cobra"

	"github.com/Vovarama1992/voicechat/internal/delivery"
	"github.com/Vovarama1992/voicechat/internal/pipeline"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook API",
		Long: `Serve accepts voice clips on POST /v1/turns (multipart field "audio") and
answers with the reply text and a link to the reply audio.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			zl := logger.NewZapLogger(log.Sugar())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := pipeline.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer p.Close()

			if keep := cfg.Server.AudioRetention; keep > 0 {
				prune := func() {
					n, err := delivery.PruneAudio(cfg.Server.AudioDir, keep, time.Now())
					if err != nil {
						zl.Log(logger.LogEntry{Level: "warn", Message: "audio cleanup failed", Error: err, Service: "voicechat"})
						return
					}
					if n > 0 {
						zl.Log(logger.LogEntry{Level: "info", Message: fmt.Sprintf("removed %d expired reply files", n), Service: "voicechat"})
					}
				}
				prune()
				go func() {
					ticker := time.NewTicker(time.Hour)
					defer ticker.Stop()
					for {
						select {
						case <-ctx.Done():
							return
						case <-ticker.C:
							prune()
						}
					}
				}()
			}

			h := delivery.NewHandler(p, cfg.Server.AudioDir, cfg.Server.MaxUpload, zl)
			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           delivery.NewRouter(h, cfg.Server.RateLimit),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				zl.Log(logger.LogEntry{
					Level:   "info",
					Message: "listening at " + srv.Addr,
					Service: "voicechat",
				})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout+5*time.Second)
			defer cancel()
			zl.Log(logger.LogEntry{Level: "info", Message: "shutting down", Service: "voicechat"})
			return srv.Shutdown(shutdownCtx)
		},
	}
}
