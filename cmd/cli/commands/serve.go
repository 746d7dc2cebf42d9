package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ressourcerie/planning/pkg/export"
	"github.com/ressourcerie/planning/pkg/session"
	"github.com/ressourcerie/planning/pkg/web"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.Ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			kv, closeKV, err := sessionStore(ctx, app)
			if err != nil {
				return err
			}
			defer closeKV()

			opts := web.Options{
				Store:           app.Database,
				Sessions:        session.NewManager(kv, app.Cfg.Session.TTL),
				GenAI:           app.GenAI,
				SpreadsheetID:   app.Cfg.Sheets.SpreadsheetID,
				VolunteersRange: app.Cfg.Sheets.VolunteersRange,
				Location:        app.Cfg.Location(),
				Logger:          app.Logger,
			}
			if app.Sheets != nil {
				opts.Sheets = app.Sheets
			}
			server := web.NewServer(opts)

			if app.Cfg.Export.Schedule != "" {
				job, err := export.NewJob(app.Database, app.Logger, export.JobConfig{
					Schedule:   app.Cfg.Export.Schedule,
					Directory:  app.Cfg.Export.Directory,
					Weeks:      app.Cfg.Export.Weeks,
					Recurrence: app.Cfg.Export.Recurrence,
					Location:   app.Cfg.Location(),
				})
				if err != nil {
					return err
				}
				job.Start()
				defer job.Stop()
			}

			httpServer := &http.Server{
				Addr:              app.Cfg.Listen,
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("HTTP server listening", zap.String("addr", app.Cfg.Listen))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
}

// sessionStore connects to redis when configured and falls back to process memory
func sessionStore(ctx context.Context, app *AppContext) (session.KV, func(), error) {
	if app.Cfg.Redis.Addr == "" {
		app.Logger.Warn("No redis configured, sessions are kept in memory")
		return session.NewMemoryKV(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.Cfg.Redis.Addr,
		Password: app.Cfg.Redis.Password,
		DB:       app.Cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", app.Cfg.Redis.Addr, err)
	}

	app.Logger.Info("Sessions stored in redis", zap.String("addr", app.Cfg.Redis.Addr))
	return session.NewRedisKV(client), func() { _ = client.Close() }, nil
}
