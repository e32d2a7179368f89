package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/cmd/root"
	"github.com/neilberkman/ccsearch/internal/api"
	"github.com/neilberkman/ccsearch/internal/watch"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd runs the JSON API
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversations, search and stats over HTTP",
	Long: `Serve a read-only JSON API over the projects root. Project indexes are
invalidated as soon as a log changes unless --watch=false is given.

Endpoints:
  GET /health
  GET /metrics
  GET /api/projects
  GET /api/projects/:project/conversations
  GET /api/projects/:project/conversations/:id
  GET /api/projects/:project/conversations/:id/stats
  GET /api/projects/:project/stats
  GET /api/search?q=&mode=&project=&limit=`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8787)")
	ServeCmd.Flags().Bool("watch", true, "invalidate cached indexes when logs change")

	if err := viper.BindPFlag("server.addr", ServeCmd.Flags().Lookup("addr")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
	if err := viper.BindPFlag("server.watch", ServeCmd.Flags().Lookup("watch")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := root.OpenApp()
	if err != nil {
		return err
	}
	defer root.CloseApp(a)

	logger := root.Logger()

	if a.Config.Server.Watch {
		w, err := watch.New(a.Config.Projects.Root, a.Service, logger.Named("watch"))
		if err != nil {
			return err
		}
		defer w.Stop()
		if err := w.Start(ctx); err != nil {
			logger.Warn("file watching disabled", zap.Error(err))
		}
	}

	srv, err := api.NewServer(a.Service, logger.Named("api"), a.Config.Server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", a.Config.Projects.Root, a.Config.Server.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
