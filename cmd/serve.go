package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/karolswdev/jirapro/internal/server"
)

const shutdownTimeout = 10 * time.Second

// serveRunE runs the HTTP service until ctx ends, then shuts it down gracefully.
func serveRunE(ctx context.Context, provider *Provider, addr string) error {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(server.Options{
		Issues:     provider.Issues,
		Notices:    provider.Notices,
		Authorizer: provider.Manager,
		Clients:    provider.Clients,
		UserHeader: provider.App.Serve.UserHeader,
		PublicURL:  provider.App.Serve.PublicURL,
	})
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		Log.Info().Str("addr", addr).Str("public_url", provider.App.Serve.PublicURL).Msg("Starting HTTP service")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http service failed: %w", err)
	case <-ctx.Done():
	}

	Log.Info().Msg("Shutting down HTTP service")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http service shutdown: %w", err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the issue-creation and OAuth endpoints over HTTP",
		Long: `Starts the HTTP service the wiki calls for suggestions, issue creation, macro notices
and the OAuth authorization pages. The caller's identity is taken from the header named by
serve.user_header, which a trusted front proxy must set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := GetProvider()
			if err != nil {
				printErrorHint(cmd.ErrOrStderr(), err)
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = provider.App.Serve.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveRunE(ctx, provider, addr)
		},
	}
	serveCmd.Flags().String("addr", "", "Listen address (default: serve.addr from config.yaml)")
	return serveCmd
}
