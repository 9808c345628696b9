package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreigan/zone-importer/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parse, transform and import endpoints over HTTP",
	Long: `Start an HTTP server exposing the importer to a web front end.

Endpoints live under /api/v1. Imports stream their progress as server-sent
events. Set server.api_key in the configuration file to require an
X-API-Key header on every endpoint except /api/v1/health.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveListen string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	g, err := loadGlobals(cmd)
	if err != nil {
		return err
	}
	if serveListen != "" {
		g.cfg.Server.Listen = serveListen
	}
	if verr := g.cfg.Validate(false); verr != nil {
		return verr
	}
	if g.cfg.Server.APIKey == "" {
		g.log.Warn("server.api_key is not set, the API is open to anyone who can reach %s", g.cfg.Server.Listen)
	}

	server := api.New(g.cfg, g.log, api.Options{Version: version})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	g.log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
