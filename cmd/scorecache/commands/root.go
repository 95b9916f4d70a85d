// Package commands implements the scorecache CLI.
package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/config"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var flags struct {
	config string
	output string
}

var rootCmd = &cobra.Command{
	Use:   "scorecache",
	Short: "Football dashboard data with two-tier caching",
	Long: `scorecache loads squads, players, standings and player comparisons from
the dashboard API.

Lookups are cached in a volatile tier for the current run and a durable tier
for the session, concurrent lookups for the same key share one request, and
player nationalities are filled in from one bulk call where possible.

Configuration is read from --config, a .env file and SCORECACHE_* variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "Path to config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "Output format (table|json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(squadCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(standingsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(watchCmd)
}

// withSession loads configuration, builds a session and runs fn on it. An
// interrupt aborts the current navigation; fn then sees an abort error,
// which is reported as context.Canceled.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session, p *output.Printer) error) error {
	format, err := output.ParseFormat(flags.output)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := session.New(context.Background(), cfg, session.Options{})
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(cctx); err != nil {
			s.Log.Warn("session close failed", scorecache.Fields{"err": err})
		}
	}()

	go func() {
		<-ctx.Done()
		s.Nav.Unload()
	}()

	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics.Addr, s.Log)
		defer srv.Close()
	}

	err = fn(ctx, s, output.NewPrinter(cmd.OutOrStdout(), format))
	if scorecache.IsAborted(err) {
		return context.Canceled
	}
	return err
}

func serveMetrics(addr string, log scorecache.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", scorecache.Fields{"addr": addr, "err": err})
		}
	}()
	log.Info("serving metrics", scorecache.Fields{"addr": addr})
	return srv
}
