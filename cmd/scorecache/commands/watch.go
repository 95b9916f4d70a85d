package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var watchFlags struct {
	team   string
	season string
	every  time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload a squad periodically until interrupted",
	Long: `watch reloads a squad every --every interval. Each reload is a new
navigation; an interrupt aborts the one in progress. Cached values are reused
across reloads, so later reloads should make no backend calls. With metrics
enabled, counters are served at metrics.addr.`,
	Example: `  scorecache watch --team 6 --season 2024 --every 30s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchFlags.every <= 0 {
			return fmt.Errorf("--every must be positive, got %s", watchFlags.every)
		}
		return withSession(cmd, func(ctx context.Context, s *session.Session, p *output.Printer) error {
			t := time.NewTicker(watchFlags.every)
			defer t.Stop()
			for {
				err := showSquad(s, p, watchFlags.team, watchFlags.season)
				if err != nil && !scorecache.IsAborted(err) {
					s.Log.Warn("reload failed", scorecache.Fields{"team": watchFlags.team, "err": err})
				}
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
				}
			}
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.team, "team", "", "Team id (required)")
	watchCmd.Flags().StringVar(&watchFlags.season, "season", "", "Season, e.g. 2024 (required)")
	watchCmd.Flags().DurationVar(&watchFlags.every, "every", 30*time.Second, "Reload interval")
	_ = watchCmd.MarkFlagRequired("team")
	_ = watchCmd.MarkFlagRequired("season")
}
