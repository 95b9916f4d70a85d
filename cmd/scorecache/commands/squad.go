package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var squadFlags struct {
	team   string
	season string
}

var squadCmd = &cobra.Command{
	Use:   "squad",
	Short: "Show a team's squad with player nationalities",
	Example: `  scorecache squad --team 6 --season 2024
  scorecache squad --team 6 --season 2024 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session, p *output.Printer) error {
			return showSquad(s, p, squadFlags.team, squadFlags.season)
		})
	},
}

func init() {
	squadCmd.Flags().StringVar(&squadFlags.team, "team", "", "Team id (required)")
	squadCmd.Flags().StringVar(&squadFlags.season, "season", "", "Season, e.g. 2024 (required)")
	_ = squadCmd.MarkFlagRequired("team")
	_ = squadCmd.MarkFlagRequired("season")
}

// showSquad runs one navigation: load, print, log the load summary.
func showSquad(s *session.Session, p *output.Printer, team, season string) error {
	ep := s.Begin()
	start := time.Now()
	squad, err := s.LoadSquad(ep.Context(), team, season)
	if err != nil {
		return err
	}
	sum := s.Summary(ep)
	s.Log.Debug("squad loaded", scorecache.Fields{
		"team":    team,
		"season":  season,
		"players": len(squad.Players),
		"took":    time.Since(start),
		"cause":   sum.Cause,
	})
	if squad.Team != "" && p.Format() == output.FormatTable {
		p.Printf("%s (%s)\n", squad.Team, season)
	}
	return p.Print(squadView{squad})
}
