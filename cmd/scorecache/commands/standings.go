package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var standingsFlags struct {
	league string
	season string
}

var standingsCmd = &cobra.Command{
	Use:     "standings",
	Short:   "Show a league table",
	Example: `  scorecache standings --league 39 --season 2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session, p *output.Printer) error {
			ep := s.Begin()
			st, err := s.LoadStandings(ep.Context(), standingsFlags.league, standingsFlags.season)
			if err != nil {
				return err
			}
			s.Summary(ep)
			if st.League != "" && p.Format() == output.FormatTable {
				p.Printf("%s (%s)\n", st.League, st.Season)
			}
			return p.Print(standingsView{st})
		})
	},
}

func init() {
	standingsCmd.Flags().StringVar(&standingsFlags.league, "league", "", "League id (required)")
	standingsCmd.Flags().StringVar(&standingsFlags.season, "season", "", "Season, e.g. 2024 (required)")
	_ = standingsCmd.MarkFlagRequired("league")
	_ = standingsCmd.MarkFlagRequired("season")
}
