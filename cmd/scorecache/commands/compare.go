package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var compareFlags struct {
	league  string
	season  string
	team1   string
	player1 string
	team2   string
	player2 string
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two players of one league and season",
	Long: `Compare two players of one league and season.

Each side is checked against the league table and the team's squad before the
backend scores the pair. Players from different position groups (goalkeeper,
defender, midfielder, forward) cannot be compared.`,
	Example: `  scorecache compare --league 71 --season 2024 --team1 121 --player1 3 --team2 127 --player2 9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session, p *output.Printer) error {
			ep := s.Begin()
			cmp, err := s.Compare(ep.Context(), compareFlags.league, compareFlags.season,
				session.Pick{Team: compareFlags.team1, Player: compareFlags.player1},
				session.Pick{Team: compareFlags.team2, Player: compareFlags.player2},
			)
			if err != nil {
				return err
			}
			s.Summary(ep)
			if p.Format() == output.FormatJSON {
				return p.Print(cmp)
			}
			if err := output.KeyValues(p.Writer(), comparePairs(cmp)); err != nil {
				return err
			}
			if len(cmp.Breakdown) == 0 {
				return nil
			}
			p.Printf("\n")
			return p.Print(breakdownView{cmp})
		})
	},
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareFlags.league, "league", "", "League id (required)")
	f.StringVar(&compareFlags.season, "season", "", "Season, e.g. 2024 (required)")
	f.StringVar(&compareFlags.team1, "team1", "", "First player's team id (required)")
	f.StringVar(&compareFlags.player1, "player1", "", "First player id (required)")
	f.StringVar(&compareFlags.team2, "team2", "", "Second player's team id (required)")
	f.StringVar(&compareFlags.player2, "player2", "", "Second player id (required)")
	for _, name := range []string{"league", "season", "team1", "player1", "team2", "player2"} {
		_ = compareCmd.MarkFlagRequired(name)
	}
}
