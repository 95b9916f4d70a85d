package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ktevet1983-hub/scorecache/internal/cli/output"
	"github.com/ktevet1983-hub/scorecache/internal/session"
)

var playerFlags struct {
	id     string
	season string
}

var playerCmd = &cobra.Command{
	Use:     "player",
	Short:   "Show a player's profile and season totals",
	Example: `  scorecache player --id 276 --season 2023`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, s *session.Session, p *output.Printer) error {
			ep := s.Begin()
			player, err := s.LoadPlayer(ep.Context(), playerFlags.id, playerFlags.season)
			if err != nil {
				return err
			}
			s.Summary(ep)
			if p.Format() == output.FormatJSON {
				return p.Print(player)
			}
			return output.KeyValues(p.Writer(), playerPairs(player))
		})
	},
}

func init() {
	playerCmd.Flags().StringVar(&playerFlags.id, "id", "", "Player id (required)")
	playerCmd.Flags().StringVar(&playerFlags.season, "season", "", "Season, e.g. 2023 (required)")
	_ = playerCmd.MarkFlagRequired("id")
	_ = playerCmd.MarkFlagRequired("season")
}
