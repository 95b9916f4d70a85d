package commands

import (
	"fmt"
	"strconv"

	"github.com/ktevet1983-hub/scorecache/internal/session"
)

type squadView struct{ *session.Squad }

func (v squadView) Headers() []string { return []string{"ID", "Name", "Position", "Nationality"} }

func (v squadView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Players))
	for _, p := range v.Players {
		rows = append(rows, []string{p.ID, p.Name, p.Position, p.Nationality})
	}
	return rows
}

type standingsView struct{ *session.Standings }

func (v standingsView) Headers() []string {
	return []string{"Group", "#", "Team", "PL", "GD", "Pts"}
}

func (v standingsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Standings.Rows))
	for _, r := range v.Standings.Rows {
		rows = append(rows, []string{r.Group, r.Rank, r.Team, r.Played, r.GoalsDiff, r.Points})
	}
	return rows
}

func playerPairs(p *session.Player) [][2]string {
	return [][2]string{
		{"Player", p.Name},
		{"ID", p.ID},
		{"Nationality", p.Nationality},
		{"Season", p.Season},
		{"Appearances", strconv.Itoa(p.Appearances)},
		{"Minutes", strconv.Itoa(p.Minutes)},
		{"Goals", strconv.Itoa(p.Goals)},
		{"Assists", strconv.Itoa(p.Assists)},
	}
}

type breakdownView struct{ *session.Comparison }

func (v breakdownView) Headers() []string {
	return []string{"Metric", v.Player1, v.Player2, "Note"}
}

func (v breakdownView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Breakdown))
	for _, m := range v.Breakdown {
		rows = append(rows, []string{m.Metric, m.P1, m.P2, m.Note})
	}
	return rows
}

func comparePairs(c *session.Comparison) [][2]string {
	side := func(team, player string, score float64, pct int) string {
		if team != "" {
			player = team + " / " + player
		}
		return fmt.Sprintf("%s: %g points (%d%%)", player, score, pct)
	}
	pos := c.Columns[0].PositionGroup
	if pos == "" {
		pos = c.Columns[1].PositionGroup
	}
	verdict := "Too close to call: draw"
	switch c.Winner {
	case "PLAYER1":
		verdict = "We would pick " + c.Player1
	case "PLAYER2":
		verdict = "We would pick " + c.Player2
	}
	return [][2]string{
		{"League", c.League},
		{"Season", c.Season},
		{"Position", pos},
		{"Player 1", side(c.Team1, c.Player1, c.Score1, c.Percent1)},
		{"Player 2", side(c.Team2, c.Player2, c.Score2, c.Percent2)},
		{"Verdict", verdict},
	}
}
