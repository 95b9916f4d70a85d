package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/backend"
	"github.com/ktevet1983-hub/scorecache/extract"
	"github.com/ktevet1983-hub/scorecache/internal/util"
)

// ErrInvalidSelection is returned by Compare when a column does not name a
// team of the league or a player of that team, or when the two players play
// in different position groups.
var ErrInvalidSelection = errors.New("session: invalid selection")

// Position groups.
const (
	GroupGK  = "GK"
	GroupDEF = "DEF"
	GroupMID = "MID"
	GroupFWD = "FWD"
)

// PositionGroup maps a squad position ("Goalkeeper", "D", "ST", ...) to a
// position group, or "" when it cannot tell.
func PositionGroup(position string) string {
	p := strings.ToUpper(strings.TrimSpace(position))
	switch {
	case p == "":
		return ""
	case p == "G" || p == "GOALKEEPER" || strings.Contains(p, "GK"):
		return GroupGK
	case strings.HasPrefix(p, "D"):
		return GroupDEF
	case strings.HasPrefix(p, "M"):
		return GroupMID
	case strings.HasPrefix(p, "F"), strings.HasPrefix(p, "A"),
		strings.Contains(p, "ST"), strings.Contains(p, "LW"), strings.Contains(p, "RW"):
		return GroupFWD
	default:
		return ""
	}
}

type Team struct {
	ID   string
	Name string
}

// LoadTeams lists the teams of a league table, once each, in table order.
// Rows without an id or a name are skipped.
func (s *Session) LoadTeams(ctx context.Context, league, season string) ([]Team, error) {
	st, err := s.LoadStandings(ctx, league, season)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(st.Rows))
	var out []Team
	for _, r := range st.Rows {
		if r.TeamID == "" || r.Team == "" || seen[r.TeamID] {
			continue
		}
		seen[r.TeamID] = true
		out = append(out, Team{ID: r.TeamID, Name: r.Team})
	}
	return out, nil
}

// Pick is one column of a comparison.
type Pick struct {
	Team   string
	Player string
}

type Column struct {
	Team          Team
	Player        SquadPlayer
	PositionGroup string
}

type Metric struct {
	Metric string
	P1     string
	P2     string
	Note   string
}

type Comparison struct {
	League    string
	Season    string
	Columns   [2]Column
	Player1   string
	Player2   string
	Team1     string
	Team2     string
	Score1    float64
	Score2    float64
	Percent1  int
	Percent2  int
	Winner    string // PLAYER1, PLAYER2 or DRAW
	Breakdown []Metric
}

// Compare resolves both columns concurrently, each from the league's team
// list and then the team's squad, and asks the backend to score the two
// players. Both picks are checked against the same league and season.
func (s *Session) Compare(ctx context.Context, league, season string, a, b Pick) (*Comparison, error) {
	out := &Comparison{League: league, Season: season}
	g, gctx := errgroup.WithContext(ctx)
	for i, pick := range [2]Pick{a, b} {
		i, pick := i, pick
		g.Go(func() (err error) {
			out.Columns[i], err = s.column(gctx, league, season, pick)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	g1, g2 := out.Columns[0].PositionGroup, out.Columns[1].PositionGroup
	if g1 != "" && g2 != "" && g1 != g2 {
		return nil, fmt.Errorf("%w: cannot compare %s with %s", ErrInvalidSelection, g1, g2)
	}

	args := backend.CompareArgs{
		League:  league,
		Season:  season,
		Team1:   a.Team,
		Player1: a.Player,
		Team2:   b.Team,
		Player2: b.Player,
	}
	k := scorecache.Key{ID: util.Join(a.Team, a.Player, b.Team, b.Player), Group: league, Season: season}
	doc, err := s.Comparisons.Get(ctx, k, func(ctx context.Context) (*structpb.Struct, error) {
		return s.Backend.ComparePlayers(ctx, args)
	})
	if err != nil {
		return nil, err
	}
	readComparison(structpb.NewStructValue(doc), out)
	return out, nil
}

func (s *Session) column(ctx context.Context, league, season string, pick Pick) (Column, error) {
	teams, err := s.LoadTeams(ctx, league, season)
	if err != nil {
		return Column{}, err
	}
	col := Column{}
	for _, t := range teams {
		if t.ID == pick.Team {
			col.Team = t
			break
		}
	}
	if col.Team.ID == "" {
		return Column{}, fmt.Errorf("%w: team %s is not in league %s (%s)", ErrInvalidSelection, pick.Team, league, season)
	}

	root, err := s.squadDoc(ctx, pick.Team, season)
	if err != nil {
		return Column{}, err
	}
	for _, item := range extract.List(root, extract.SquadPlayers) {
		p, ok := squadPlayer(item)
		if !ok || p.ID != pick.Player {
			continue
		}
		if nat, ok := extract.PlayerNationality.String(item); ok {
			p.Nationality = nat
		}
		col.Player = p
		col.PositionGroup = PositionGroup(p.Position)
		return col, nil
	}
	return Column{}, fmt.Errorf("%w: player %s is not in the %s squad", ErrInvalidSelection, pick.Player, col.Team.Name)
}

func readComparison(v *structpb.Value, out *Comparison) {
	out.Player1, _ = extract.ComparePlayer1.String(v)
	out.Player2, _ = extract.ComparePlayer2.String(v)
	if out.Player1 == "" {
		out.Player1 = out.Columns[0].Player.Name
	}
	if out.Player2 == "" {
		out.Player2 = out.Columns[1].Player.Name
	}
	out.Team1, _ = extract.CompareTeam1.String(v)
	out.Team2, _ = extract.CompareTeam2.String(v)
	out.Score1, _ = extract.CompareScore1.Number(v)
	out.Score2, _ = extract.CompareScore2.Number(v)
	out.Percent1, out.Percent2 = percents(out.Score1, out.Score2)

	w, _ := extract.CompareWinner.String(v)
	switch w = strings.ToUpper(w); w {
	case "PLAYER1", "PLAYER2":
		out.Winner = w
	default:
		out.Winner = "DRAW"
	}

	for _, row := range extract.List(v, extract.Breakdown) {
		m := Metric{Metric: "-", P1: "-", P2: "-"}
		if s, ok := extract.MetricName.String(row); ok {
			m.Metric = s
		}
		if s, ok := extract.MetricP1.String(row); ok {
			m.P1 = s
		}
		if s, ok := extract.MetricP2.String(row); ok {
			m.P2 = s
		}
		m.Note, _ = extract.MetricNote.String(row)
		out.Breakdown = append(out.Breakdown, m)
	}
}

// percents splits the total score between the two players; negative scores
// count as zero.
func percents(a, b float64) (int, int) {
	a, b = math.Max(a, 0), math.Max(b, 0)
	total := a + b
	if total <= 0 {
		return 0, 0
	}
	return int(math.Round(a / total * 100)), int(math.Round(b / total * 100))
}
