package session

import (
	"context"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/extract"
	"github.com/ktevet1983-hub/scorecache/internal/util"
)

type SquadPlayer struct {
	ID          string
	Name        string
	Position    string
	Nationality string
}

type Squad struct {
	Team    string
	Season  string
	Players []SquadPlayer
}

// LoadSquad fetches a squad and fills in every player's nationality. Rows
// that already carry one are used as is. When any other nationality is not
// cached, the bulk players call is started before the per-player lookups so
// most of them are answered by one request.
func (s *Session) LoadSquad(ctx context.Context, team, season string) (*Squad, error) {
	root, err := s.squadDoc(ctx, team, season)
	if err != nil {
		return nil, err
	}
	out := &Squad{Season: season}
	out.Team, _ = extract.TeamName.String(root)

	groupKey := util.Join(team, season)
	var pending []int
	for _, item := range extract.List(root, extract.SquadPlayers) {
		p, ok := squadPlayer(item)
		if !ok {
			continue
		}
		if nat, ok := extract.PlayerNationality.String(item); ok {
			p.Nationality = nat
			if err := s.Nationality.Seed(ctx, p.ID, groupKey, nat); err != nil {
				if scorecache.IsAborted(err) {
					return nil, err
				}
				s.Log.Warn("nationality seed failed", scorecache.Fields{"id": p.ID, "group": groupKey, "err": err})
			}
		} else {
			pending = append(pending, len(out.Players))
		}
		out.Players = append(out.Players, p)
	}

	var missing []*SquadPlayer
	for _, i := range pending {
		p := &out.Players[i]
		if nat, ok := s.Nationality.Peek(ctx, p.ID, groupKey); ok {
			p.Nationality = nat
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) == 0 {
		return out, nil
	}

	s.Nationality.PrefetchGroup(ctx, groupKey)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range missing {
		p := p
		g.Go(func() error {
			nat, err := s.Nationality.GetOrFetch(gctx, p.ID, groupKey)
			if err != nil {
				return err
			}
			p.Nationality = nat
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Session) squadDoc(ctx context.Context, team, season string) (*structpb.Value, error) {
	doc, err := s.Squads.Get(ctx, scorecache.Key{ID: team, Season: season}, func(ctx context.Context) (*structpb.Struct, error) {
		return s.Backend.Squad(ctx, team, season)
	})
	if err != nil {
		return nil, err
	}
	return structpb.NewStructValue(doc), nil
}

func squadPlayer(item *structpb.Value) (SquadPlayer, bool) {
	id, ok := extract.PlayerID.String(item)
	if !ok {
		return SquadPlayer{}, false
	}
	p := SquadPlayer{ID: id, Nationality: Placeholder}
	p.Name, _ = extract.PlayerName.String(item)
	p.Position, _ = extract.PlayerPosition.String(item)
	return p, true
}

type Player struct {
	ID          string
	Season      string
	Name        string
	Nationality string
	Appearances int
	Minutes     int
	Goals       int
	Assists     int
}

// LoadPlayer fetches a player's profile and season statistics concurrently.
// A missing profile fails the load; missing statistics leave the totals at
// zero.
func (s *Session) LoadPlayer(ctx context.Context, id, season string) (*Player, error) {
	var profile, stats *structpb.Struct
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = s.Profiles.Get(gctx, scorecache.Key{ID: id}, func(ctx context.Context) (*structpb.Struct, error) {
			return s.Backend.PlayerProfile(ctx, id)
		})
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.PlayerStats.Get(gctx, scorecache.Key{ID: id, Season: season}, func(ctx context.Context) (*structpb.Struct, error) {
			return s.Backend.PlayerStats(ctx, id, season)
		})
		if scorecache.Classify(err) == scorecache.ErrNotFound {
			stats, err = nil, nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Player{ID: id, Season: season, Nationality: Placeholder}
	if first, ok := extract.Lookup(structpb.NewStructValue(profile), extract.Path{"response", 0}); ok {
		out.Name, _ = extract.PlayerName.String(first)
		if nat, ok := extract.PlayerNationality.String(first); ok {
			out.Nationality = nat
		}
	}
	if stats != nil {
		blocks := extract.List(structpb.NewStructValue(stats), extract.StatBlocks)
		out.Appearances = int(extract.Appearances.Sum(blocks))
		out.Minutes = int(extract.MinutesPlayed.Sum(blocks))
		out.Goals = int(extract.Goals.Sum(blocks))
		out.Assists = int(extract.Assists.Sum(blocks))
	}
	return out, nil
}

type StandingsRow struct {
	Group     string
	Rank      string
	TeamID    string
	Team      string
	Played    string
	GoalsDiff string
	Points    string
}

type Standings struct {
	League string
	Season string
	Rows   []StandingsRow
}

// LoadStandings fetches a league table. Cup competitions send one block per
// group; rows keep the backend's order.
func (s *Session) LoadStandings(ctx context.Context, league, season string) (*Standings, error) {
	doc, err := s.Standings.Get(ctx, scorecache.Key{ID: league, Season: season}, func(ctx context.Context) (*structpb.Struct, error) {
		return s.Backend.Standings(ctx, league, season)
	})
	if err != nil {
		return nil, err
	}
	root := structpb.NewStructValue(doc)
	out := &Standings{Season: season}
	out.League, _ = extract.LeagueName.String(root)

	for _, block := range extract.List(root, extract.StandingsBlocks) {
		for _, row := range block.GetListValue().GetValues() {
			r := StandingsRow{}
			r.Group, _ = extract.RowGroup.String(row)
			r.Rank, _ = extract.Rank.String(row)
			r.TeamID, _ = extract.RowTeamID.String(row)
			r.Team, _ = extract.RowTeam.String(row)
			r.Played, _ = extract.Played.String(row)
			r.GoalsDiff, _ = extract.GoalsDiff.String(row)
			r.Points, _ = extract.Points.String(row)
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}
