// Package extract pulls fields out of loosely-typed backend documents.
//
// Backend responses are decoded into *structpb.Value trees. A Path walks such
// a tree; Rules try several paths in priority order so one reader tolerates
// the different shapes the endpoints return.
package extract

import (
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// Path is a sequence of object field names (string) and list indexes (int).
type Path []any

// Rules are paths tried in order; the first non-empty string wins.
type Rules []Path

var (
	// ItemNationality reads the per-item profile response.
	ItemNationality = Rules{
		{"response", 0, "player", "nationality"},
		{"response", 0, "nationality"},
	}
	// PlayerID and PlayerNationality read one element of a bulk players list.
	PlayerID = Rules{
		{"player", "id"},
		{"id"},
	}
	PlayerNationality = Rules{
		{"player", "nationality"},
		{"nationality"},
	}
	// SquadPlayers locates the player list of a squad response.
	SquadPlayers = Path{"response", 0, "players"}
	// TeamName locates the team name of a squad response.
	TeamName = Rules{
		{"response", 0, "team", "name"},
		{"response", 0, "name"},
	}
	PlayerName = Rules{
		{"player", "name"},
		{"name"},
	}
	PlayerPosition = Rules{
		{"player", "position"},
		{"position"},
		{"statistics", 0, "games", "position"},
	}

	// StatBlocks locates the per-league statistics of a player stats response.
	StatBlocks    = Path{"response", 0, "statistics"}
	Appearances   = Rules{{"games", "appearences"}, {"games", "appearances"}}
	Goals         = Rules{{"goals", "total"}}
	Assists       = Rules{{"goals", "assists"}}
	MinutesPlayed = Rules{{"games", "minutes"}}

	// StandingsBlocks locates the tables of a standings response. Leagues
	// have one block, cups one per group.
	StandingsBlocks = Path{"response", 0, "league", "standings"}
	LeagueName      = Rules{{"response", 0, "league", "name"}}
	Rank            = Rules{{"rank"}}
	RowTeam         = Rules{{"team", "name"}}
	RowTeamID       = Rules{{"team", "id"}}
	RowGroup        = Rules{{"group"}}
	Played          = Rules{{"all", "played"}}
	GoalsDiff       = Rules{{"goalsDiff"}}
	Points          = Rules{{"points"}}

	// Player comparison result. The document is not wrapped in a response
	// envelope.
	ComparePlayer1 = Rules{{"player1", "name"}}
	ComparePlayer2 = Rules{{"player2", "name"}}
	CompareTeam1   = Rules{{"team1Name"}}
	CompareTeam2   = Rules{{"team2Name"}}
	CompareScore1  = Rules{{"scorePlayer1"}}
	CompareScore2  = Rules{{"scorePlayer2"}}
	CompareWinner  = Rules{{"winner"}}
	Breakdown      = Path{"breakdown"}
	MetricName     = Rules{{"metric"}}
	MetricP1       = Rules{{"p1"}}
	MetricP2       = Rules{{"p2"}}
	MetricNote     = Rules{{"note"}}
)

// Lookup walks p from v. It reports false when a step is missing or has the
// wrong type.
func Lookup(v *structpb.Value, p Path) (*structpb.Value, bool) {
	cur := v
	for _, step := range p {
		if cur == nil {
			return nil, false
		}
		switch s := step.(type) {
		case string:
			obj := cur.GetStructValue()
			if obj == nil {
				return nil, false
			}
			next, ok := obj.GetFields()[s]
			if !ok {
				return nil, false
			}
			cur = next
		case int:
			list := cur.GetListValue()
			if list == nil || s < 0 || s >= len(list.GetValues()) {
				return nil, false
			}
			cur = list.GetValues()[s]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// String renders a scalar as text. Whole numbers are printed without a
// fraction so numeric ids read back as "276", not "276.0". Strings are
// trimmed; null, objects and lists are not scalars.
func String(v *structpb.Value) (string, bool) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		s := strings.TrimSpace(k.StringValue)
		return s, s != ""
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), true
	default:
		return "", false
	}
}

// String returns the first non-empty string any rule yields.
func (r Rules) String(v *structpb.Value) (string, bool) {
	for _, p := range r {
		if x, ok := Lookup(v, p); ok {
			if s, ok := String(x); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Number parses the first string r yields as a float. Strings holding
// numbers count.
func (r Rules) Number(v *structpb.Value) (float64, bool) {
	s, ok := r.String(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// Sum adds the numbers r yields from each of vs; anything else is skipped.
func (r Rules) Sum(vs []*structpb.Value) float64 {
	var total float64
	for _, v := range vs {
		if f, ok := r.Number(v); ok {
			total += f
		}
	}
	return total
}

// List returns the elements of the list at p, or nil.
func List(v *structpb.Value, p Path) []*structpb.Value {
	x, ok := Lookup(v, p)
	if !ok {
		return nil
	}
	return x.GetListValue().GetValues()
}
