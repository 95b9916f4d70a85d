package session

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/internal/config"
)

type calls struct {
	squad, players, profiles, profile, stats, standings, compare atomic.Int32
}

// fakeAPI serves team 10 (players 1, 2, 3; the bulk list omits 3), team 11
// (player 2 carries its nationality, the bulk list has player 1 only), team
// 127 (player 9) and team "slow", whose player endpoints never answer.
// League 71 lists teams 121 and 127.
func fakeAPI(t *testing.T, c *calls) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	r.Get("/squad", func(w http.ResponseWriter, r *http.Request) {
		c.squad.Add(1)
		switch r.URL.Query().Get("team") {
		case "11":
			write(w, `{"response":[{"team":{"id":11,"name":"Mixed"},"players":[
				{"id":1,"name":"Rodri","position":"Midfielder","nationality":""},
				{"id":2,"name":"Casemiro","position":"Midfielder","nationality":"Brazil"}
			]}]}`)
			return
		case "127":
			write(w, `{"response":[{"team":{"id":127,"name":"Flamengo"},"players":[
				{"id":9,"name":"Pedro","position":"Attacker","nationality":"Brazil"}
			]}]}`)
			return
		}
		write(w, `{"response":[{"team":{"id":10,"name":"Brazil"},"players":[
			{"id":1,"name":"Alisson","position":"Goalkeeper"},
			{"id":2,"name":"Marquinhos","position":"Defender"},
			{"id":3,"name":"Vinicius","position":"Attacker"}
		]}]}`)
	})
	r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
		c.players.Add(1)
		switch r.URL.Query().Get("team") {
		case "slow":
			<-r.Context().Done()
			return
		case "11":
			write(w, `{"response":[{"player":{"id":1,"nationality":"Spain"}}]}`)
			return
		}
		write(w, `{"response":[
			{"player":{"id":1,"nationality":"Brazil"}},
			{"player":{"id":2,"nationality":"Brazil"}}
		]}`)
	})
	r.Get("/profiles", func(w http.ResponseWriter, r *http.Request) {
		c.profiles.Add(1)
		write(w, `{"response":[{"player":{"id":3,"nationality":"Brazil "}}]}`)
	})
	r.Get("/playerProfile", func(w http.ResponseWriter, r *http.Request) {
		c.profile.Add(1)
		write(w, `{"response":[{"player":{"id":276,"name":"Neymar","nationality":"Brazil"}}]}`)
	})
	r.Get("/playerStats", func(w http.ResponseWriter, r *http.Request) {
		c.stats.Add(1)
		if r.URL.Query().Get("season") == "1990" {
			write(w, `{"response":[]}`)
			return
		}
		write(w, `{"response":[{"statistics":[
			{"games":{"appearences":20,"minutes":1700},"goals":{"total":8,"assists":5}},
			{"games":{"appearences":4,"minutes":300},"goals":{"total":1,"assists":null}}
		]}]}`)
	})
	r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
		c.standings.Add(1)
		if r.URL.Query().Get("league") == "cup" {
			write(w, `{"response":[{"league":{"name":"Copa","standings":[
				[{"rank":1,"group":"Group A","team":{"id":121,"name":"Palmeiras"}},{"rank":2,"group":"Group A","team":{"name":"Unknown"}}],
				[{"rank":1,"group":"Final","team":{"id":121,"name":"Palmeiras"}},{"rank":2,"group":"Final","team":{"id":131,"name":"Corinthians"}}]
			]}}]}`)
			return
		}
		write(w, `{"response":[{"league":{"name":"Serie A","standings":[[
			{"rank":1,"team":{"id":121,"name":"Palmeiras"},"points":70,"goalsDiff":30,"all":{"played":38}},
			{"rank":2,"team":{"id":127,"name":"Flamengo"},"points":66,"goalsDiff":25,"all":{"played":38}}
		]]}}]}`)
	})
	r.Get("/predict/comparePlayers", func(w http.ResponseWriter, r *http.Request) {
		c.compare.Add(1)
		q := r.URL.Query()
		if q.Get("player1") != "3" || q.Get("player2") != "9" || q.Get("team2") != "127" {
			w.WriteHeader(http.StatusBadRequest)
			write(w, `{"error":"unexpected selection"}`)
			return
		}
		write(w, `{"player1":{"name":"Vinicius"},"player2":{"name":"Pedro"},
			"team1Name":"Palmeiras","team2Name":"Flamengo",
			"scorePlayer1":6,"scorePlayer2":2,"winner":"player1",
			"breakdown":[{"metric":"Goals","p1":9,"p2":4},{"metric":"Dribbles","note":"no data"}]}`)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.Timeout = 5 * time.Second
	return cfg
}

func newSession(t *testing.T, cfg *config.Config, opts Options) *Session {
	t.Helper()
	if opts.LogWriter == nil {
		opts.LogWriter = io.Discard
	}
	s, err := New(context.Background(), cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestLoadSquadPrefersBulk(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})

	ep := s.Begin()
	squad, err := s.LoadSquad(ep.Context(), "10", "2024")
	require.NoError(t, err)
	assert.Equal(t, "Brazil", squad.Team)
	require.Len(t, squad.Players, 3)
	for _, p := range squad.Players {
		assert.Equal(t, "Brazil", p.Nationality, "player %s", p.ID)
	}
	assert.Equal(t, "Marquinhos", squad.Players[1].Name)
	assert.Equal(t, "Attacker", squad.Players[2].Position)

	assert.EqualValues(t, 1, c.players.Load(), "one bulk call for the whole squad")
	assert.EqualValues(t, 1, c.profiles.Load(), "only the omitted player falls back")
	sum := s.Summary(ep)
	assert.EqualValues(t, 1, sum.PrefetchCalls)
	assert.EqualValues(t, 1, sum.FallbackCalls)

	// a fresh navigation is served from cache
	ep = s.Begin()
	_, err = s.LoadSquad(ep.Context(), "10", "2024")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.squad.Load())
	assert.EqualValues(t, 1, c.players.Load())
	assert.EqualValues(t, 1, c.profiles.Load())
	assert.Zero(t, s.Summary(ep).NetworkCalls)
}

func TestLoadSquadUsesSuppliedNationality(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})
	ctx := s.Begin().Context()

	squad, err := s.LoadSquad(ctx, "11", "2024")
	require.NoError(t, err)
	require.Len(t, squad.Players, 2)
	assert.Equal(t, "Spain", squad.Players[0].Nationality)
	assert.Equal(t, "Brazil", squad.Players[1].Nationality)
	assert.EqualValues(t, 1, c.players.Load())
	assert.Zero(t, c.profiles.Load(), "no per-item call for a nationality the squad supplies")

	nat, ok := s.Nationality.Peek(ctx, "2", "11:2024")
	assert.True(t, ok)
	assert.Equal(t, "Brazil", nat)

	// every row supplied: no bulk call either
	squad, err = s.LoadSquad(ctx, "127", "2024")
	require.NoError(t, err)
	require.Len(t, squad.Players, 1)
	assert.Equal(t, "Brazil", squad.Players[0].Nationality)
	assert.EqualValues(t, 1, c.players.Load())
	assert.Zero(t, c.profiles.Load())
}

func TestLoadSquadAbortedByNavigation(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})

	ep := s.Begin()
	errc := make(chan error, 1)
	go func() {
		_, err := s.LoadSquad(ep.Context(), "slow", "2024")
		errc <- err
	}()
	require.Eventually(t, func() bool { return c.players.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	next := s.Begin()
	select {
	case err := <-errc:
		assert.True(t, scorecache.IsAborted(err), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("load did not stop after navigation")
	}
	assert.Zero(t, c.profiles.Load(), "no fallback after abort")
	assert.NoError(t, next.Context().Err())

	_, ok := s.Nationality.Peek(next.Context(), "1", "slow:2024")
	assert.False(t, ok, "aborted lookups commit nothing")
}

func TestLoadPlayer(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})
	ctx := s.Begin().Context()

	p, err := s.LoadPlayer(ctx, "276", "2023")
	require.NoError(t, err)
	assert.Equal(t, "Neymar", p.Name)
	assert.Equal(t, "Brazil", p.Nationality)
	assert.Equal(t, 24, p.Appearances)
	assert.Equal(t, 2000, p.Minutes)
	assert.Equal(t, 9, p.Goals)
	assert.Equal(t, 5, p.Assists)

	p, err = s.LoadPlayer(ctx, "276", "1990")
	require.NoError(t, err)
	assert.Zero(t, p.Goals)
	assert.EqualValues(t, 1, c.profile.Load(), "profile cached across seasons")
	assert.EqualValues(t, 2, c.stats.Load())
}

func TestLoadStandings(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})
	ctx := s.Begin().Context()

	st, err := s.LoadStandings(ctx, "71", "2024")
	require.NoError(t, err)
	assert.Equal(t, "Serie A", st.League)
	require.Len(t, st.Rows, 2)
	assert.Equal(t, StandingsRow{Rank: "1", TeamID: "121", Team: "Palmeiras", Played: "38", GoalsDiff: "30", Points: "70"}, st.Rows[0])

	_, err = s.LoadStandings(ctx, "71", "2024")
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.standings.Load())
}

func TestLoadTeams(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})

	teams, err := s.LoadTeams(s.Begin().Context(), "cup", "2024")
	require.NoError(t, err)
	assert.Equal(t, []Team{{ID: "121", Name: "Palmeiras"}, {ID: "131", Name: "Corinthians"}}, teams)
}

func TestCompare(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})
	ctx := s.Begin().Context()

	cmp, err := s.Compare(ctx, "71", "2024", Pick{Team: "121", Player: "3"}, Pick{Team: "127", Player: "9"})
	require.NoError(t, err)
	assert.Equal(t, "Palmeiras", cmp.Columns[0].Team.Name)
	assert.Equal(t, "Vinicius", cmp.Columns[0].Player.Name)
	assert.Equal(t, "Flamengo", cmp.Columns[1].Team.Name)
	assert.Equal(t, GroupFWD, cmp.Columns[1].PositionGroup)
	assert.Equal(t, "Pedro", cmp.Player2)
	assert.Equal(t, "PLAYER1", cmp.Winner)
	assert.Equal(t, 75, cmp.Percent1)
	assert.Equal(t, 25, cmp.Percent2)
	require.Len(t, cmp.Breakdown, 2)
	assert.Equal(t, Metric{Metric: "Goals", P1: "9", P2: "4"}, cmp.Breakdown[0])
	assert.Equal(t, Metric{Metric: "Dribbles", P1: "-", P2: "-", Note: "no data"}, cmp.Breakdown[1])

	assert.EqualValues(t, 1, c.standings.Load(), "both columns share one team list")
	assert.EqualValues(t, 2, c.squad.Load())
	assert.EqualValues(t, 1, c.compare.Load())
	assert.Zero(t, c.players.Load(), "columns need no nationality lookups")

	_, err = s.Compare(ctx, "71", "2024", Pick{Team: "121", Player: "3"}, Pick{Team: "127", Player: "9"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.compare.Load(), "result cached")
}

func TestCompareRejectsSelection(t *testing.T) {
	var c calls
	s := newSession(t, testConfig(fakeAPI(t, &c).URL), Options{})
	ctx := s.Begin().Context()

	cases := []struct {
		name string
		a, b Pick
	}{
		{"position groups differ", Pick{Team: "121", Player: "1"}, Pick{Team: "127", Player: "9"}},
		{"team not in league", Pick{Team: "999", Player: "1"}, Pick{Team: "127", Player: "9"}},
		{"player not in squad", Pick{Team: "121", Player: "42"}, Pick{Team: "127", Player: "9"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Compare(ctx, "71", "2024", tc.a, tc.b)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
	assert.Zero(t, c.compare.Load())
}

func TestPositionGroup(t *testing.T) {
	for in, want := range map[string]string{
		"Goalkeeper": GroupGK,
		"G":          GroupGK,
		"Defender":   GroupDEF,
		"Midfielder": GroupMID,
		"Attacker":   GroupFWD,
		"LW":         GroupFWD,
		"":           "",
		"Coach":      "",
	} {
		assert.Equal(t, want, PositionGroup(in), in)
	}
}

func TestAlternativeProviders(t *testing.T) {
	for _, tc := range []struct{ volatile, durable, codec string }{
		{config.ProviderRistretto, config.ProviderBadger, "msgpack"},
		{config.ProviderBigcache, config.ProviderNone, "cbor"},
		{config.ProviderMemory, config.ProviderMemory, "string"},
	} {
		t.Run(tc.volatile+"/"+tc.durable, func(t *testing.T) {
			var c calls
			cfg := testConfig(fakeAPI(t, &c).URL)
			cfg.Cache.Volatile = tc.volatile
			cfg.Cache.Durable = tc.durable
			cfg.Cache.Codec = tc.codec
			s := newSession(t, cfg, Options{})

			squad, err := s.LoadSquad(s.Begin().Context(), "10", "2024")
			require.NoError(t, err)
			require.Len(t, squad.Players, 3)
			assert.Equal(t, "Brazil", squad.Players[0].Nationality)
		})
	}
}

func TestBadgerSurvivesSession(t *testing.T) {
	var c calls
	cfg := testConfig(fakeAPI(t, &c).URL)
	cfg.Cache.Durable = config.ProviderBadger
	cfg.Cache.BadgerDir = t.TempDir()

	first, err := New(context.Background(), cfg, Options{LogWriter: io.Discard})
	require.NoError(t, err)
	_, err = first.LoadSquad(first.Begin().Context(), "10", "2024")
	require.NoError(t, err)
	require.NoError(t, first.Close(context.Background()))

	second := newSession(t, cfg, Options{})
	n, err := second.Nationality.Hydrate(second.Begin().Context(), "10:2024")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetricsAndDebugHooks(t *testing.T) {
	var c calls
	cfg := testConfig(fakeAPI(t, &c).URL)
	cfg.Metrics.Enabled = true
	cfg.Log.Backend = "slog"
	cfg.Log.Level = "debug"
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer

	s, err := New(context.Background(), cfg, Options{LogWriter: &buf, Registerer: reg})
	require.NoError(t, err)
	_, err = s.LoadSquad(s.Begin().Context(), "10", "2024")
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
	assert.Contains(t, buf.String(), "scorecache.prefetch_started")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Fallback.MaxConcurrency = 0
	_, err := New(context.Background(), cfg, Options{})
	assert.ErrorContains(t, err, "max_concurrency")
}
