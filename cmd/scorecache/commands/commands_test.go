package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) {
	t.Helper()
	r := chi.NewRouter()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	r.Get("/squad", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"response":[{"team":{"name":"Spain"},"players":[{"id":1,"name":"Rodri"},{"id":2,"name":"Pedri"}]}]}`)
	})
	r.Get("/players", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"response":[{"player":{"id":1,"nationality":"Spain"}},{"player":{"id":2,"nationality":"Spain"}}]}`)
	})
	r.Get("/playerProfile", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"response":[{"player":{"id":276,"name":"Neymar","nationality":"Brazil"}}]}`)
	})
	r.Get("/playerStats", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"response":[{"statistics":[{"games":{"appearences":20},"goals":{"total":8}}]}]}`)
	})
	r.Get("/standings", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"response":[{"league":{"name":"La Liga","standings":[[
			{"rank":1,"team":{"id":529,"name":"Barcelona"},"points":88},
			{"rank":2,"team":{"id":541,"name":"Real Madrid"},"points":78}
		]]}}]}`)
	})
	r.Get("/predict/comparePlayers", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"player1":{"name":"Rodri"},"player2":{"name":"Pedri"},"team1Name":"Barcelona",
			"scorePlayer1":3,"scorePlayer2":1,"winner":"PLAYER1","breakdown":[{"metric":"Goals","p1":5,"p2":2}]}`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("SCORECACHE_BACKEND_BASE_URL", srv.URL)
	t.Setenv("SCORECACHE_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
	versionShort = false
}

func TestSquadTable(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "squad", "--team", "9", "--season", "2024", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Spain (2024)")
	assert.Contains(t, out, "NATIONALITY")
	assert.Contains(t, out, "Rodri")
	assert.Contains(t, out, "Pedri")
}

func TestSquadJSON(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "squad", "--team", "9", "--season", "2024", "-o", "json")
	require.NoError(t, err)

	var got struct {
		Team    string
		Players []struct{ Name, Nationality string }
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "Spain", got.Team)
	require.Len(t, got.Players, 2)
	assert.Equal(t, "Spain", got.Players[0].Nationality)
}

func TestPlayer(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "player", "--id", "276", "--season", "2023", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Neymar")
	assert.Contains(t, out, "Brazil")
	assert.Contains(t, out, "8")
}

func TestStandings(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "standings", "--league", "140", "--season", "2024", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "La Liga (2024)")
	assert.Contains(t, out, "Barcelona")
	assert.Contains(t, out, "88")
}

func TestCompareTable(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "compare", "--league", "140", "--season", "2024",
		"--team1", "529", "--player1", "1", "--team2", "541", "--player2", "2", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Barcelona / Rodri: 3 points (75%)")
	assert.Contains(t, out, "Pedri: 1 points (25%)")
	assert.Contains(t, out, "We would pick Rodri")
	assert.Contains(t, out, "Goals")
}

func TestCompareJSON(t *testing.T) {
	fakeAPI(t)
	out, err := run(t, "compare", "--league", "140", "--season", "2024",
		"--team1", "529", "--player1", "1", "--team2", "541", "--player2", "2", "-o", "json")
	require.NoError(t, err)

	var got struct {
		Winner  string
		Columns []struct{ Team struct{ Name string } }
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "PLAYER1", got.Winner)
	require.Len(t, got.Columns, 2)
	assert.Equal(t, "Real Madrid", got.Columns[1].Team.Name)
}

func TestCompareUnknownTeam(t *testing.T) {
	fakeAPI(t)
	_, err := run(t, "compare", "--league", "140", "--season", "2024",
		"--team1", "1", "--player1", "1", "--team2", "541", "--player2", "2", "-o", "table")
	assert.ErrorContains(t, err, "invalid selection")
}

func TestWatchRejectsZeroInterval(t *testing.T) {
	_, err := run(t, "watch", "--team", "9", "--season", "2024", "--every", "0s")
	assert.ErrorContains(t, err, "--every")
	watchFlags.every = 0
}
