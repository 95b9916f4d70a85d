// Package backend is the HTTP client for the dashboard's data API.
//
// Every endpoint answers with an envelope: {"response": [...]} on success,
// {"error": "..."} with a non-2xx status on failure. Documents are decoded
// into *structpb.Struct trees and read with the extract package.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ktevet1983-hub/scorecache"
	"github.com/ktevet1983-hub/scorecache/extract"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 8 << 20
)

type Config struct {
	BaseURL      string        // required, e.g. "http://localhost:8080"
	Timeout      time.Duration // per request; 0 => 10s
	MaxBodyBytes int64         // 0 => 8 MiB
	HTTPClient   *http.Client  // nil => a client with Timeout
	UserAgent    string

	Logger scorecache.Logger // if nil, NopLogger is used
}

type Client struct {
	base    *url.URL
	hc      *http.Client
	maxBody int64
	ua      string
	log     scorecache.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: Config.BaseURL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: unsupported scheme %q", base.Scheme)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	var log scorecache.Logger = scorecache.NopLogger{}
	if cfg.Logger != nil {
		log = cfg.Logger
	}
	return &Client{base: base, hc: hc, maxBody: maxBody, ua: cfg.UserAgent, log: log}, nil
}

// Squad returns the squad document of a team for a season.
func (c *Client) Squad(ctx context.Context, team, season string) (*structpb.Struct, error) {
	return c.document(ctx, "squad", team+":"+season, url.Values{"team": {team}, "season": {season}})
}

// PlayerProfile returns a player's profile document.
func (c *Client) PlayerProfile(ctx context.Context, player string) (*structpb.Struct, error) {
	return c.document(ctx, "playerProfile", player, url.Values{"player": {player}})
}

// PlayerStats returns a player's statistics for a season.
func (c *Client) PlayerStats(ctx context.Context, player, season string) (*structpb.Struct, error) {
	return c.document(ctx, "playerStats", player+":"+season, url.Values{"player": {player}, "season": {season}})
}

// Standings returns a league table for a season.
func (c *Client) Standings(ctx context.Context, league, season string) (*structpb.Struct, error) {
	return c.document(ctx, "standings", league+":"+season, url.Values{"league": {league}, "season": {season}})
}

// CompareArgs selects two players of one league and season.
type CompareArgs struct {
	League, Season string
	Team1, Player1 string
	Team2, Player2 string
}

// ComparePlayers calls the comparison endpoint. Its result is a bare object,
// not a response envelope.
func (c *Client) ComparePlayers(ctx context.Context, a CompareArgs) (*structpb.Struct, error) {
	key := strings.Join([]string{a.League, a.Season, a.Team1, a.Player1, a.Team2, a.Player2}, ":")
	return c.get(ctx, "predict/comparePlayers", key, url.Values{
		"league":  {a.League},
		"season":  {a.Season},
		"team1":   {a.Team1},
		"player1": {a.Player1},
		"team2":   {a.Team2},
		"player2": {a.Player2},
	})
}

// Nationality calls the per-item profile endpoint for one player.
func (c *Client) Nationality(ctx context.Context, player string) (string, error) {
	doc, err := c.get(ctx, "profiles", player, url.Values{"player": {player}})
	if err != nil {
		return "", err
	}
	nat, ok := extract.ItemNationality.String(structpb.NewStructValue(doc))
	if !ok {
		return "", &scorecache.FetchError{Kind: scorecache.ErrNotFound, Op: "profiles", Key: player}
	}
	return nat, nil
}

// GroupNationalities calls the bulk players endpoint for a "team:season"
// group and returns the nationality of every player that has one.
func (c *Client) GroupNationalities(ctx context.Context, groupKey string) (map[string]string, error) {
	team, season, _ := strings.Cut(groupKey, ":")
	q := url.Values{"team": {team}}
	if season != "" {
		q.Set("season", season)
	}
	doc, err := c.get(ctx, "players", groupKey, q)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, item := range extract.List(structpb.NewStructValue(doc), extract.Path{"response"}) {
		id, ok := extract.PlayerID.String(item)
		if !ok {
			continue
		}
		if nat, ok := extract.PlayerNationality.String(item); ok {
			out[id] = nat
		}
	}
	return out, nil
}

// document is get plus the primary-lookup rule that an empty response means
// the item does not exist.
func (c *Client) document(ctx context.Context, op, key string, q url.Values) (*structpb.Struct, error) {
	doc, err := c.get(ctx, op, key, q)
	if err != nil {
		return nil, err
	}
	if len(extract.List(structpb.NewStructValue(doc), extract.Path{"response"})) == 0 {
		return nil, &scorecache.FetchError{Kind: scorecache.ErrNotFound, Op: op, Key: key}
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, op, key string, q url.Values) (*structpb.Struct, error) {
	u := c.base.JoinPath(op)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &scorecache.FetchError{Kind: scorecache.ErrNetwork, Op: op, Key: key, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, op, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, c.transportError(ctx, op, key, err)
	}
	if ctx.Err() != nil {
		return nil, aborted(ctx, op, key)
	}
	c.log.Debug("backend response", scorecache.Fields{
		"op":     op,
		"key":    key,
		"status": resp.StatusCode,
		"bytes":  len(body),
		"took":   time.Since(start),
	})
	if int64(len(body)) > c.maxBody {
		return nil, &scorecache.FetchError{Kind: scorecache.ErrParse, Op: op, Key: key, Status: resp.StatusCode,
			Err: fmt.Errorf("body exceeds %d bytes", c.maxBody)}
	}

	doc := &structpb.Struct{}
	perr := protojson.Unmarshal(body, doc)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if perr == nil {
			if e := strings.TrimSpace(doc.GetFields()["error"].GetStringValue()); e != "" {
				msg = e
			}
		}
		return nil, &scorecache.FetchError{Kind: scorecache.ErrNetwork, Op: op, Key: key, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if perr != nil {
		return nil, &scorecache.FetchError{Kind: scorecache.ErrParse, Op: op, Key: key, Status: resp.StatusCode, Err: perr}
	}
	return doc, nil
}

func (c *Client) transportError(ctx context.Context, op, key string, err error) error {
	if ctx.Err() != nil {
		return aborted(ctx, op, key)
	}
	c.log.Debug("backend request failed", scorecache.Fields{"op": op, "key": key, "err": err})
	return &scorecache.FetchError{Kind: scorecache.ErrNetwork, Op: op, Key: key, Err: err}
}

func aborted(ctx context.Context, op, key string) error {
	return &scorecache.FetchError{Kind: scorecache.ErrAborted, Op: op, Key: key, Err: context.Cause(ctx)}
}
