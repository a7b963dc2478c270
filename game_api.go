package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Player is one entry of the game API's player and ban list payloads.
type Player struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
}

type playerCountEnvelope struct {
	Data struct {
		NumPlayers int `json:"num_players"`
	} `json:"data"`
}

type playerMapEnvelope struct {
	Data map[string]Player `json:"data"`
}

// apiError covers every game API failure mode: connection errors, timeouts
// and non-2xx statuses. Status is zero when the request never completed.
type apiError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *apiError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("game api %s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("game api %s: %v", e.Endpoint, e.Err)
}

func (e *apiError) Unwrap() error { return e.Err }

// gameAPIClient talks to the game server's admin REST API. Every call
// carries the shared password as a query parameter; the password is never
// logged.
type gameAPIClient struct {
	baseURL  string
	password string
	http     *http.Client
}

func newGameAPIClient(baseURL, password string, timeout time.Duration) *gameAPIClient {
	return &gameAPIClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		password: password,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *gameAPIClient) endpointURL(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("password", c.password)
	return c.baseURL + path + "?" + params.Encode()
}

func (c *gameAPIClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(path, nil), nil)
	if err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &apiError{Endpoint: path, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	if err := fastJSONUnmarshal(body, out); err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	return nil
}

func (c *gameAPIClient) post(ctx context.Context, path string, params url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(path, params), nil)
	if err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &apiError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apiError{Endpoint: path, Status: resp.StatusCode}
	}
	return nil
}

func (c *gameAPIClient) PlayerCount(ctx context.Context) (int, error) {
	var env playerCountEnvelope
	if err := c.getJSON(ctx, "/player/count", &env); err != nil {
		return 0, err
	}
	return env.Data.NumPlayers, nil
}

func (c *gameAPIClient) PlayerList(ctx context.Context) (map[string]Player, error) {
	var env playerMapEnvelope
	if err := c.getJSON(ctx, "/player/list", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *gameAPIClient) BanList(ctx context.Context) (map[string]Player, error) {
	var env playerMapEnvelope
	if err := c.getJSON(ctx, "/player/banlist", &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *gameAPIClient) BanPlayer(ctx context.Context, uniqueID string) error {
	return c.post(ctx, "/player/ban", url.Values{"unique_id": {uniqueID}})
}

func (c *gameAPIClient) UnbanPlayer(ctx context.Context, uniqueID string) error {
	return c.post(ctx, "/player/unban", url.Values{"unique_id": {uniqueID}})
}

func (c *gameAPIClient) KickPlayer(ctx context.Context, uniqueID string) error {
	return c.post(ctx, "/player/kick", url.Values{"unique_id": {uniqueID}})
}

func (c *gameAPIClient) SendChat(ctx context.Context, message string) error {
	return c.post(ctx, "/chat", url.Values{"message": {message}})
}

func findPlayerByName(players map[string]Player, name string) (Player, bool) {
	for _, p := range players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// FindPlayerByName resolves a currently connected player's unique id from
// the live player list.
func (c *gameAPIClient) FindPlayerByName(ctx context.Context, name string) (Player, bool, error) {
	players, err := c.PlayerList(ctx)
	if err != nil {
		return Player{}, false, err
	}
	p, ok := findPlayerByName(players, name)
	return p, ok, nil
}

// FindBannedPlayerByName resolves a banned player's unique id from the ban
// list.
func (c *gameAPIClient) FindBannedPlayerByName(ctx context.Context, name string) (Player, bool, error) {
	players, err := c.BanList(ctx)
	if err != nil {
		return Player{}, false, err
	}
	p, ok := findPlayerByName(players, name)
	return p, ok, nil
}
