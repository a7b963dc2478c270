package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testAPIServer(t *testing.T, handler http.HandlerFunc) *gameAPIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return newGameAPIClient(srv.URL, "hunter2", 2*time.Second)
}

func TestPlayerCount(t *testing.T) {
	client := testAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player/count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("password"); got != "hunter2" {
			t.Errorf("password param = %q", got)
		}
		w.Write([]byte(`{"data":{"num_players":3}}`))
	})
	count, err := client.PlayerCount(context.Background())
	if err != nil {
		t.Fatalf("PlayerCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestPlayerList(t *testing.T) {
	client := testAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"0":{"unique_id":"76561198000000001","name":"alice"},"1":{"unique_id":"76561198000000002","name":"bob"}}}`))
	})
	players, err := client.PlayerList(context.Background())
	if err != nil {
		t.Fatalf("PlayerList: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("players = %d, want 2", len(players))
	}
	p, ok := findPlayerByName(players, "alice")
	if !ok || p.UniqueID != "76561198000000001" {
		t.Fatalf("findPlayerByName = %+v, %v", p, ok)
	}
	if _, ok := findPlayerByName(players, "mallory"); ok {
		t.Fatal("found a player that is not on the list")
	}
}

func TestNonSuccessStatusIsAPIError(t *testing.T) {
	client := testAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := client.PlayerCount(context.Background())
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want apiError", err)
	}
	if apiErr.Status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", apiErr.Status)
	}
}

func TestConnectionFailureIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := newGameAPIClient(srv.URL, "hunter2", time.Second)
	_, err := client.PlayerCount(context.Background())
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want apiError", err)
	}
	if apiErr.Status != 0 {
		t.Fatalf("status = %d, want 0 for a failed connection", apiErr.Status)
	}
}

func TestModerationPosts(t *testing.T) {
	var gotMethod, gotPath, gotID, gotMessage string
	client := testAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotID = r.URL.Query().Get("unique_id")
		gotMessage = r.URL.Query().Get("message")
	})

	if err := client.BanPlayer(context.Background(), "76561198000000001"); err != nil {
		t.Fatalf("BanPlayer: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/player/ban" || gotID != "76561198000000001" {
		t.Fatalf("ban request = %s %s unique_id=%s", gotMethod, gotPath, gotID)
	}

	if err := client.KickPlayer(context.Background(), "id-2"); err != nil {
		t.Fatalf("KickPlayer: %v", err)
	}
	if gotPath != "/player/kick" {
		t.Fatalf("kick path = %s", gotPath)
	}

	if err := client.UnbanPlayer(context.Background(), "id-3"); err != nil {
		t.Fatalf("UnbanPlayer: %v", err)
	}
	if gotPath != "/player/unban" {
		t.Fatalf("unban path = %s", gotPath)
	}

	if err := client.SendChat(context.Background(), "hello world"); err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if gotPath != "/chat" || gotMessage != "hello world" {
		t.Fatalf("chat request = %s message=%q", gotPath, gotMessage)
	}
}

func TestFindBannedPlayerByName(t *testing.T) {
	client := testAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player/banlist" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"0":{"unique_id":"id-9","name":"mallory"}}}`))
	})
	p, ok, err := client.FindBannedPlayerByName(context.Background(), "mallory")
	if err != nil || !ok {
		t.Fatalf("FindBannedPlayerByName = %v, %v", ok, err)
	}
	if p.UniqueID != "id-9" {
		t.Fatalf("unique id = %q", p.UniqueID)
	}
}
