package main

import (
	"context"
	"sync"
	"time"
)

const offlineAlertText = "Server cannot be reached. It has either crashed or restarted."

// playerDataSource is the slice of the game API the tracker polls.
type playerDataSource interface {
	PlayerCount(ctx context.Context) (int, error)
	PlayerList(ctx context.Context) (map[string]Player, error)
}

// alertGateway posts and removes the standing "server down" alert. Both
// calls are best-effort from the tracker's perspective.
type alertGateway interface {
	PostAlert(ctx context.Context, text string) error
	DeleteAlert(ctx context.Context) error
}

// presenceState is the tracker's view of the game server.
//
// Invariants held at every exit of the mutating methods:
//   - offlineAlertSent implies !online
//   - startTime is set exactly while the server has been continuously
//     reachable since that instant; cleared on every offline transition
type presenceState struct {
	online           bool
	startTime        time.Time
	offlineSince     time.Time
	offlineAlertSent bool
	playerCount      int
	cachedPlayers    map[string]Player
}

// statusSnapshot is the immutable view handed to the status renderer.
type statusSnapshot struct {
	online      bool
	startTime   time.Time
	playerCount int
	players     map[string]Player
}

// fetchResult is the outcome of one refresh cycle.
type fetchResult struct {
	ok      bool
	count   int
	players map[string]Player
	lastErr error
}

// presenceTracker owns the online/offline state machine. State is never
// persisted; a restart begins from scratch. Network calls happen outside
// stateMu and the state mutates only after they resolve, so a concurrent
// snapshot never observes a half-applied transition.
type presenceTracker struct {
	api            playerDataSource
	alerts         alertGateway
	retryAttempts  int
	retryBaseDelay time.Duration

	stateMu sync.Mutex
	state   presenceState
}

func newPresenceTracker(api playerDataSource, alerts alertGateway, retryAttempts int, retryBaseDelay time.Duration) *presenceTracker {
	return &presenceTracker{
		api:            api,
		alerts:         alerts,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
	}
}

// refresh performs one poll cycle: fetch count and list (each with bounded
// retries), then apply the resulting transition. A cycle where either fetch
// exhausts its retries is an offline observation.
func (t *presenceTracker) refresh(ctx context.Context) fetchResult {
	count, err := withRetry(ctx, "player count", t.retryAttempts, t.retryBaseDelay, func(ctx context.Context) (int, error) {
		return t.api.PlayerCount(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return t.discardCancelled(err)
		}
		return t.applyFetchFailure(ctx, err, time.Now())
	}
	players, err := withRetry(ctx, "player list", t.retryAttempts, t.retryBaseDelay, func(ctx context.Context) (map[string]Player, error) {
		return t.api.PlayerList(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return t.discardCancelled(err)
		}
		return t.applyFetchFailure(ctx, err, time.Now())
	}
	return t.applyFetchSuccess(ctx, count, players, time.Now())
}

// discardCancelled drops a cycle interrupted by stop or shutdown. A
// cancelled fetch says nothing about the server, so no transition applies:
// no alert, no offline flip, uptime anchor untouched.
func (t *presenceTracker) discardCancelled(cause error) fetchResult {
	logger.Debug("refresh cancelled; cycle discarded", "error", cause)
	return fetchResult{lastErr: cause}
}

// applyFetchSuccess records a successful cycle. When a standing alert is
// outstanding this is a recovery transition: the alert is deleted
// (best-effort) and uptime restarts at this instant, never at the stale
// pre-outage value.
func (t *presenceTracker) applyFetchSuccess(ctx context.Context, count int, players map[string]Player, at time.Time) fetchResult {
	t.stateMu.Lock()
	wasAlerted := t.state.offlineAlertSent
	offlineSince := t.state.offlineSince
	t.stateMu.Unlock()

	if wasAlerted {
		if err := t.alerts.DeleteAlert(ctx); err != nil {
			// The stale alert stays visible; recovery proceeds regardless.
			logger.Warn("remove offline alert failed", "error", err)
		}
		outage := "unknown"
		if !offlineSince.IsZero() {
			outage = humanDuration(at.Sub(offlineSince))
		}
		logger.Info("server back online", "outage", outage)
	}

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if t.state.offlineAlertSent {
		t.state.offlineAlertSent = false
		t.state.startTime = at
	}
	t.state.online = true
	t.state.offlineSince = time.Time{}
	if t.state.startTime.IsZero() {
		t.state.startTime = at
	}
	t.state.playerCount = count
	t.state.cachedPlayers = players
	return fetchResult{ok: true, count: count, players: players}
}

// applyFetchFailure records an exhausted cycle. The first failure of an
// offline episode posts the standing alert; repeats are silent until a
// recovery intervenes. The alert-sent flag flips only after the post
// attempt resolves.
func (t *presenceTracker) applyFetchFailure(ctx context.Context, cause error, at time.Time) fetchResult {
	t.stateMu.Lock()
	alreadySent := t.state.offlineAlertSent
	t.stateMu.Unlock()

	if !alreadySent {
		if err := t.alerts.PostAlert(ctx, offlineAlertText); err != nil {
			logger.Warn("post offline alert failed", "error", err)
		}
		logger.Error("server unreachable; marked offline", "error", cause)
	}

	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	if !t.state.offlineAlertSent {
		t.state.offlineAlertSent = true
		t.state.offlineSince = at
	}
	t.state.online = false
	t.state.startTime = time.Time{}
	t.state.playerCount = 0
	t.state.cachedPlayers = nil
	return fetchResult{lastErr: cause}
}

func (t *presenceTracker) snapshot() statusSnapshot {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return statusSnapshot{
		online:      t.state.online,
		startTime:   t.state.startTime,
		playerCount: t.state.playerCount,
		players:     t.state.cachedPlayers,
	}
}

// uptimeString reports how long the server has been continuously reachable,
// or "Offline" when it is not.
func (t *presenceTracker) uptimeString(at time.Time) string {
	t.stateMu.Lock()
	start := t.state.startTime
	t.stateMu.Unlock()
	if start.IsZero() {
		return "Offline"
	}
	return formatUptime(at.Sub(start))
}
