package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// statusEditor is the one Discord call the poll loop needs. The real
// implementation wraps *discordgo.Session.
type statusEditor interface {
	EditStatusMessage(channelID, messageID string, embed *discordgo.MessageEmbed) error
}

type pollTarget struct {
	channelID string
	messageID string
}

type pollStartOutcome int

const (
	pollStarted pollStartOutcome = iota
	pollAlreadyRunning
)

type pollStopOutcome int

const (
	pollStopped pollStopOutcome = iota
	pollNotRunning
	pollRunningElsewhere
)

// statusPoller drives the periodic refresh-render-edit cycle for a single
// tracked status message. At most one loop runs at a time; a loop that halts
// itself (display target gone, edit failure) never restarts on its own.
type statusPoller struct {
	tracker  *presenceTracker
	editor   statusEditor
	title    string
	interval time.Duration

	mu     sync.Mutex
	target *pollTarget
	cancel context.CancelFunc
	done   chan struct{}
}

func newStatusPoller(tracker *presenceTracker, editor statusEditor, title string, interval time.Duration) *statusPoller {
	return &statusPoller{
		tracker:  tracker,
		editor:   editor,
		title:    title,
		interval: interval,
	}
}

func (p *statusPoller) running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target != nil
}

// start begins tracking the given message. Starting while already running
// is a no-op that leaves the existing loop untouched.
func (p *statusPoller) start(ctx context.Context, channelID, messageID string) pollStartOutcome {
	p.mu.Lock()
	if p.target != nil {
		p.mu.Unlock()
		return pollAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.target = &pollTarget{channelID: channelID, messageID: messageID}
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	logger.Info("status polling started", "channel", channelID, "message", messageID)
	go p.loop(loopCtx, done)
	return pollStarted
}

// stop ends tracking when the request names the channel the loop is bound
// to. Stopping an idle poller or naming the wrong channel changes nothing.
func (p *statusPoller) stop(channelID string) (pollStopOutcome, string) {
	p.mu.Lock()
	if p.target == nil {
		p.mu.Unlock()
		return pollNotRunning, ""
	}
	if p.target.channelID != channelID {
		active := p.target.channelID
		p.mu.Unlock()
		return pollRunningElsewhere, active
	}
	cancel := p.cancel
	done := p.done
	p.target = nil
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
	logger.Info("status polling stopped", "channel", channelID)
	return pollStopped, channelID
}

// stopAny ends tracking regardless of channel. Shutdown path only.
func (p *statusPoller) stopAny() {
	p.mu.Lock()
	if p.target == nil {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.target = nil
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	cancel()
	<-done
	logger.Info("status polling stopped")
}

func (p *statusPoller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(ctx) {
				return
			}
		}
	}
}

// tick runs one cycle. A false return halts the loop for good.
func (p *statusPoller) tick(ctx context.Context) bool {
	p.mu.Lock()
	target := p.target
	p.mu.Unlock()
	if target == nil {
		// Stopped while a cycle was pending; discard.
		return false
	}

	p.tracker.refresh(ctx)
	snap := p.tracker.snapshot()
	embed := buildStatusEmbed(p.title, snap, p.tracker.uptimeString(time.Now()))

	if err := p.editor.EditStatusMessage(target.channelID, target.messageID, embed); err != nil {
		if isDisplayTargetGone(err) {
			logger.Warn("status message gone; polling halted", "channel", target.channelID, "message", target.messageID)
		} else {
			logger.Error("status message edit failed; polling halted", "channel", target.channelID, "error", err)
		}
		p.clearTarget(target)
		return false
	}
	return true
}

// clearTarget drops the target only if it is still the one this loop was
// editing, so a halt never clobbers a newer start.
func (p *statusPoller) clearTarget(target *pollTarget) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target == target {
		p.target = nil
		if p.cancel != nil {
			p.cancel()
		}
		p.cancel = nil
		p.done = nil
	}
}

// isDisplayTargetGone reports whether the edit failed because the tracked
// channel or message no longer exists.
func isDisplayTargetGone(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return false
	}
	switch rest.Message.Code {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage:
		return true
	}
	return false
}
