// Package presence classifies a user as online, idle or offline and
// publishes the result to the shared presence channel. The classification is
// advisory: publish failures are swallowed, never surfaced to callers.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scribemarket/api/internal/models"
)

const (
	DefaultHeartbeat        = 60 * time.Second
	DefaultIdleThreshold    = 30 * time.Minute
	DefaultOfflineThreshold = 60 * time.Minute

	publishTimeout = 5 * time.Second
)

// Tracker is an explicit state machine over {Online, Idle, Offline}.
// Qualifying input resets the idle and offline timers and republishes
// online; the heartbeat republishes online without touching them, so the
// thresholds always measure time since the last real input.
type Tracker struct {
	userID  string
	channel Channel
	clock   Clock
	log     zerolog.Logger

	heartbeat        time.Duration
	idleThreshold    time.Duration
	offlineThreshold time.Duration

	mu        sync.Mutex
	status    models.PresenceStatus
	lastInput time.Time
	hbTimer   Timer
	idleTimer Timer
	offTimer  Timer
	stopped   bool
}

type Option func(*Tracker)

func WithClock(clock Clock) Option {
	return func(t *Tracker) { t.clock = clock }
}

func WithThresholds(heartbeat, idle, offline time.Duration) Option {
	return func(t *Tracker) {
		t.heartbeat = heartbeat
		t.idleThreshold = idle
		t.offlineThreshold = offline
	}
}

func NewTracker(userID string, channel Channel, log zerolog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		userID:           userID,
		channel:          channel,
		clock:            SystemClock,
		log:              log.With().Str("user_id", userID).Logger(),
		heartbeat:        DefaultHeartbeat,
		idleThreshold:    DefaultIdleThreshold,
		offlineThreshold: DefaultOfflineThreshold,
		status:           models.PresenceOffline,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start treats mounting as the first qualifying input.
func (t *Tracker) Start() {
	t.Input()
}

// Input records a qualifying activity event (pointer-down, key-down,
// touch-start, pointer-move). It cancels pending idle/offline timers,
// publishes online and re-arms both thresholds.
func (t *Tracker) Input() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	t.cancelTimers()
	t.lastInput = t.clock.Now()
	t.status = models.PresenceOnline
	t.publish(models.PresenceOnline, t.lastInput)

	t.idleTimer = t.clock.AfterFunc(t.idleThreshold, t.onIdle)
	t.offTimer = t.clock.AfterFunc(t.offlineThreshold, t.onOffline)
	if t.hbTimer == nil {
		t.hbTimer = t.clock.AfterFunc(t.heartbeat, t.onHeartbeat)
	}
}

// Status returns the current classification.
func (t *Tracker) Status() models.PresenceStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Stop cancels all timers. No final state is published; presence decays to
// offline on the reader side.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.cancelTimers()
	if t.hbTimer != nil {
		t.hbTimer.Stop()
		t.hbTimer = nil
	}
}

func (t *Tracker) onHeartbeat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.hbTimer = nil
	if t.status != models.PresenceOnline {
		// Idle and offline users do not heartbeat; the next input
		// restarts it.
		return
	}
	t.publish(models.PresenceOnline, t.clock.Now())
	t.hbTimer = t.clock.AfterFunc(t.heartbeat, t.onHeartbeat)
}

func (t *Tracker) onIdle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.status != models.PresenceOnline {
		return
	}
	t.status = models.PresenceIdle
	t.publish(models.PresenceIdle, t.lastInput)
}

func (t *Tracker) onOffline() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.status == models.PresenceOffline {
		return
	}
	t.status = models.PresenceOffline
	t.publish(models.PresenceOffline, t.lastInput)
}

func (t *Tracker) cancelTimers() {
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	if t.offTimer != nil {
		t.offTimer.Stop()
		t.offTimer = nil
	}
}

func (t *Tracker) publish(status models.PresenceStatus, lastSeen time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := t.channel.Track(ctx, models.PresenceState{
		UserID:     t.userID,
		LastSeenAt: lastSeen,
		Status:     status,
	})
	if err != nil {
		t.log.Debug().Err(err).Str("status", string(status)).Msg("presence publish dropped")
	}
}
