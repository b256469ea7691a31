package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"scribemarket/api/internal/models"
	"scribemarket/api/internal/presence"
	"scribemarket/api/internal/repository"
)

// Scheduler runs the periodic maintenance work: decaying stale presence
// entries to offline and deleting expired auth sessions (local mode only).
type Scheduler struct {
	cron             *cron.Cron
	cache            *redis.Client
	sessions         *repository.AuthSessionRepository
	offlineThreshold time.Duration
	log              zerolog.Logger
}

func NewScheduler(cache *redis.Client, sessions *repository.AuthSessionRepository, offlineThreshold time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:             cron.New(cron.WithSeconds()),
		cache:            cache,
		sessions:         sessions,
		offlineThreshold: offlineThreshold,
		log:              log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepPresence); err != nil {
		return err
	}
	if s.sessions != nil {
		if _, err := s.cron.AddFunc("0 0 0 * * *", s.cleanupSessions); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

// sweepPresence publishes offline for users whose client stopped reporting
// without a clean teardown.
func (s *Scheduler) sweepPresence() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	channel := presence.NewRedisChannel(s.cache, "sweeper")
	states, err := channel.State(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("presence sweep read failed")
		return
	}

	cutoff := time.Now().Add(-s.offlineThreshold)
	for userID, state := range states {
		if state.Status == models.PresenceOffline || state.LastSeenAt.After(cutoff) {
			continue
		}
		userChannel := presence.NewRedisChannel(s.cache, userID)
		err := userChannel.Track(ctx, models.PresenceState{
			UserID:     userID,
			LastSeenAt: state.LastSeenAt,
			Status:     models.PresenceOffline,
		})
		if err != nil {
			s.log.Debug().Err(err).Str("user_id", userID).Msg("presence sweep publish failed")
		}
	}
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session cleanup failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired auth sessions removed")
	}
}
