package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "scribemarket/api/internal/middleware"
	"scribemarket/api/internal/presence"
)

// PresenceInput reports a qualifying activity event (pointer-down, key-down,
// touch-start, pointer-move) for the signed-in user. The response is always
// accepted: presence is advisory and publish failures stay internal.
func (h *HandlerSet) PresenceInput(c *gin.Context) {
	identity, ok := mw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.trackerFor(identity.ID).Input()
	c.JSON(http.StatusAccepted, gin.H{"status": "online"})
}

func (h *HandlerSet) PresenceState(c *gin.Context) {
	identity, ok := mw.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	channel := presence.NewRedisChannel(h.cache, identity.ID)
	states, err := channel.State(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence_unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"presence": states})
}

func (h *HandlerSet) trackerFor(userID string) *presence.Tracker {
	h.trackerMu.Lock()
	defer h.trackerMu.Unlock()

	if tracker, ok := h.trackers[userID]; ok {
		return tracker
	}

	tracker := presence.NewTracker(
		userID,
		presence.NewRedisChannel(h.cache, userID),
		h.log,
		presence.WithThresholds(
			h.cfg.Presence.Heartbeat,
			h.cfg.Presence.IdleThreshold,
			h.cfg.Presence.OfflineThreshold,
		),
	)
	h.trackers[userID] = tracker
	return tracker
}
