package models

import "time"

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceIdle    PresenceStatus = "idle"
	PresenceOffline PresenceStatus = "offline"
)

// PresenceState is the advisory online/idle/offline classification published
// for a user. It is transient and never authoritative.
type PresenceState struct {
	UserID     string         `json:"user_id"`
	LastSeenAt time.Time      `json:"last_seen_at"`
	Status     PresenceStatus `json:"status"`
}
