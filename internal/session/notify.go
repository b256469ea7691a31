package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Notifier receives the single user-visible success or error message each
// store operation emits.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier surfaces notifications through the service log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Success(message string) {
	n.Log.Info().Str("notice", message).Msg("auth notification")
}

func (n LogNotifier) Error(message string) {
	n.Log.Warn().Str("notice", message).Msg("auth notification")
}

// MemoryNotifier records notifications for inspection in tests.
type MemoryNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (n *MemoryNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, message)
}

func (n *MemoryNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, message)
}

func (n *MemoryNotifier) Last() (success, failure string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Successes) > 0 {
		success = n.Successes[len(n.Successes)-1]
	}
	if len(n.Errors) > 0 {
		failure = n.Errors[len(n.Errors)-1]
	}
	return success, failure
}
