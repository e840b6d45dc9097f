package service

import "time"

// Retry policy shared by the optimistic-update loop and the lock-acquisition
// loop. Only concurrency outcomes (stale version, contended lock) are
// retried; business-rule failures return on the first attempt.
const (
	maxAttempts = 5
	backoffStep = 50 * time.Millisecond
)

// backoff returns the pause before the next attempt, growing linearly so a
// loser under contention yields progressively longer windows to the writer
// ahead of it.
func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * backoffStep
}
