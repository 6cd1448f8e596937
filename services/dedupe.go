package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// submissionGuard rejects byte-identical submissions arriving within a short
// window, so a double-clicked "Save Scores" is reported as a duplicate
// instead of silently re-running. Check only consults the window; callers
// Mark the submission once their work has committed, so a failed attempt can
// be retried with the same payload.
type submissionGuard struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	now    func() time.Time
}

func newSubmissionGuard(window time.Duration) *submissionGuard {
	return &submissionGuard{
		window: window,
		seen:   make(map[string]time.Time),
		now:    time.Now,
	}
}

func submissionDigest(parts []string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// Check returns ErrDuplicateSubmission when an identical submission was
// marked inside the window. It records nothing itself.
func (g *submissionGuard) Check(parts ...string) error {
	if g == nil || g.window <= 0 {
		return nil
	}
	key := submissionDigest(parts)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)
	if at, ok := g.seen[key]; ok && now.Sub(at) <= g.window {
		return ErrDuplicateSubmission
	}
	return nil
}

// Mark records a successfully applied submission so identical payloads are
// rejected for the rest of the window.
func (g *submissionGuard) Mark(parts ...string) {
	if g == nil || g.window <= 0 {
		return
	}
	key := submissionDigest(parts)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.prune(now)
	g.seen[key] = now
}

func (g *submissionGuard) prune(now time.Time) {
	for k, at := range g.seen {
		if now.Sub(at) > g.window {
			delete(g.seen, k)
		}
	}
}
