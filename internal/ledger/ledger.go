// Package ledger tracks one pending verification code per email address.
// Entries live in process memory only: they are lost on restart and are
// never shared across instances.
package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// Ledger is a mutex-guarded map of normalized email -> pending code.
// All operations are synchronous and in-memory. A single Ledger is shared
// by every request handler, so every access goes through the mutex.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Ledger whose codes expire ttl after issuance and starts the
// background sweep of stale entries.
func New(ttl time.Duration) *Ledger {
	l := &Ledger{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	go l.sweep()
	return l
}

// Issue generates a uniformly random six-digit code for email and stores it,
// overwriting any prior entry. At most one code is pending per email; issuing
// a new one invalidates the old one even if it was never delivered.
func (l *Ledger) Issue(email string) (string, error) {
	// Drawn from [100000, 999999] so the decimal form is always six digits.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%d", n.Int64()+100000)

	l.mu.Lock()
	l.entries[email] = entry{code: code, expiresAt: l.now().Add(l.ttl)}
	l.mu.Unlock()
	return code, nil
}

// Check reports whether email has a pending entry whose code exactly matches
// and whose expiry has not passed. It never mutates state: an expired entry
// is treated as absent but left for the sweep (or the next Issue) to remove.
func (l *Ledger) Check(email, code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[email]
	return ok && e.code == code && !l.now().After(e.expiresAt)
}

// Consume deletes the entry for email. No-op if absent.
func (l *Ledger) Consume(email string) {
	l.mu.Lock()
	delete(l.entries, email)
	l.mu.Unlock()
}

// sweep removes expired entries every 5 minutes. Correctness never depends
// on it — Check already rejects past-expiry entries — it only bounds memory
// held by abandoned codes.
func (l *Ledger) sweep() {
	for {
		time.Sleep(5 * time.Minute)
		l.removeExpired()
	}
}

func (l *Ledger) removeExpired() {
	l.mu.Lock()
	now := l.now()
	for email, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, email)
		}
	}
	l.mu.Unlock()
}
