package otp

import (
	"errors"
	"regexp"
	"sync"
	"time"
)

var (
	ErrInvalidFormat = errors.New("code must be exactly 6 digits")
	ErrUnknownCode   = errors.New("unknown code")
	ErrExpired       = errors.New("code has expired")
	ErrAlreadyUsed   = errors.New("code has already been used")
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Verifier owns the session table, keyed by code. There is at most one live
// session per code value at a time: registering a code replaces any earlier
// session under it. Expiry is checked lazily on lookup, not by a timer.
type Verifier struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewVerifier() *Verifier {
	return &Verifier{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Register installs a session under its code, replacing any previous session
// with the same code value.
func (v *Verifier) Register(s Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sessions[s.Code] = &s
}

// Verify checks a submitted code and, on success, consumes it. The use-once
// check and the used flag write happen under a single lock so a retried
// submission of the same code cannot slip between them.
func (v *Verifier) Verify(code string) (*Session, error) {
	// Format pre-check before any lookup, so malformed input never reveals
	// whether it collides with a real session.
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidFormat
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.sessions[code]
	if !ok {
		return nil, ErrUnknownCode
	}
	if s.Expired(v.now()) {
		// No state transition on expiry; re-checking yields the same failure.
		return nil, ErrExpired
	}
	if s.Used {
		return nil, ErrAlreadyUsed
	}

	s.Used = true
	consumed := *s
	return &consumed, nil
}

// Snapshot returns a copy of the session table for the caller to persist.
func (v *Verifier) Snapshot() []Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Session, 0, len(v.sessions))
	for _, s := range v.sessions {
		out = append(out, *s)
	}
	return out
}

// Restore hydrates the session table from persisted sessions.
func (v *Verifier) Restore(sessions []Session) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range sessions {
		s := s
		v.sessions[s.Code] = &s
	}
}

// PruneExpired drops sessions that are expired or consumed and returns how
// many were removed.
func (v *Verifier) PruneExpired() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	removed := 0
	for code, s := range v.sessions {
		if s.Used || s.Expired(now) {
			delete(v.sessions, code)
			removed++
		}
	}
	return removed
}
