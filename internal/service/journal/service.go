package journal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindease/backend/internal/model/mood"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyEntry      = errors.New("journal entry is empty")
)

const (
	dateLayout = "1/2/2006"
	sessionTTL = 24 * time.Hour
	sweepEvery = 10 * time.Minute
)

// Service keeps journal entries per session in memory. Nothing survives a
// restart, and sessions untouched for sessionTTL are forgotten.
type Service struct {
	mu        sync.Mutex
	sessions  map[string]mood.JournalSession
	entries   map[string][]mood.JournalEntry
	lastUse   map[string]time.Time
	lastSweep time.Time
	loc       *time.Location
	now       func() time.Time
}

// NewService stamps entry dates in loc; nil means UTC.
func NewService(loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		sessions: make(map[string]mood.JournalSession),
		entries:  make(map[string][]mood.JournalEntry),
		lastUse:  make(map[string]time.Time),
		loc:      loc,
		now:      time.Now,
	}
}

// CreateSession provisions an anonymous journal session.
func (s *Service) CreateSession(_ context.Context) mood.JournalSession {
	now := s.now()
	session := mood.JournalSession{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
	}

	s.mu.Lock()
	s.sweepLocked(now)
	s.sessions[session.ID] = session
	s.entries[session.ID] = make([]mood.JournalEntry, 0, 8)
	s.lastUse[session.ID] = now
	s.mu.Unlock()

	return session
}

// Add appends an entry dated today.
func (s *Service) Add(_ context.Context, sessionID, text string) (mood.JournalEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return mood.JournalEntry{}, ErrEmptyEntry
	}

	now := s.now()
	entry := mood.JournalEntry{
		Text: text,
		Date: now.In(s.loc).Format(dateLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.touchLocked(sessionID, now) {
		return mood.JournalEntry{}, ErrSessionNotFound
	}
	s.entries[sessionID] = append(s.entries[sessionID], entry)
	return entry, nil
}

// List returns the session's entries newest first.
func (s *Service) List(_ context.Context, sessionID string) ([]mood.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.touchLocked(sessionID, s.now()) {
		return nil, ErrSessionNotFound
	}
	entries := s.entries[sessionID]

	out := make([]mood.JournalEntry, len(entries))
	for i, entry := range entries {
		out[len(entries)-1-i] = entry
	}
	return out, nil
}

// touchLocked marks the session used at now. An expired session is removed
// and reported as missing.
func (s *Service) touchLocked(sessionID string, now time.Time) bool {
	s.sweepLocked(now)
	last, ok := s.lastUse[sessionID]
	if !ok {
		return false
	}
	if now.Sub(last) > sessionTTL {
		s.dropLocked(sessionID)
		return false
	}
	s.lastUse[sessionID] = now
	return true
}

func (s *Service) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) <= sweepEvery {
		return
	}
	for id, last := range s.lastUse {
		if now.Sub(last) > sessionTTL {
			s.dropLocked(id)
		}
	}
	s.lastSweep = now
}

func (s *Service) dropLocked(sessionID string) {
	delete(s.sessions, sessionID)
	delete(s.entries, sessionID)
	delete(s.lastUse, sessionID)
}
