package mood

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindease/backend/internal/model/mood"
	"github.com/mindease/backend/internal/store/kv"
)

// SlotKey is the single key-value slot holding the whole mood log.
const SlotKey = "moodLog"

// InvalidDate labels entries whose timestamp cannot be parsed.
const InvalidDate = "Invalid Date"

const dateLayout = "1/2/2006"

var ErrUnknownMood = errors.New("unknown mood")

// Service logs moods into one JSON array stored under SlotKey. Every write
// rewrites the whole array.
type Service struct {
	mu    sync.Mutex
	store kv.Store
	loc   *time.Location
	now   func() time.Time
}

// NewService uses loc to decide which calendar date an entry belongs to. A nil
// loc means UTC.
func NewService(store kv.Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
}

// Log validates the label, stamps the entry and prepends it to the log.
func (s *Service) Log(ctx context.Context, label, note string) (mood.Entry, error) {
	m, ok := mood.Parse(label)
	if !ok {
		return mood.Entry{}, fmt.Errorf("%w: %q", ErrUnknownMood, label)
	}

	entry := mood.Entry{
		ID:        uuid.NewString(),
		Mood:      m,
		Note:      strings.TrimSpace(note),
		Timestamp: s.now().UTC().Format(mood.TimestampLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return mood.Entry{}, err
	}

	updated := make([]mood.Entry, 0, len(entries)+1)
	updated = append(updated, entry)
	updated = append(updated, entries...)

	raw, err := json.Marshal(updated)
	if err != nil {
		return mood.Entry{}, fmt.Errorf("encode mood log: %w", err)
	}
	if err := s.store.Set(ctx, SlotKey, string(raw)); err != nil {
		return mood.Entry{}, fmt.Errorf("save mood log: %w", err)
	}

	return entry, nil
}

// List returns the log newest first. A missing slot is an empty log.
func (s *Service) List(ctx context.Context) ([]mood.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// WeeklySummary groups the log by calendar date and mood. Dates appear in the
// order they are first seen while walking the log newest first.
func (s *Service) WeeklySummary(ctx context.Context) ([]mood.DaySummary, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]mood.DaySummary, 0)
	index := make(map[string]int)
	for _, entry := range entries {
		date := s.dateOf(entry)
		i, ok := index[date]
		if !ok {
			i = len(summaries)
			index[date] = i
			summaries = append(summaries, mood.DaySummary{Date: date, Counts: make(map[mood.Mood]int)})
		}
		summaries[i].Counts[entry.Mood]++
	}
	return summaries, nil
}

func (s *Service) dateOf(entry mood.Entry) string {
	ts, err := entry.Time()
	if err != nil {
		return InvalidDate
	}
	return ts.In(s.loc).Format(dateLayout)
}

func (s *Service) load(ctx context.Context) ([]mood.Entry, error) {
	raw, err := s.store.Get(ctx, SlotKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []mood.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mood log: %w", err)
	}

	if strings.TrimSpace(raw) == "" {
		return []mood.Entry{}, nil
	}

	var entries []mood.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode mood log: %w", err)
	}
	if entries == nil {
		entries = []mood.Entry{}
	}
	return entries, nil
}
