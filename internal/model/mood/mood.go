package mood

import (
	"strings"
	"time"
)

// Mood is one of the fixed labels a user can log.
type Mood string

const (
	Happy       Mood = "Happy"
	Sad         Mood = "Sad"
	Angry       Mood = "Angry"
	Anxious     Mood = "Anxious"
	Calm        Mood = "Calm"
	Overwhelmed Mood = "Overwhelmed"
)

var all = []Mood{Happy, Sad, Angry, Anxious, Calm, Overwhelmed}

// All returns the selectable moods in display order.
func All() []Mood {
	out := make([]Mood, len(all))
	copy(out, all)
	return out
}

// Parse matches a label case-insensitively.
func Parse(label string) (Mood, bool) {
	label = strings.TrimSpace(label)
	for _, m := range all {
		if strings.EqualFold(string(m), label) {
			return m, true
		}
	}
	return "", false
}

// TimestampLayout is how mood timestamps are written, millisecond ISO-8601 in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is one logged mood. Entries are appended and never modified.
type Entry struct {
	ID        string `json:"id,omitempty"`
	Mood      Mood   `json:"mood"`
	Note      string `json:"note"`
	Timestamp string `json:"timestamp"`
}

// Time parses Timestamp. Entries written by older clients may carry any
// RFC3339 variant.
func (e Entry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// DaySummary counts moods logged on one calendar date.
type DaySummary struct {
	Date   string       `json:"date"`
	Counts map[Mood]int `json:"counts"`
}

// JournalSession scopes journal entries to one client session.
type JournalSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// JournalEntry is free text stamped with a display date.
type JournalEntry struct {
	Text string `json:"text"`
	Date string `json:"date"`
}
