package emotion

import "strings"

// Score is one label/score pair produced by a sentiment classifier.
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Normalized returns a copy with the label lower-cased and trimmed.
func (s Score) Normalized() Score {
	return Score{Label: strings.ToLower(strings.TrimSpace(s.Label)), Score: s.Score}
}

// Top returns the entry with the highest score. An entry only replaces the
// current best when its score is strictly greater, so on ties the first one
// in slice order wins. ok is false for an empty slice.
func Top(scores []Score) (best Score, ok bool) {
	if len(scores) == 0 {
		return Score{}, false
	}

	best = scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best, true
}
