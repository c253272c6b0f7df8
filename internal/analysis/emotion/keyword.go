package emotion

import (
	"slices"
	"strings"
	"unicode"
)

// Neutral is reported when no keyword matches.
const Neutral = "neutral"

// keywordBuckets maps go_emotions labels to the words that vote for them.
// Multi-word entries match as phrases, single words only as whole tokens.
var keywordBuckets = map[string][]string{
	"joy":            {"happy", "glad", "great", "awesome", "amazing", "lol", "haha", "yay", "wonderful"},
	"gratitude":      {"thanks", "thank you", "grateful", "appreciate"},
	"love":           {"love", "adore"},
	"excitement":     {"excited", "can't wait", "wow", "hyped", "thrilled"},
	"optimism":       {"hopeful", "looking forward", "optimistic"},
	"caring":         {"take care", "here for you", "support"},
	"curiosity":      {"curious", "wonder", "how come"},
	"confusion":      {"confused", "don't understand", "no idea"},
	"sadness":        {"sad", "unhappy", "cry", "crying", "depressed", "down", "hopeless", "lonely", "upset", "miserable", "empty"},
	"grief":          {"grief", "grieving", "passed away", "funeral", "mourning", "lost my"},
	"fear":           {"scared", "afraid", "terrified", "fear", "panic", "frightened"},
	"nervousness":    {"anxious", "nervous", "worried", "overwhelmed", "stressed"},
	"anger":          {"angry", "furious", "rage", "mad", "pissed"},
	"annoyance":      {"annoyed", "irritated", "fed up"},
	"disappointment": {"disappointed", "let down", "failed"},
	"remorse":        {"regret", "my fault", "ashamed", "guilty"},
}

const (
	keywordWeight    = 3
	exclamationBoost = 2
)

// Analyze scores text against the keyword buckets and returns go_emotions
// shaped results ordered by descending score. Scores sum to 1.
func Analyze(text string) []Score {
	points := scoreText(text)

	total := 0
	for _, p := range points {
		total += p
	}
	if total == 0 {
		return []Score{{Label: Neutral, Score: 1}}
	}

	scores := make([]Score, 0, len(points))
	for label, p := range points {
		if p == 0 {
			continue
		}
		scores = append(scores, Score{Label: label, Score: float64(p) / float64(total)})
	}

	slices.SortFunc(scores, func(a, b Score) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.Label, b.Label)
		}
	})
	return scores
}

func scoreText(text string) map[string]int {
	scores := make(map[string]int)

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return scores
	}
	joined := " " + strings.Join(tokens, " ") + " "

	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(joined, " "+word+" ") {
				scores[label] += keywordWeight
			}
		}
	}

	exclamations := strings.Count(text, "!")
	if exclamations > 0 {
		scores["excitement"] += exclamations * exclamationBoost
		if exclamations == 1 {
			scores["joy"] += exclamationBoost
		}
	}

	return scores
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
