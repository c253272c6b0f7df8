package emotion

import "strings"

// CrisisMessage is returned instead of a generated reply when the safety
// policy triggers.
const CrisisMessage = "It sounds like you're going through a very difficult time. Please know you're not alone. Call **Samaritans on 116 123** if you need help. 💙"

// DefaultThreshold is the score a high-risk label has to exceed.
const DefaultThreshold = 0.4

// DefaultHighRiskLabels lists the classifier labels that can trigger the crisis reply.
var DefaultHighRiskLabels = []string{"grief", "sadness", "fear", "disappointment", "remorse"}

// SafetyPolicy decides whether a classification short-circuits the
// conversation with a crisis-support message.
type SafetyPolicy struct {
	labels    map[string]struct{}
	threshold float64
	message   string
}

// NewSafetyPolicy builds a policy. Labels are matched case-insensitively; an
// empty message falls back to CrisisMessage.
func NewSafetyPolicy(labels []string, threshold float64, message string) SafetyPolicy {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		set[label] = struct{}{}
	}

	if strings.TrimSpace(message) == "" {
		message = CrisisMessage
	}

	return SafetyPolicy{labels: set, threshold: threshold, message: message}
}

// DefaultSafetyPolicy returns the built-in high-risk table.
func DefaultSafetyPolicy() SafetyPolicy {
	return NewSafetyPolicy(DefaultHighRiskLabels, DefaultThreshold, CrisisMessage)
}

// Triggers reports whether the label is high-risk and its score is strictly
// above the threshold.
func (p SafetyPolicy) Triggers(s Score) bool {
	if _, ok := p.labels[strings.ToLower(strings.TrimSpace(s.Label))]; !ok {
		return false
	}
	return s.Score > p.threshold
}

// Message is the crisis-support text.
func (p SafetyPolicy) Message() string {
	return p.message
}

// Threshold returns the score boundary.
func (p SafetyPolicy) Threshold() float64 {
	return p.threshold
}
