package analytics

import (
	"strings"

	"github.com/oelv/crm-funnel-backend/internal/domain"
)

// Classifier applies the priority-ordered keyword rules of one RuleSet.
// It is stateless and safe for concurrent use.
type Classifier struct {
	rules RuleSet
}

func NewClassifier(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// Classify derives the outcome tags for one lead's follow-up texts.
// InvalidData is evaluated only when DeepCommunication did not match;
// Connected means the lead has at least one note and is not unreachable
// under the whole-history threshold rule.
func (c *Classifier) Classify(texts []string) domain.TagSet {
	tags := make(domain.TagSet, 3)
	deep := c.HasDeepCommunication(texts)
	if deep {
		tags[domain.TagDeepCommunication] = true
	} else if c.HasInvalidData(texts) {
		tags[domain.TagInvalidData] = true
	}
	if len(texts) > 0 && !c.Unreachable(texts) {
		tags[domain.TagConnected] = true
	}
	return tags
}

// HasDeepCommunication reports whether any note contains a
// deep-communication keyword.
func (c *Classifier) HasDeepCommunication(texts []string) bool {
	return anyMatch(texts, c.rules.Keywords.DeepCommunication)
}

// HasInvalidData reports whether any note contains an invalid-data keyword.
// Priority suppression against DeepCommunication is the caller's concern.
func (c *Classifier) HasInvalidData(texts []string) bool {
	return anyMatch(texts, c.rules.Keywords.InvalidData)
}

// Unreachable is the whole-history threshold rule behind the connection
// rate: the lead has notes, none of them reached the deep or invalid stage,
// and the fraction of notes hitting a no-connection keyword exceeds the
// configured cutoff.
func (c *Classifier) Unreachable(texts []string) bool {
	return c.unreachable(texts, func(rate float64) bool {
		return rate > c.rules.Thresholds.NoConnectionRate
	})
}

// UnreachableWindow is the stricter rolling-window variant: every windowed
// note must hit a no-connection keyword.
func (c *Classifier) UnreachableWindow(texts []string) bool {
	return c.unreachable(texts, func(rate float64) bool {
		return rate >= c.rules.Thresholds.WindowNoConnectionRate
	})
}

func (c *Classifier) unreachable(texts []string, over func(float64) bool) bool {
	if len(texts) == 0 {
		return false
	}
	if c.HasDeepCommunication(texts) || c.HasInvalidData(texts) {
		return false
	}
	hits := 0
	for _, t := range texts {
		if matchAny(t, c.rules.Keywords.NoConnection) {
			hits++
		}
	}
	return over(float64(hits) / float64(len(texts)))
}

func matchAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func anyMatch(texts []string, keywords []string) bool {
	for _, t := range texts {
		if matchAny(t, keywords) {
			return true
		}
	}
	return false
}
