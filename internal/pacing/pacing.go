// Package pacing converts prose volume into elapsed story minutes.
package pacing

import (
	"math"
	"regexp"
	"strings"
)

const (
	// CharsPerMinute is the prose volume that costs one story minute.
	CharsPerMinute = 700

	ConversationFactor = 0.5
	TravelFactor       = 2.0

	// Similarity thresholds against the last two ledger records.
	HighSimilarity = 0.3
	LowSimilarity  = 0.1
	Dampen         = 0.7
	Boost          = 1.3

	// MarkerInterval is the prose volume after which a fresh checkpoint
	// marker is embedded.
	MarkerInterval = 7000
)

var (
	conversationWords = regexp.MustCompile(`\b(say|ask|talk|whisper|reply)\b`)
	travelWords       = regexp.MustCompile(`\b(journey|travel|wait|sleep|days|hours)\b`)
	nonWord           = regexp.MustCompile(`[^\w]`)
	numeric           = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// BaseMinutes returns floor(chars / CharsPerMinute * multiplier * factor).
// Negative multipliers are clamped to zero.
func BaseMinutes(chars int, multiplier, factor float64) int {
	if chars <= 0 || multiplier <= 0 || factor <= 0 {
		return 0
	}
	return int(math.Floor(float64(chars) / CharsPerMinute * multiplier * factor))
}

// DynamicFactor scales time for dialogue-heavy or travel-heavy text.
func DynamicFactor(text string) float64 {
	lower := strings.ToLower(text)
	switch {
	case conversationWords.MatchString(lower):
		return ConversationFactor
	case travelWords.MatchString(lower):
		return TravelFactor
	default:
		return 1.0
	}
}

// Keywords returns the distinct lowercase words longer than three
// characters that are not plain numbers.
func Keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, field := range strings.Fields(text) {
		w := strings.ToLower(nonWord.ReplaceAllString(field, ""))
		if len(w) <= 3 {
			continue
		}
		if numeric.MatchString(w) {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// Similarity is the Jaccard index of two keyword sets. It is zero when
// either set is empty.
func Similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// Adjust dampens minutes when the current text repeats either of the
// previous two records and boosts them when it shares almost nothing
// with both. recent holds up to two prior record texts, newest first; a
// missing record counts as zero similarity.
func Adjust(minutes int, current string, recent ...string) int {
	cur := Keywords(current)
	high, low := false, true
	for _, r := range recent {
		sim := Similarity(cur, Keywords(r))
		if sim > HighSimilarity {
			high = true
		}
		if sim >= LowSimilarity {
			low = false
		}
	}
	switch {
	case high:
		return max(1, int(math.Floor(float64(minutes)*Dampen)))
	case low:
		return int(math.Floor(float64(minutes) * Boost))
	default:
		return minutes
	}
}
