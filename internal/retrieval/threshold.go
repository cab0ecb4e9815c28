package retrieval

import (
	"regexp"
	"strings"
)

// Similarity thresholds by question shape. Specific product mentions
// demand tight matches; broad category questions tolerate loose ones.
const (
	ThresholdProduct  = 0.8
	ThresholdCategory = 0.6
	ThresholdSpending = 0.7
	ThresholdTemporal = 0.65
	ThresholdDefault  = 0.75

	// Floor is the hard lower bound used when the primary threshold
	// yields nothing.
	Floor = 0.5
)

var thresholdBuckets = []struct {
	re        *regexp.Regexp
	threshold float64
}{
	{regexp.MustCompile(`\b(brand|product|item)\b`), ThresholdProduct},
	{regexp.MustCompile(`\b(category|type|kind)\b`), ThresholdCategory},
	{regexp.MustCompile(`\b(spent|cost|price|amount|expensive|cheap)\b`), ThresholdSpending},
	{regexp.MustCompile(`\b(last|recent|yesterday|week|month)\b`), ThresholdTemporal},
}

// AdaptiveThreshold picks a similarity cutoff from the question text.
// Buckets are checked in order; the first match wins.
func AdaptiveThreshold(question string) float64 {
	q := strings.ToLower(question)
	for _, b := range thresholdBuckets {
		if b.re.MatchString(q) {
			return b.threshold
		}
	}
	return ThresholdDefault
}
