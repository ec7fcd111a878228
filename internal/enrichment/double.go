package enrichment

import "strings"

// doubleFeatureSeparators in preference order. " + " wins when both appear.
var doubleFeatureSeparators = []string{" + ", " & "}

// SplitDoubleFeature splits a combined-program title into constituent film
// titles. Returns nil when no recognized separator is present.
func SplitDoubleFeature(title string) []string {
	for _, sep := range doubleFeatureSeparators {
		if !strings.Contains(title, sep) {
			continue
		}
		parts := strings.Split(title, sep)
		titles := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				titles = append(titles, p)
			}
		}
		if len(titles) >= 2 {
			return titles
		}
	}
	return nil
}
