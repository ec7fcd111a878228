package enrichment

import (
	"regexp"
	"strings"
)

// Title-noise patterns, applied in order by CanonicalTitle. Each strips one
// kind of venue decoration; later patterns see the output of earlier ones.
var (
	titleFormatTagPat = regexp.MustCompile(`(?i)\b(3D|IMAX|4K|2K|2D|HFR|HDR|Dolby|Atmos)\b`)

	titleLanguagePat = regexp.MustCompile(`(?i)\s*\([^)]*(dub|sub|english|japanese|french|spanish|korean|german|italian|hindi|mandarin|cantonese)[^)]*\)`)

	titleRestorationPat = regexp.MustCompile(`(?i)\s+[-–—].*\b(anniversary|restoration|restored|remaster(ed)?|re-?release)\b.*$`)

	titleScreeningPat = regexp.MustCompile(`(?i)\s+[-–—].*\b(preview|special|encore|screening|event|limited)\b.*$`)

	titleLiveBroadcastPat = regexp.MustCompile(`(?i)\s*[-–—:]?\s*\b(national theatre live|nt live|met opera live|royal opera house live|live broadcast)\b.*$`)

	titleRetroPat = regexp.MustCompile(`(?i)\s*[-–—:]?\s*\b(retro|classic)\s*$`)

	titleYearPat = regexp.MustCompile(`(?i)\s*\((19|20)\d{2}\)(\s+film)?\s*$`)

	titleBracketPat = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)

	titleArticlePat = regexp.MustCompile(`(?i)^(.*),\s*The\s*$`)

	titleSpacePat = regexp.MustCompile(`\s+`)

	titleTrailingPunctPat = regexp.MustCompile(`\s*[-–—:]+\s*$`)
)

// CanonicalTitle strips format, language, and event noise from a raw venue
// title to produce a metadata-lookup query. The raw title is what gets
// displayed; the canonical one is never shown. Single-pass best-effort
// cleanup, not a grammar.
func CanonicalTitle(raw string) string {
	t := raw
	t = titleFormatTagPat.ReplaceAllString(t, "")
	t = titleLanguagePat.ReplaceAllString(t, "")
	t = titleRestorationPat.ReplaceAllString(t, "")
	t = titleScreeningPat.ReplaceAllString(t, "")
	t = titleLiveBroadcastPat.ReplaceAllString(t, "")
	t = titleRetroPat.ReplaceAllString(t, "")
	t = titleYearPat.ReplaceAllString(t, "")
	t = titleBracketPat.ReplaceAllString(t, "")
	if ms := titleArticlePat.FindStringSubmatch(t); ms != nil {
		t = "The " + ms[1]
	}
	t = titleSpacePat.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	t = titleTrailingPunctPat.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}
