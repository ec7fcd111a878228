package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Venue sites disagree on time formatting: "2:30 PM", "2:30pm", "9 AM",
// "14:05". NormalizeClock reformats any of those into the feed's canonical
// "3:04pm" shape — minutes always two digits, hour never zero-padded,
// lowercase meridiem. The string is reformatted, not reinterpreted; the
// extractor is responsible for the hour already being venue-local.
//
// Anything unrecognized (including "see website" sentinels some venues
// publish instead of a time) passes through unchanged. Never fails.
func NormalizeClock(raw string) string {
	if ms := clock12Pat.FindStringSubmatch(raw); ms != nil {
		hour, _ := strconv.Atoi(ms[1])
		minute, _ := strconv.Atoi(ms[2])
		if hour >= 1 && hour <= 12 && minute <= 59 {
			return fmt.Sprintf("%d:%02d%s", hour, minute, strings.ToLower(ms[3])+"m")
		}
		return raw
	}
	if ms := clockHourPat.FindStringSubmatch(raw); ms != nil {
		hour, _ := strconv.Atoi(ms[1])
		if hour >= 1 && hour <= 12 {
			return fmt.Sprintf("%d:00%s", hour, strings.ToLower(ms[2])+"m")
		}
		return raw
	}
	if ms := clock24Pat.FindStringSubmatch(raw); ms != nil {
		hour, _ := strconv.Atoi(ms[1])
		minute, _ := strconv.Atoi(ms[2])
		if hour > 23 || minute > 59 {
			return raw
		}
		meridiem := "am"
		switch {
		case hour == 0:
			hour = 12
		case hour == 12:
			meridiem = "pm"
		case hour > 12:
			hour -= 12
			meridiem = "pm"
		}
		return fmt.Sprintf("%d:%02d%s", hour, minute, meridiem)
	}
	return raw
}

var (
	// "2:30 PM", "2:30PM", "2:30pm", "12:05 a.m."
	clock12Pat = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([AaPp])\.?[Mm]\.?\s*$`)
	// "9 AM", "9pm"
	clockHourPat = regexp.MustCompile(`^\s*(\d{1,2})\s*([AaPp])\.?[Mm]\.?\s*$`)
	// 24-hour "14:05"
	clock24Pat = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*$`)
)
