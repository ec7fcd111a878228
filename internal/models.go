package internal

import "time"

// Session is one film's set of screenings at one venue on one date.
// Title is the raw display title as shown by the venue; a double feature
// encodes both films in one title (e.g. "Alien + Aliens").
type Session struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Times           []string `json:"times"` // canonical "3:04pm" strings, discovery order
	URL             string   `json:"url"`
	IsDoubleFeature bool     `json:"isDoubleFeature,omitempty"`
	PremiumTimes    []string `json:"premiumTimes,omitempty"` // subset of Times in a premium format

	Metadata

	// Films is populated only for double features: per-constituent metadata
	// in title order.
	Films []Metadata `json:"films,omitempty"`
}

// Metadata holds enrichment data for one film. The zero value is the
// no-match fallback; callers branch on field presence, never on an error.
type Metadata struct {
	Overview   string   `json:"overview,omitempty"`
	PosterPath string   `json:"posterPath,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`  // 0-10 scale
	Year       string   `json:"year,omitempty"`    // 4-digit release year
	Runtime    *int     `json:"runtime,omitempty"` // minutes
	TrailerURL string   `json:"trailerUrl,omitempty"`
	TMDBID     int64    `json:"tmdbId,omitempty"`
}

// VenueResult is one venue's sessions for one date. Note carries
// venue-specific caveats (e.g. which formats are flagged premium); it is
// descriptive metadata, not an error.
type VenueResult struct {
	Cinema   string    `json:"cinema"`
	URL      string    `json:"url"`
	Sessions []Session `json:"sessions"`
	Note     string    `json:"note,omitempty"`
}

type DayResult struct {
	Date    string        `json:"date"`    // display string, e.g. "Friday 20 February"
	DateKey string        `json:"dateKey"` // YYYY-MM-DD
	Cinemas []VenueResult `json:"cinemas"`
}

// Feed is the final artifact: fully replaced on each run, no incremental
// merge with prior runs.
type Feed struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Days        []DayResult `json:"days"`
}
