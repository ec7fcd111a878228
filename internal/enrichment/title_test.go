package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnit_CanonicalTitle(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain title untouched", raw: "Paris, Texas", want: "Paris, Texas"},
		{name: "article relocation", raw: "Housemaid, The", want: "The Housemaid"},
		{name: "format tag and restoration qualifier", raw: "Jaws 3D - 50th Anniversary Restoration", want: "Jaws"},
		{name: "imax tag", raw: "Dune IMAX", want: "Dune"},
		{name: "dolby atmos tags", raw: "Oppenheimer Dolby Atmos", want: "Oppenheimer"},
		{name: "language parenthetical", raw: "Spirited Away (English Dubbed)", want: "Spirited Away"},
		{name: "subtitled parenthetical", raw: "Seven Samurai (Subtitled)", want: "Seven Samurai"},
		{name: "special screening qualifier", raw: "Wicked - Special Preview", want: "Wicked"},
		{name: "encore qualifier", raw: "Hamilton - Encore Screening", want: "Hamilton"},
		{name: "live broadcast brand", raw: "Frankenstein - National Theatre Live", want: "Frankenstein"},
		{name: "retro qualifier", raw: "Heat RETRO", want: "Heat"},
		{name: "year in parens", raw: "Nosferatu (1922)", want: "Nosferatu"},
		{name: "year with film suffix", raw: "Scarface (1983) Film", want: "Scarface"},
		{name: "bracketed annotation", raw: "Akira [Members Only]", want: "Akira"},
		{name: "article relocation after year strip", raw: "Shining, The (1980)", want: "The Shining"},
		{name: "whitespace collapse", raw: "  The   Big  Lebowski ", want: "The Big Lebowski"},
		{name: "trailing dash cleanup", raw: "Memento -", want: "Memento"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanonicalTitle(tc.raw))
		})
	}
}
