package scraper

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drewfead/marquee/internal"
)

var goldenExtractors = map[string]internal.GoldenExtractor{
	"hollywood":   Hollywood().(internal.GoldenExtractor),
	"cinemagic":   Cinemagic().(internal.GoldenExtractor),
	"cinema21":    Cinema21().(internal.GoldenExtractor),
	"academy":     Academy().(internal.GoldenExtractor),
	"laurelhurst": Laurelhurst().(internal.GoldenExtractor),
	"bagdad":      Bagdad().(internal.GoldenExtractor),
}

const goldenDir = "golden"

func TestPrep_PullAllGolden(t *testing.T) {
	if os.Getenv("PREP") != "1" {
		t.Skip("PREP is not set")
	}

	for name, s := range goldenExtractors {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(goldenDir, name)
			err := s.PullGolden(t.Context(), dir)
			require.NoError(t, err, "PullGolden")
			t.Logf("wrote golden files to %s", dir)
		})
	}
}

func MountGoldenTestServer(t *testing.T, extractorName string) *httptest.Server {
	t.Helper()
	dir := filepath.Join(goldenDir, extractorName)
	s := goldenExtractors[extractorName]
	handler, err := s.MountGolden(t.Context(), dir)
	require.NoError(t, err, "MountGolden")
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
