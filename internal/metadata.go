package internal

import "context"

// MetadataProvider looks up enrichment data for a raw venue title.
// Lookup never fails: no-match and lookup errors both produce the zero
// Metadata, so callers branch only on field presence.
type MetadataProvider interface {
	Lookup(ctx context.Context, rawTitle string) Metadata
}

// MetadataFunc adapts a function to the MetadataProvider interface.
type MetadataFunc func(ctx context.Context, rawTitle string) Metadata

func (f MetadataFunc) Lookup(ctx context.Context, rawTitle string) Metadata {
	return f(ctx, rawTitle)
}
