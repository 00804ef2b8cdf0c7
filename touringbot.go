// Package touringbot harvests keyword-anchored passages from digitized
// newspaper pages. It searches a remote archive, fetches per-page ALTO
// markup under a shared rate limit, extracts a window of text blocks around
// every keyword hit, and stores each window once under a content-derived
// identity, checkpointing progress so a long campaign can resume.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, etree/, http/).
package touringbot
