package touringbot

// ManifestResolver locates per-page markup documents inside a package manifest.
type ManifestResolver interface {
	// Resolve returns a page number to markup URL mapping for the requested
	// page IDs. Pages without a markup file are absent from the result.
	Resolve(manifest []byte, pageIDs []string) (map[int]string, error)
}
