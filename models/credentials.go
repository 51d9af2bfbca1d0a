package models

// Credentials are the provider keys held for one browser session.
// They are never written to disk.
type Credentials struct {
	SearchKey     string `json:"-"`
	GenerationKey string `json:"-"`
}

// HasSearch reports whether a search API key is set
func (c Credentials) HasSearch() bool {
	return c.SearchKey != ""
}

// HasGeneration reports whether a generation API key is set
func (c Credentials) HasGeneration() bool {
	return c.GenerationKey != ""
}

// MaskKey hides all but the first three and last four characters of a key
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
