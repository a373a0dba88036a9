package domain

// Release is the record published for a version tag: human-readable notes
// plus one attached artifact. Immutable once created; there is no update
// path, a duplicate tag is rejected by the forge.
type Release struct {
	Tag       string `json:"tag"`
	Name      string `json:"name,omitempty"`
	Body      string `json:"body"`
	AssetPath string `json:"asset_path,omitempty"`
}
