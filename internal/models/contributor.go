package models

// RawIdentity is one author identity as recorded by the remote service: a
// name/email pair plus the metrics attributed to it in one project.
type RawIdentity struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Project   string `json:"project,omitempty"`
	Commits   int    `json:"commits"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CanonicalContributor is a deduplicated contributor. It owns every raw
// identity mapped to it and aggregates their metrics; each raw identity
// belongs to exactly one canonical contributor.
type CanonicalContributor struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases,omitempty"`
	Emails    []string `json:"emails,omitempty"`
	Projects  []string `json:"projects,omitempty"`
	Commits   int      `json:"commits"`
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
}
