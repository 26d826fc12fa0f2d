package model

// Topic is a named subject-matter bucket, e.g. "Civil Rights".
// Topics are created lazily on first reference by name and never renamed.
type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CaseCount   int    `json:"case_count"`
}
