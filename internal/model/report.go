package model

// SearchHit pairs a statement with its similarity to a query
type SearchHit struct {
	Statement  Statement `json:"statement"`
	Similarity float64   `json:"similarity"`
}

// TopicGroups partitions a topic's statements by modality
type TopicGroups struct {
	TopicID      int64       `json:"topic_id"`
	Obligations  []Statement `json:"obligations"`
	Permissions  []Statement `json:"permissions"`
	Prohibitions []Statement `json:"prohibitions"`
}

// LintReport is the result of a read-only conflict check of new text
// against the persisted corpus. A report with zero statements analyzed is
// valid output, not a failure.
type LintReport struct {
	ConflictsFound     int         `json:"conflicts_found"`
	Conflicts          []Conflict  `json:"conflicts"`
	StatementsAnalyzed int         `json:"statements_analyzed"`
	Statements         []Statement `json:"statements,omitempty"` // The transient statements, for display

	Summary *LintSummary `json:"summary,omitempty"` // Optional LLM digest; never affects detection
}

// LintSummary is an optional plain-language digest of a lint report.
// It is generated after detection completes and has no influence on it.
type LintSummary struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Text     string   `json:"text"`
	Warnings []string `json:"warnings,omitempty"`
}

// Stats aggregates the persisted corpus
type Stats struct {
	TotalStatements      int              `json:"total_statements"`
	TotalTopics          int              `json:"total_topics"`
	TotalCitations       int              `json:"total_citations"`
	StatementsByModality map[Modality]int `json:"statements_by_modality"`
	UnresolvedConflicts  map[Severity]int `json:"unresolved_conflicts_by_severity"`
}
