package model

// ConflictType classifies the detection rule that produced a conflict
type ConflictType string

const (
	ConflictDirectContradiction   ConflictType = "direct_contradiction"   // Obligation vs prohibition over the same predicate
	ConflictTemporalInconsistency ConflictType = "temporal_inconsistency" // Incompatible before/after qualifiers
	ConflictScope                 ConflictType = "scope_conflict"         // Reserved
	ConflictPrecedentViolation    ConflictType = "precedent_violation"    // Reserved
)

// Severity indicates how serious a detected conflict is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Conflict represents a detected logical tension between two statements.
// The statement pair is unordered; the stored order is first-seen order.
type Conflict struct {
	ID          int64        `json:"id,omitempty"`
	StatementA  int64        `json:"statement_a"`
	StatementB  int64        `json:"statement_b"`
	Type        ConflictType `json:"type"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Resolution  string       `json:"resolution,omitempty"` // Suggested resolution text
	Resolved    bool         `json:"resolved"`
}

// SamePair reports whether two conflicts reference the same unordered
// statement pair
func (c Conflict) SamePair(other Conflict) bool {
	if c.StatementA == other.StatementA && c.StatementB == other.StatementB {
		return true
	}
	return c.StatementA == other.StatementB && c.StatementB == other.StatementA
}

// InvolvesTransient reports whether either endpoint refers to a statement
// that has not been persisted (transient statements carry negative IDs)
func (c Conflict) InvolvesTransient() bool {
	return c.StatementA < 0 || c.StatementB < 0
}
