package model

import "time"

// Modality classifies a deontic statement
type Modality string

const (
	ModalityObligation  Modality = "obligation"
	ModalityPermission  Modality = "permission"
	ModalityProhibition Modality = "prohibition"
)

// Operator returns the deontic logic operator for the modality
func (m Modality) Operator() string {
	switch m {
	case ModalityObligation:
		return "O"
	case ModalityPermission:
		return "P"
	case ModalityProhibition:
		return "F"
	default:
		return ""
	}
}

// Valid reports whether the modality is one of the three known values
func (m Modality) Valid() bool {
	switch m {
	case ModalityObligation, ModalityPermission, ModalityProhibition:
		return true
	}
	return false
}

// Statement represents one formalized obligation, permission, or prohibition
// extracted from legal text
type Statement struct {
	ID              int64     `json:"id,omitempty"`         // Assigned by the store on persist; <= 0 means transient
	LogicExpression string    `json:"logic_expression"`     // Operator-predicate form, e.g. O(provide_notice)
	NaturalLanguage string    `json:"natural_language"`     // Original sentence
	Confidence      float64   `json:"confidence"`           // Extraction confidence in [0,1]
	Modality        Modality  `json:"modality"`             // obligation, permission, prohibition
	TopicID         int64     `json:"topic_id,omitempty"`   // Subject-matter bucket
	CaseID          string    `json:"case_id,omitempty"`    // Originating case, if any
	CreatedAt       time.Time `json:"created_at,omitempty"` // Set by the store
}

// Persisted reports whether the statement has been accepted by the store
func (s Statement) Persisted() bool {
	return s.ID > 0
}
