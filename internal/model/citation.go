package model

import "time"

// Treatment describes how a citing case treated the cited case
type Treatment string

const (
	TreatmentFollowed      Treatment = "followed"
	TreatmentDistinguished Treatment = "distinguished"
	TreatmentCriticized    Treatment = "criticized"
	TreatmentQuestioned    Treatment = "questioned"
	TreatmentOverruled     Treatment = "overruled"
	TreatmentSuperseded    Treatment = "superseded"
)

// Valid reports whether the treatment is one of the enumerated values
func (t Treatment) Valid() bool {
	switch t {
	case TreatmentFollowed, TreatmentDistinguished, TreatmentCriticized,
		TreatmentQuestioned, TreatmentOverruled, TreatmentSuperseded:
		return true
	}
	return false
}

// Negative reports whether the treatment undermines the cited case
func (t Treatment) Negative() bool {
	switch t {
	case TreatmentCriticized, TreatmentQuestioned, TreatmentOverruled, TreatmentSuperseded:
		return true
	}
	return false
}

// Citation is a directed citation edge between two cases. Edges are
// append-only; together they form a directed multigraph over case IDs.
//
// Strength is supplied at creation time and is independent of the weight
// table the shepherding engine uses when computing precedent strength.
type Citation struct {
	ID         int64     `json:"id,omitempty"`
	CitingCase string    `json:"citing_case"`
	CitedCase  string    `json:"cited_case"`
	Treatment  Treatment `json:"treatment"`
	Date       time.Time `json:"date"`
	Strength   float64   `json:"strength"`
}

// CaseStatusKind is the computed precedential status of a case
type CaseStatusKind string

const (
	StatusGoodLaw    CaseStatusKind = "good_law"
	StatusQuestioned CaseStatusKind = "questioned"
	StatusSuperseded CaseStatusKind = "superseded"
	StatusOverruled  CaseStatusKind = "overruled"
)

// CaseStatus is the shepherding engine's assessment of a single case
type CaseStatus struct {
	CaseID            string         `json:"case_id"`
	Status            CaseStatusKind `json:"status"`
	PrecedentStrength float64        `json:"precedent_strength"` // Mean of the treatment weight table
	TotalCitations    int            `json:"total_citations"`
	Warnings          []string       `json:"warnings,omitempty"`
}

// LineageEdge is a citation edge annotated for lineage reporting
type LineageEdge struct {
	CaseID    string    `json:"case_id"` // The case on the far end of the edge
	Treatment Treatment `json:"treatment"`
	Date      time.Time `json:"date"`
	Strength  float64   `json:"strength"` // The edge's stored strength
}

// Lineage is the one-hop citation neighborhood of a case
type Lineage struct {
	CaseID  string        `json:"case_id"`
	Cites   []LineageEdge `json:"cites"`    // Edges where the case is the citing case
	CitedBy []LineageEdge `json:"cited_by"` // Edges where the case is the cited case
}
