// Package shepherd computes a case's precedential status and citation
// lineage from the citation edge list.
package shepherd

import (
	"fmt"

	"github.com/ksalter/deontica/internal/model"
)

// treatmentWeights is the fixed treatment-to-weight table used when
// computing precedent strength. Unrecognized treatments fall back to
// defaultWeight.
var treatmentWeights = map[model.Treatment]float64{
	model.TreatmentFollowed:      1.0,
	model.TreatmentDistinguished: 0.7,
	model.TreatmentCriticized:    0.3,
	model.TreatmentQuestioned:    0.3,
	model.TreatmentOverruled:     0.0,
	model.TreatmentSuperseded:    0.0,
}

const defaultWeight = 0.5

// Engine is a pure function holder: given the same citation list it
// always produces the same result, with iteration following input order.
type Engine struct{}

// NewEngine creates a shepherding engine
func NewEngine() *Engine {
	return &Engine{}
}

// Weight returns the table weight for a treatment
func Weight(t model.Treatment) float64 {
	if w, ok := treatmentWeights[t]; ok {
		return w
	}
	return defaultWeight
}

// ValidateCaseStatus filters edges citing caseID, averages their table
// weights into a precedent strength, and classifies status by priority:
// overruled, then superseded, then questioned (any negative treatment),
// then good_law. A case with no inbound citations is good_law with
// strength 0.
func (e *Engine) ValidateCaseStatus(caseID string, citations []model.Citation) model.CaseStatus {
	status := model.CaseStatus{
		CaseID: caseID,
		Status: model.StatusGoodLaw,
	}

	var sum float64
	var overruled, superseded, negative bool
	for _, c := range citations {
		if c.CitedCase != caseID {
			continue
		}
		status.TotalCitations++
		sum += Weight(c.Treatment)

		switch c.Treatment {
		case model.TreatmentOverruled:
			overruled = true
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("overruled by %s (%s)", c.CitingCase, c.Date.Format("2006-01-02")))
		case model.TreatmentSuperseded:
			superseded = true
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("superseded by %s (%s)", c.CitingCase, c.Date.Format("2006-01-02")))
		case model.TreatmentCriticized, model.TreatmentQuestioned:
			negative = true
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("%s by %s (%s)", c.Treatment, c.CitingCase, c.Date.Format("2006-01-02")))
		}
	}

	if status.TotalCitations > 0 {
		status.PrecedentStrength = sum / float64(status.TotalCitations)
	}

	switch {
	case overruled:
		status.Status = model.StatusOverruled
	case superseded:
		status.Status = model.StatusSuperseded
	case negative:
		status.Status = model.StatusQuestioned
	}

	return status
}

// TraceLineage returns the one-hop citation neighborhood of caseID:
// edges it cites and edges citing it, each annotated with treatment,
// date, and the edge's stored strength.
//
// maxDepth bounds transitive traversal in a future extension; the
// current implementation is one-hop regardless, and values below 1 are
// treated as 1.
func (e *Engine) TraceLineage(caseID string, citations []model.Citation, maxDepth int) model.Lineage {
	if maxDepth < 1 {
		maxDepth = 1
	}
	_ = maxDepth // reserved for transitive traversal

	lineage := model.Lineage{CaseID: caseID}
	for _, c := range citations {
		edge := model.LineageEdge{
			Treatment: c.Treatment,
			Date:      c.Date,
			Strength:  c.Strength,
		}
		if c.CitingCase == caseID {
			edge.CaseID = c.CitedCase
			lineage.Cites = append(lineage.Cites, edge)
		}
		if c.CitedCase == caseID {
			edge.CaseID = c.CitingCase
			lineage.CitedBy = append(lineage.CitedBy, edge)
		}
	}
	return lineage
}
