// Package conflict finds pairwise logical tensions across a set of
// deontic statements.
package conflict

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ksalter/deontica/internal/model"
)

var (
	leadingOp = regexp.MustCompile(`^([OPF])\(([^)]*)\)`)
	tClause   = regexp.MustCompile(`\bT\(([^)]*)\)`)
)

// rule is one pairwise detection rule. A rule returns nil when the pair is
// not in tension; it emits at most one conflict per pair.
type rule struct {
	typ   model.ConflictType
	check func(a, b model.Statement) *model.Conflict
}

// Detector applies a fixed, ordered rule set over every unordered
// statement pair. Detection is deterministic and idempotent: identical
// input produces a content-identical conflict set.
//
// Complexity is O(n²) over the input. That is acceptable for topic-scoped
// working sets (hundreds to low thousands of statements); corpora beyond
// that fall outside this design's envelope.
type Detector struct {
	rules []rule
}

// NewDetector creates a detector with the standard rule set.
// scope_conflict and precedent_violation are registered as reserved
// extension points and currently never fire.
func NewDetector() *Detector {
	return &Detector{
		rules: []rule{
			{model.ConflictDirectContradiction, directContradiction},
			{model.ConflictTemporalInconsistency, temporalInconsistency},
			{model.ConflictScope, reserved},
			{model.ConflictPrecedentViolation, reserved},
		},
	}
}

// Detect scans every unordered pair (i, j) with i < j and returns all
// detected conflicts in rule order within pair order
func (d *Detector) Detect(statements []model.Statement) []model.Conflict {
	var conflicts []model.Conflict
	for i := 0; i < len(statements); i++ {
		for j := i + 1; j < len(statements); j++ {
			for _, r := range d.rules {
				if c := r.check(statements[i], statements[j]); c != nil {
					c.Type = r.typ
					conflicts = append(conflicts, *c)
				}
			}
		}
	}
	return conflicts
}

// directContradiction fires when two statements share a predicate and one
// obligates what the other forbids. Permission versus obligation is not
// flagged: permitting an act does not contradict requiring it.
func directContradiction(a, b model.Statement) *model.Conflict {
	predA := Predicate(a.LogicExpression)
	predB := Predicate(b.LogicExpression)
	if predA == "" || predA != predB {
		return nil
	}
	if !obligationProhibitionPair(a.Modality, b.Modality) {
		return nil
	}
	return &model.Conflict{
		StatementA: a.ID,
		StatementB: b.ID,
		Severity:   model.SeverityCritical,
		Description: fmt.Sprintf("obligation and prohibition over the same predicate %q",
			predA),
		Resolution: "Determine which statement controls: the later enactment or higher authority normally prevails.",
	}
}

// temporalInconsistency fires when one statement's temporal qualifiers
// contain "before" and the other's contain "after"
func temporalInconsistency(a, b model.Statement) *model.Conflict {
	beforeA, afterA := temporalMarkers(a.LogicExpression)
	beforeB, afterB := temporalMarkers(b.LogicExpression)
	if !(beforeA && afterB) && !(afterA && beforeB) {
		return nil
	}
	return &model.Conflict{
		StatementA:  a.ID,
		StatementB:  b.ID,
		Severity:    model.SeverityWarning,
		Description: "statements carry opposing before/after temporal qualifiers",
		Resolution:  "Check whether the temporal windows can both be satisfied in sequence.",
	}
}

// reserved is the no-op check for extension-point rules
func reserved(a, b model.Statement) *model.Conflict {
	return nil
}

// Predicate extracts the parenthesized argument of the expression's
// leading deontic operator, or "" if the expression is malformed
func Predicate(expr string) string {
	m := leadingOp.FindStringSubmatch(expr)
	if m == nil {
		return ""
	}
	return m[2]
}

// temporalMarkers reports whether any T(...) clause body contains the
// literal tokens "before" or "after"
func temporalMarkers(expr string) (before, after bool) {
	for _, m := range tClause.FindAllStringSubmatch(expr, -1) {
		if strings.Contains(m[1], "before") {
			before = true
		}
		if strings.Contains(m[1], "after") {
			after = true
		}
	}
	return before, after
}

func obligationProhibitionPair(a, b model.Modality) bool {
	if a == model.ModalityObligation && b == model.ModalityProhibition {
		return true
	}
	return a == model.ModalityProhibition && b == model.ModalityObligation
}
