package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ksalter/deontica/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "deontica.db")
	cfg.Cache.Enabled = false

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_IngestPersistsAndDetects(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	persisted, err := e.Ingest(ctx, "Tenants must return deposits.", "Case A", "housing")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(persisted))
	}
	if !persisted[0].Persisted() {
		t.Errorf("Expected a persisted ID, got %d", persisted[0].ID)
	}
	if persisted[0].TopicID <= 0 {
		t.Errorf("Expected a resolved topic id, got %d", persisted[0].TopicID)
	}

	// A contradicting ingest should produce a persisted conflict
	if _, err := e.Ingest(ctx, "Tenants must not return deposits.", "Case B", "housing"); err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}

	conflicts, err := e.Conflicts(ctx, true)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].Type != model.ConflictDirectContradiction {
		t.Errorf("Expected direct_contradiction, got %s", conflicts[0].Type)
	}
	if conflicts[0].Severity != model.SeverityCritical {
		t.Errorf("Expected critical severity, got %s", conflicts[0].Severity)
	}
}

func TestEngine_RepeatedIngestDoesNotDuplicateConflicts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Ingest(ctx, "Drivers must carry insurance.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := e.Ingest(ctx, "Drivers must not carry insurance.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	first, err := e.Conflicts(ctx, false)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}

	// Ingesting unrelated text re-runs detection over the whole corpus;
	// the already-recorded pair must not be recorded again.
	if _, err := e.Ingest(ctx, "Pilots must file flight plans.", "", ""); err != nil {
		t.Fatalf("Third ingest failed: %v", err)
	}

	second, err := e.Conflicts(ctx, false)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("Conflict count changed from %d to %d after unrelated ingest", len(first), len(second))
	}
}

func TestEngine_PermissionObligationNotFlagged(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Ingest(ctx, "Tenants must pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := e.Ingest(ctx, "Tenants may pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	conflicts, err := e.Conflicts(ctx, false)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	for _, c := range conflicts {
		if c.Type == model.ConflictDirectContradiction {
			t.Errorf("Permission vs obligation wrongly flagged: %+v", c)
		}
	}
}

func TestEngine_ConvertTextDoesNotPersist(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	statements := e.ConvertText("Tenants must pay rent. Tenants may keep pets.", "Case A")
	if len(statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(statements))
	}
	for _, s := range statements {
		if s.Persisted() {
			t.Errorf("Expected transient statements, got ID %d", s.ID)
		}
		if s.CaseID != "Case A" {
			t.Errorf("Expected case id to propagate, got %q", s.CaseID)
		}
	}

	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalStatements != 0 {
		t.Errorf("ConvertText persisted statements: total is %d", stats.TotalStatements)
	}
}

func TestEngine_EqualProtectionScenario(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	persisted, err := e.Ingest(ctx,
		"States must provide equal educational opportunities to all children.",
		"", "Civil Rights")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(persisted))
	}
	if persisted[0].Modality != model.ModalityObligation {
		t.Errorf("Expected obligation, got %s", persisted[0].Modality)
	}
	if !strings.Contains(persisted[0].LogicExpression, "provide_equal_educational_opportunities") {
		t.Errorf("Unexpected predicate: %s", persisted[0].LogicExpression)
	}
	if persisted[0].Confidence < 0.7 {
		t.Errorf("Expected confidence >= 0.7, got %f", persisted[0].Confidence)
	}

	// "may deny" is a permission over a different predicate, which the
	// direct-contradiction rule does not pair with an obligation.
	if _, err := e.Ingest(ctx,
		"States may deny equal educational opportunities to all children.",
		"", "Civil Rights"); err != nil {
		t.Fatalf("Second ingest failed: %v", err)
	}
	conflicts, err := e.Conflicts(ctx, false)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	for _, c := range conflicts {
		if c.Type == model.ConflictDirectContradiction {
			t.Errorf("Unexpected direct contradiction: %+v", c)
		}
	}
}

func TestEngine_LintIsReadOnly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Ingest(ctx, "Tenants must pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	report, err := e.Lint(ctx, "Tenants must not pay rent.", "")
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}
	if report.StatementsAnalyzed != 1 {
		t.Errorf("Expected 1 analyzed statement, got %d", report.StatementsAnalyzed)
	}
	if report.ConflictsFound != 1 {
		t.Fatalf("Expected 1 conflict, got %d", report.ConflictsFound)
	}
	if !report.Conflicts[0].InvolvesTransient() {
		t.Errorf("Expected the conflict to involve the transient statement: %+v", report.Conflicts[0])
	}

	// Nothing persisted: stats and stored conflicts are unchanged
	stats, err := e.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalStatements != 1 {
		t.Errorf("Lint persisted statements: total is %d", stats.TotalStatements)
	}
	stored, err := e.Conflicts(ctx, false)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("Lint persisted conflicts: %d stored", len(stored))
	}
}

func TestEngine_LintNonDeonticText(t *testing.T) {
	e := newTestEngine(t)

	report, err := e.Lint(context.Background(), "The sky was gray that morning.", "")
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}
	if report.StatementsAnalyzed != 0 {
		t.Errorf("Expected 0 analyzed statements, got %d", report.StatementsAnalyzed)
	}
	if report.ConflictsFound != 0 || len(report.Conflicts) != 0 {
		t.Errorf("Expected an empty conflict list, got %+v", report.Conflicts)
	}
}

func TestEngine_LintDuplicateTextNotShadowed(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Ingest(ctx, "Tenants must pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// Linting the exact text already stored still reports the transient
	// side distinctly from the stored statement.
	report, err := e.Lint(ctx, "Tenants must pay rent.", "")
	if err != nil {
		t.Fatalf("Lint failed: %v", err)
	}
	if report.StatementsAnalyzed != 1 {
		t.Errorf("Expected 1 analyzed statement, got %d", report.StatementsAnalyzed)
	}
	if len(report.Statements) != 1 || report.Statements[0].ID >= 0 {
		t.Errorf("Expected a sentinel transient ID, got %+v", report.Statements)
	}
}

func TestEngine_SearchLifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	hits, err := e.Search(ctx, "security deposits", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits on an empty corpus, got %d", len(hits))
	}

	if _, err := e.Ingest(ctx, "Landlords must return security deposits promptly.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := e.Ingest(ctx, "Pilots must file flight plans before departure.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	hits, err = e.Search(ctx, "returning a security deposit", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("Expected at least 1 hit after ingest")
	}
	if !strings.Contains(hits[0].Statement.NaturalLanguage, "security deposits") {
		t.Errorf("Expected the deposit statement first, got %q", hits[0].Statement.NaturalLanguage)
	}
	if len(hits) > 5 {
		t.Errorf("Expected at most 5 hits, got %d", len(hits))
	}
}

func TestEngine_TopicRelationships(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	persisted, err := e.Ingest(ctx,
		"Tenants must pay rent. Tenants may keep pets. Tenants must not sublet without consent.",
		"", "housing")
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if len(persisted) == 0 {
		t.Fatal("Expected persisted statements")
	}

	groups := e.TopicRelationships(persisted[0].TopicID)
	if len(groups.Obligations) == 0 {
		t.Error("Expected at least one obligation in the topic")
	}
	if len(groups.Permissions) == 0 {
		t.Error("Expected at least one permission in the topic")
	}
	if len(groups.Prohibitions) == 0 {
		t.Error("Expected at least one prohibition in the topic")
	}
}

func TestEngine_CitationToValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.AddCitation(ctx, "B", "A", model.TreatmentOverruled, nil, time.Time{}); err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}

	status, err := e.ValidateCase(ctx, "A")
	if err != nil {
		t.Fatalf("ValidateCase failed: %v", err)
	}
	if status.Status != model.StatusOverruled {
		t.Errorf("Expected overruled, got %s", status.Status)
	}
	if len(status.Warnings) == 0 || !strings.Contains(status.Warnings[0], "overruled") {
		t.Errorf("Expected an overruled warning, got %v", status.Warnings)
	}
	if status.PrecedentStrength != 0 {
		t.Errorf("Expected strength 0, got %f", status.PrecedentStrength)
	}
}

func TestEngine_CitationDefaultsAndOverrides(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	c, err := e.AddCitation(ctx, "X", "Y", model.TreatmentDistinguished, nil, time.Time{})
	if err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}
	if c.Strength != 0.7 {
		t.Errorf("Expected default strength 0.7, got %f", c.Strength)
	}
	if c.Date.IsZero() {
		t.Error("Expected a default citation date")
	}

	override := 0.42
	c, err = e.AddCitation(ctx, "X", "Z", model.TreatmentFollowed, &override, time.Time{})
	if err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}
	if c.Strength != 0.42 {
		t.Errorf("Expected overridden strength 0.42, got %f", c.Strength)
	}

	if _, err := e.AddCitation(ctx, "", "Y", model.TreatmentFollowed, nil, time.Time{}); err == nil {
		t.Error("Expected an error for a missing citing case")
	}
	if _, err := e.AddCitation(ctx, "X", "Y", model.Treatment("novel"), nil, time.Time{}); err == nil {
		t.Error("Expected an error for an unknown treatment")
	}
}

func TestEngine_Lineage(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.AddCitation(ctx, "Target", "Ancestor", model.TreatmentFollowed, nil, time.Time{}); err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}
	if _, err := e.AddCitation(ctx, "Descendant", "Target", model.TreatmentCriticized, nil, time.Time{}); err != nil {
		t.Fatalf("AddCitation failed: %v", err)
	}

	lineage, err := e.Lineage(ctx, "Target")
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	if len(lineage.Cites) != 1 || lineage.Cites[0].CaseID != "Ancestor" {
		t.Errorf("Unexpected cites edges: %+v", lineage.Cites)
	}
	if len(lineage.CitedBy) != 1 || lineage.CitedBy[0].CaseID != "Descendant" {
		t.Errorf("Unexpected cited-by edges: %+v", lineage.CitedBy)
	}
}

func TestEngine_ResolveConflict(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Ingest(ctx, "Tenants must pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := e.Ingest(ctx, "Tenants must not pay rent.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	conflicts, err := e.Conflicts(ctx, true)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}

	if err := e.ResolveConflict(ctx, conflicts[0].ID); err != nil {
		t.Fatalf("ResolveConflict failed: %v", err)
	}
	unresolved, err := e.Conflicts(ctx, true)
	if err != nil {
		t.Fatalf("Conflicts failed: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved conflicts, got %d", len(unresolved))
	}
}

func TestEngine_PersistenceAcrossReopen(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "deontica.db")
	cfg.Cache.Enabled = false
	ctx := context.Background()

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := e.Ingest(ctx, "Landlords must return security deposits.", "", ""); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(cfg)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	stats, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalStatements != 1 {
		t.Errorf("Expected 1 statement after reopen, got %d", stats.TotalStatements)
	}

	// The index is rebuilt from the store on open
	hits, err := reopened.Search(ctx, "security deposits", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Error("Expected search hits after reopen")
	}
}
