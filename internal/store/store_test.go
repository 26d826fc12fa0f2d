package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ksalter/deontica/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "deontica.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_InsertAndListStatements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := []model.Statement{
		{LogicExpression: "O(return_deposits)", NaturalLanguage: "Tenants must return deposits.", Confidence: 0.8, Modality: model.ModalityObligation, CaseID: "Smith v. Jones"},
		{LogicExpression: "F(withhold_deposits)", NaturalLanguage: "Landlords shall not withhold deposits.", Confidence: 0.8, Modality: model.ModalityProhibition},
	}

	persisted, err := s.InsertStatements(ctx, in)
	if err != nil {
		t.Fatalf("InsertStatements failed: %v", err)
	}
	if len(persisted) != 2 {
		t.Fatalf("Expected 2 persisted statements, got %d", len(persisted))
	}
	if persisted[0].ID <= 0 || persisted[1].ID <= persisted[0].ID {
		t.Errorf("Expected ascending positive IDs, got %d and %d", persisted[0].ID, persisted[1].ID)
	}
	if persisted[0].CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	listed, err := s.ListStatements(ctx)
	if err != nil {
		t.Fatalf("ListStatements failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("Expected 2 listed statements, got %d", len(listed))
	}
	if listed[0].LogicExpression != "O(return_deposits)" {
		t.Errorf("Unexpected expression: %s", listed[0].LogicExpression)
	}
	if listed[0].CaseID != "Smith v. Jones" {
		t.Errorf("Unexpected case id: %q", listed[0].CaseID)
	}
	if listed[0].Modality != model.ModalityObligation {
		t.Errorf("Unexpected modality: %s", listed[0].Modality)
	}
	if listed[1].TopicID != 0 {
		t.Errorf("Expected zero topic id for untagged statement, got %d", listed[1].TopicID)
	}
}

func TestStore_InsertStatements_Empty(t *testing.T) {
	s := openTestStore(t)

	persisted, err := s.InsertStatements(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error for empty batch, got %v", err)
	}
	if persisted != nil {
		t.Errorf("Expected nil result for empty batch, got %v", persisted)
	}
}

func TestStore_ResolveTopic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.ResolveTopic(ctx, "housing", "residential tenancy rules")
	if err != nil {
		t.Fatalf("ResolveTopic failed: %v", err)
	}
	if first.ID <= 0 || first.Name != "housing" {
		t.Errorf("Unexpected topic: %+v", first)
	}

	second, err := s.ResolveTopic(ctx, "housing", "ignored on lookup")
	if err != nil {
		t.Fatalf("ResolveTopic lookup failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected same topic id on repeat resolve, got %d and %d", first.ID, second.ID)
	}
	if second.Description != "residential tenancy rules" {
		t.Errorf("Expected original description to stick, got %q", second.Description)
	}

	if err := s.BumpTopicCases(ctx, first.ID); err != nil {
		t.Fatalf("BumpTopicCases failed: %v", err)
	}
	topics, err := s.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics failed: %v", err)
	}
	if len(topics) != 1 || topics[0].CaseCount != 1 {
		t.Errorf("Expected one topic with case count 1, got %+v", topics)
	}
}

func TestStore_UpsertConflicts_Dedup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	persisted, err := s.InsertStatements(ctx, []model.Statement{
		{LogicExpression: "O(x)", NaturalLanguage: "a", Confidence: 0.5, Modality: model.ModalityObligation},
		{LogicExpression: "F(x)", NaturalLanguage: "b", Confidence: 0.5, Modality: model.ModalityProhibition},
	})
	if err != nil {
		t.Fatalf("InsertStatements failed: %v", err)
	}
	a, b := persisted[0].ID, persisted[1].ID

	conflict := model.Conflict{
		StatementA:  a,
		StatementB:  b,
		Type:        model.ConflictDirectContradiction,
		Severity:    model.SeverityCritical,
		Description: "test conflict",
	}

	n, err := s.UpsertConflicts(ctx, []model.Conflict{conflict})
	if err != nil {
		t.Fatalf("UpsertConflicts failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 inserted, got %d", n)
	}

	// Same pair again, including the swapped order
	swapped := conflict
	swapped.StatementA, swapped.StatementB = b, a
	n, err = s.UpsertConflicts(ctx, []model.Conflict{conflict, swapped})
	if err != nil {
		t.Fatalf("UpsertConflicts rerun failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 inserted on rerun, got %d", n)
	}

	conflicts, err := s.ListConflicts(ctx, false)
	if err != nil {
		t.Fatalf("ListConflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Errorf("Expected exactly 1 persisted conflict, got %d", len(conflicts))
	}

	// A different type over the same pair is a distinct conflict
	temporal := conflict
	temporal.Type = model.ConflictTemporalInconsistency
	temporal.Severity = model.SeverityWarning
	n, err = s.UpsertConflicts(ctx, []model.Conflict{temporal})
	if err != nil {
		t.Fatalf("UpsertConflicts with new type failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 inserted for new type, got %d", n)
	}
}

func TestStore_ConflictResolution(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	persisted, err := s.InsertStatements(ctx, []model.Statement{
		{LogicExpression: "O(x)", NaturalLanguage: "a", Confidence: 0.5, Modality: model.ModalityObligation},
		{LogicExpression: "F(x)", NaturalLanguage: "b", Confidence: 0.5, Modality: model.ModalityProhibition},
	})
	if err != nil {
		t.Fatalf("InsertStatements failed: %v", err)
	}

	if _, err := s.UpsertConflicts(ctx, []model.Conflict{{
		StatementA:  persisted[0].ID,
		StatementB:  persisted[1].ID,
		Type:        model.ConflictDirectContradiction,
		Severity:    model.SeverityCritical,
		Description: "test conflict",
	}}); err != nil {
		t.Fatalf("UpsertConflicts failed: %v", err)
	}

	conflicts, err := s.ListConflicts(ctx, true)
	if err != nil {
		t.Fatalf("ListConflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 unresolved conflict, got %d", len(conflicts))
	}

	if err := s.MarkConflictResolved(ctx, conflicts[0].ID); err != nil {
		t.Fatalf("MarkConflictResolved failed: %v", err)
	}

	unresolved, err := s.ListConflicts(ctx, true)
	if err != nil {
		t.Fatalf("ListConflicts failed: %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("Expected no unresolved conflicts, got %d", len(unresolved))
	}

	all, err := s.ListConflicts(ctx, false)
	if err != nil {
		t.Fatalf("ListConflicts failed: %v", err)
	}
	if len(all) != 1 || !all[0].Resolved {
		t.Errorf("Expected the resolved conflict to be retained, got %+v", all)
	}

	if err := s.MarkConflictResolved(ctx, 9999); err == nil {
		t.Error("Expected an error resolving an unknown conflict id")
	}
}

func TestStore_Citations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	date := time.Date(2019, 6, 14, 0, 0, 0, 0, time.UTC)
	c, err := s.InsertCitation(ctx, model.Citation{
		CitingCase: "Smith v. Jones",
		CitedCase:  "Doe v. Roe",
		Treatment:  model.TreatmentOverruled,
		Date:       date,
		Strength:   0.0,
	})
	if err != nil {
		t.Fatalf("InsertCitation failed: %v", err)
	}
	if c.ID <= 0 {
		t.Errorf("Expected positive citation id, got %d", c.ID)
	}

	citations, err := s.ListCitations(ctx)
	if err != nil {
		t.Fatalf("ListCitations failed: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("Expected 1 citation, got %d", len(citations))
	}
	got := citations[0]
	if got.CitingCase != "Smith v. Jones" || got.CitedCase != "Doe v. Roe" {
		t.Errorf("Unexpected citation endpoints: %+v", got)
	}
	if got.Treatment != model.TreatmentOverruled {
		t.Errorf("Unexpected treatment: %s", got.Treatment)
	}
	if !got.Date.Equal(date) {
		t.Errorf("Expected date %v, got %v", date, got.Date)
	}
}

func TestStore_Stats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	topic, err := s.ResolveTopic(ctx, "housing", "")
	if err != nil {
		t.Fatalf("ResolveTopic failed: %v", err)
	}

	persisted, err := s.InsertStatements(ctx, []model.Statement{
		{LogicExpression: "O(x)", NaturalLanguage: "a", Confidence: 0.5, Modality: model.ModalityObligation, TopicID: topic.ID},
		{LogicExpression: "O(y)", NaturalLanguage: "b", Confidence: 0.5, Modality: model.ModalityObligation},
		{LogicExpression: "F(x)", NaturalLanguage: "c", Confidence: 0.5, Modality: model.ModalityProhibition},
	})
	if err != nil {
		t.Fatalf("InsertStatements failed: %v", err)
	}

	if _, err := s.UpsertConflicts(ctx, []model.Conflict{{
		StatementA:  persisted[0].ID,
		StatementB:  persisted[2].ID,
		Type:        model.ConflictDirectContradiction,
		Severity:    model.SeverityCritical,
		Description: "test conflict",
	}}); err != nil {
		t.Fatalf("UpsertConflicts failed: %v", err)
	}
	if _, err := s.InsertCitation(ctx, model.Citation{
		CitingCase: "A", CitedCase: "B", Treatment: model.TreatmentFollowed,
		Date: time.Now(), Strength: 1.0,
	}); err != nil {
		t.Fatalf("InsertCitation failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalStatements != 3 || stats.TotalTopics != 1 || stats.TotalCitations != 1 {
		t.Errorf("Unexpected totals: %+v", stats)
	}
	if stats.StatementsByModality[model.ModalityObligation] != 2 {
		t.Errorf("Expected 2 obligations, got %d", stats.StatementsByModality[model.ModalityObligation])
	}
	if stats.StatementsByModality[model.ModalityProhibition] != 1 {
		t.Errorf("Expected 1 prohibition, got %d", stats.StatementsByModality[model.ModalityProhibition])
	}
	if stats.UnresolvedConflicts[model.SeverityCritical] != 1 {
		t.Errorf("Expected 1 unresolved critical conflict, got %d", stats.UnresolvedConflicts[model.SeverityCritical])
	}
}
