package cache

import (
	"testing"
	"time"

	"github.com/ksalter/deontica/internal/model"
)

func TestCache_CaseStatusRoundTrip(t *testing.T) {
	c := New(true, time.Minute, time.Minute)

	if _, ok := c.GetCaseStatus("Doe v. Roe"); ok {
		t.Error("Expected a miss on an empty cache")
	}

	status := model.CaseStatus{CaseID: "Doe v. Roe", Status: model.StatusOverruled, TotalCitations: 3}
	c.SetCaseStatus(status)

	got, ok := c.GetCaseStatus("Doe v. Roe")
	if !ok {
		t.Fatal("Expected a hit after Set")
	}
	if got.Status != model.StatusOverruled || got.TotalCitations != 3 {
		t.Errorf("Unexpected cached status: %+v", got)
	}
}

func TestCache_SearchKeyIncludesLimit(t *testing.T) {
	c := New(true, time.Minute, time.Minute)

	hits := []model.SearchHit{{Similarity: 0.9}}
	c.SetSearch("deposits", 5, hits)

	if _, ok := c.GetSearch("deposits", 10); ok {
		t.Error("Expected a different limit to miss")
	}
	got, ok := c.GetSearch("deposits", 5)
	if !ok || len(got) != 1 {
		t.Errorf("Expected the original query/limit pair to hit, got %v ok=%v", got, ok)
	}
}

func TestCache_Flush(t *testing.T) {
	c := New(true, time.Minute, time.Minute)
	c.SetCaseStatus(model.CaseStatus{CaseID: "A"})
	c.SetSearch("deposits", 5, nil)

	c.Flush()

	if _, ok := c.GetCaseStatus("A"); ok {
		t.Error("Expected the case status to be flushed")
	}
	if _, ok := c.GetSearch("deposits", 5); ok {
		t.Error("Expected the search result to be flushed")
	}
}

func TestCache_DisabledIsNoOp(t *testing.T) {
	c := New(false, time.Minute, time.Minute)

	c.SetCaseStatus(model.CaseStatus{CaseID: "A"})
	if _, ok := c.GetCaseStatus("A"); ok {
		t.Error("Expected a disabled cache to never hit")
	}
	c.SetSearch("q", 5, []model.SearchHit{{Similarity: 0.5}})
	if _, ok := c.GetSearch("q", 5); ok {
		t.Error("Expected a disabled cache to never hit")
	}
	c.Flush() // must not panic
}
