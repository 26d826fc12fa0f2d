// Package engine wires the converter, conflict detector, semantic index,
// shepherding engine, and persistent store behind one coordinated
// operation surface.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ksalter/deontica/internal/cache"
	"github.com/ksalter/deontica/internal/conflict"
	"github.com/ksalter/deontica/internal/convert"
	"github.com/ksalter/deontica/internal/index"
	"github.com/ksalter/deontica/internal/model"
	"github.com/ksalter/deontica/internal/shepherd"
	"github.com/ksalter/deontica/internal/store"
)

// Engine is the single entry point for all corpus operations. Mutations
// are serialized behind the write lock so no partial view of an ingest
// is observable; readers share the same lock, trading throughput for
// simplicity, which suits an interactive research tool.
type Engine struct {
	mu sync.RWMutex

	converter *convert.Converter
	detector  *conflict.Detector
	index     *index.Index
	shepherd  *shepherd.Engine
	store     *store.Store
	cache     *cache.Cache
}

// New opens the store at cfg.Store.Path and builds the semantic index
// from the persisted corpus
func New(cfg *model.Config) (*Engine, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &Engine{
		converter: convert.NewConverter(),
		detector:  conflict.NewDetector(),
		index:     index.NewIndex(),
		shepherd:  shepherd.NewEngine(),
		store:     st,
		cache:     cache.New(cfg.Cache.Enabled, cfg.Cache.TTL, 10*time.Minute),
	}

	statements, err := st.ListStatements(context.Background())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	e.index.Build(statements)

	return e, nil
}

// Close releases the underlying store
func (e *Engine) Close() error {
	return e.store.Close()
}

// ConvertText runs the converter without touching persisted state.
// Identifiers on the returned statements are unset.
func (e *Engine) ConvertText(text, caseID string) []model.Statement {
	return e.converter.Convert(text, convert.Context{CaseID: caseID})
}

// Ingest converts text, persists the resulting statements under the
// given topic, rebuilds the index over the whole corpus, runs conflict
// detection over the whole corpus, and records any new conflicts.
// Returns the persisted statements.
func (e *Engine) Ingest(ctx context.Context, text, caseID, topicName string) ([]model.Statement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cctx := convert.Context{CaseID: caseID}
	if topicName != "" {
		topic, err := e.store.ResolveTopic(ctx, topicName, "")
		if err != nil {
			return nil, err
		}
		cctx.TopicID = topic.ID
		if caseID != "" {
			if err := e.store.BumpTopicCases(ctx, topic.ID); err != nil {
				return nil, err
			}
		}
	}

	statements := e.converter.Convert(text, cctx)
	persisted, err := e.store.InsertStatements(ctx, statements)
	if err != nil {
		return nil, err
	}

	corpus, err := e.store.ListStatements(ctx)
	if err != nil {
		return nil, err
	}
	e.index.Build(corpus)

	if _, err := e.store.UpsertConflicts(ctx, e.detector.Detect(corpus)); err != nil {
		return nil, err
	}

	e.cache.Flush()
	return persisted, nil
}

// Lint converts text without persisting it, unions the transient
// statements with the persisted corpus, runs detection, and reports only
// conflicts that involve at least one transient statement. Read-only.
//
// Transient statements are identified by sentinel negative IDs rather
// than by text equality, so two distinct sentences with identical text
// cannot shadow each other.
func (e *Engine) Lint(ctx context.Context, text, caseID string) (*model.LintReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	transient := e.converter.Convert(text, convert.Context{CaseID: caseID})
	for i := range transient {
		transient[i].ID = -int64(i + 1)
	}

	corpus, err := e.store.ListStatements(ctx)
	if err != nil {
		return nil, err
	}

	combined := make([]model.Statement, 0, len(corpus)+len(transient))
	combined = append(combined, corpus...)
	combined = append(combined, transient...)

	report := &model.LintReport{
		Conflicts:          []model.Conflict{},
		StatementsAnalyzed: len(transient),
		Statements:         transient,
	}
	for _, c := range e.detector.Detect(combined) {
		if c.InvolvesTransient() {
			report.Conflicts = append(report.Conflicts, c)
		}
	}
	report.ConflictsFound = len(report.Conflicts)
	return report, nil
}

// Search returns up to limit statements related to the query, ranked by
// similarity. An unbuilt index or empty query yields an empty result.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if hits, ok := e.cache.GetSearch(query, limit); ok {
		return hits, nil
	}
	hits := e.index.Query(query, limit)
	e.cache.SetSearch(query, limit, hits)
	return hits, nil
}

// TopicRelationships buckets a topic's indexed statements by modality
func (e *Engine) TopicRelationships(topicID int64) model.TopicGroups {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.TopicRelationships(topicID)
}

// Conflicts lists persisted conflicts, optionally unresolved only
func (e *Engine) Conflicts(ctx context.Context, unresolvedOnly bool) ([]model.Conflict, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListConflicts(ctx, unresolvedOnly)
}

// ResolveConflict marks a persisted conflict resolved; the row is kept
// for audit
func (e *Engine) ResolveConflict(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.MarkConflictResolved(ctx, id); err != nil {
		return err
	}
	e.cache.Flush()
	return nil
}

// Stats aggregates the persisted corpus
func (e *Engine) Stats(ctx context.Context) (model.Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Stats(ctx)
}

// AddCitation appends a citation edge. When strength is nil the edge's
// stored strength defaults to the treatment's table weight; the two
// numbers are independent thereafter (validate recomputes from the
// table, lineage reports the stored value).
func (e *Engine) AddCitation(ctx context.Context, citing, cited string, treatment model.Treatment, strength *float64, date time.Time) (model.Citation, error) {
	if citing == "" || cited == "" {
		return model.Citation{}, fmt.Errorf("citing and cited case IDs are required")
	}
	if !treatment.Valid() {
		return model.Citation{}, fmt.Errorf("unknown treatment %q", treatment)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	c := model.Citation{
		CitingCase: citing,
		CitedCase:  cited,
		Treatment:  treatment,
		Date:       date,
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	if strength != nil {
		if *strength < 0 {
			return model.Citation{}, fmt.Errorf("strength must be non-negative")
		}
		c.Strength = *strength
	} else {
		c.Strength = shepherd.Weight(treatment)
	}

	inserted, err := e.store.InsertCitation(ctx, c)
	if err != nil {
		return model.Citation{}, err
	}
	e.cache.Flush()
	return inserted, nil
}

// ValidateCase computes the case's precedential status from the full
// citation edge set
func (e *Engine) ValidateCase(ctx context.Context, caseID string) (model.CaseStatus, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if status, ok := e.cache.GetCaseStatus(caseID); ok {
		return status, nil
	}
	citations, err := e.store.ListCitations(ctx)
	if err != nil {
		return model.CaseStatus{}, err
	}
	status := e.shepherd.ValidateCaseStatus(caseID, citations)
	e.cache.SetCaseStatus(status)
	return status, nil
}

// Lineage returns the case's one-hop citation neighborhood
func (e *Engine) Lineage(ctx context.Context, caseID string) (model.Lineage, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	citations, err := e.store.ListCitations(ctx)
	if err != nil {
		return model.Lineage{}, err
	}
	return e.shepherd.TraceLineage(caseID, citations, 1), nil
}
