package worker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ksalter/deontica/internal/fetch"
	"github.com/ksalter/deontica/internal/model"
)

// Ingester is the slice of the engine that batch ingestion needs
type Ingester interface {
	Ingest(ctx context.Context, text, caseID, topicName string) ([]model.Statement, error)
}

// IngestJob ingests one source: a local file path or an http(s) URL
type IngestJob struct {
	Source   string
	Topic    string
	CaseID   string
	Ingester Ingester
	Fetcher  *fetch.Fetcher
	Limiter  *Limiter
}

// IngestResult is the outcome of one batch source
type IngestResult struct {
	Source     string
	Statements int
	Error      error
}

// GetError returns the job's error, if any
func (r *IngestResult) GetError() error {
	return r.Error
}

// Execute reads or fetches the source and ingests its text
func (j *IngestJob) Execute(ctx context.Context) Result {
	text, err := j.load(ctx)
	if err != nil {
		return &IngestResult{Source: j.Source, Error: err}
	}

	statements, err := j.Ingester.Ingest(ctx, text, j.CaseID, j.Topic)
	if err != nil {
		return &IngestResult{Source: j.Source, Error: err}
	}
	return &IngestResult{Source: j.Source, Statements: len(statements)}
}

func (j *IngestJob) load(ctx context.Context) (string, error) {
	if isURL(j.Source) {
		if j.Limiter != nil {
			if err := j.Limiter.Wait(ctx, j.Source); err != nil {
				return "", fmt.Errorf("rate limit: %w", err)
			}
		}
		result, err := j.Fetcher.Fetch(ctx, j.Source)
		if err != nil {
			return "", err
		}
		return result.Text, nil
	}

	data, err := os.ReadFile(j.Source)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// BatchProcessor runs batch ingestion over a list of sources
type BatchProcessor struct {
	ingester Ingester
	fetcher  *fetch.Fetcher
	limiter  *Limiter
	workers  int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(ingester Ingester, fetcher *fetch.Fetcher, cfg model.ConcurrencyConfig) *BatchProcessor {
	return &BatchProcessor{
		ingester: ingester,
		fetcher:  fetcher,
		limiter:  NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		workers:  cfg.IngestWorkers,
	}
}

// Process ingests every source concurrently and returns per-source
// results in completion order
func (b *BatchProcessor) Process(ctx context.Context, sources []string, topic, caseID string) []*IngestResult {
	if len(sources) == 0 {
		return nil
	}

	pool := NewPool(b.workers)
	pool.Start()
	for _, source := range sources {
		pool.Submit(&IngestJob{
			Source:   source,
			Topic:    topic,
			CaseID:   caseID,
			Ingester: b.ingester,
			Fetcher:  b.fetcher,
			Limiter:  b.limiter,
		})
	}

	var out []*IngestResult
	for _, r := range pool.Wait() {
		if ir, ok := r.(*IngestResult); ok {
			out = append(out, ir)
		}
	}
	return out
}

// ReadSourceList parses a newline-delimited source list, skipping blank
// lines and # comments
func ReadSourceList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}

	var sources []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	return sources, nil
}
