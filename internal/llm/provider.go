// Package llm renders optional plain-language digests of lint reports.
//
// The digest is strictly post-hoc: it is generated after conversion and
// conflict detection complete and has no influence on either. Disabled
// unless a provider is configured.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ksalter/deontica/internal/model"
)

// Provider generates report digests
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize renders a digest of the lint report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest is the input for digest generation
type SummarizeRequest struct {
	Report    model.LintReport
	Model     string
	MaxTokens int
}

// SummarizeResponse is the generated digest
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// NewProvider creates a provider from configuration. An empty provider
// name disables summarization and returns (nil, nil).
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// BuildPrompt constructs the digest prompt. The model is instructed to
// narrate the already-computed report, never to re-analyze the text.
func BuildPrompt(report model.LintReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are summarizing a deontic-logic lint report for a legal researcher.
The analysis is already complete; describe its findings, do not re-analyze the text.

RULES:
1. Only describe statements and conflicts listed below.
2. Do not assert whether any statement is legally correct.
3. If no conflicts were found, say so plainly.

Statements analyzed: %d
Conflicts found: %d

Statements:
`, report.StatementsAnalyzed, report.ConflictsFound)

	for i, s := range report.Statements {
		if i >= 10 {
			fmt.Fprintf(&b, "... and %d more statements\n", len(report.Statements)-10)
			break
		}
		fmt.Fprintf(&b, "- [%s, confidence %.2f] %s\n", s.Modality, s.Confidence, s.LogicExpression)
	}

	b.WriteString("\nConflicts:\n")
	if len(report.Conflicts) == 0 {
		b.WriteString("(none)\n")
	}
	for i, c := range report.Conflicts {
		if i >= 10 {
			fmt.Fprintf(&b, "... and %d more conflicts\n", len(report.Conflicts)-10)
			break
		}
		fmt.Fprintf(&b, "- [%s/%s] %s\n", c.Type, c.Severity, c.Description)
	}

	b.WriteString("\nProvide a 3-4 sentence summary of what was detected.")
	return b.String()
}
