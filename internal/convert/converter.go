// Package convert turns natural-language legal text into formal deontic
// statements via ordered surface-pattern matching.
package convert

import (
	"regexp"
	"strings"

	"github.com/ksalter/deontica/internal/model"
)

// Context carries optional ingestion context into conversion
type Context struct {
	TopicID int64
	CaseID  string
}

// modalPattern pairs a modality with one surface pattern. Patterns are
// evaluated independently in registration order; every matching pattern
// yields a statement, so one sentence can produce several. Overlapping
// matches are kept on purpose to surface ambiguity for later review.
type modalPattern struct {
	modality model.Modality
	re       *regexp.Regexp
}

// Converter is a stateless pattern matcher. Safe for concurrent use.
type Converter struct {
	patterns    []modalPattern
	temporal    []*regexp.Regexp
	conditional []*regexp.Regexp
	citations   []*regexp.Regexp
}

// Confidence scoring vocabulary. Hedges include "may" even though it is
// also the permission modal: a permissive sentence is inherently weaker
// evidence of a fixed norm than an obligation.
var (
	strongModals = []string{"must", "shall", "required", "prohibited", "forbidden"}
	legalTerms   = []string{
		"court", "statute", "pursuant", "liable", "jurisdiction",
		"plaintiff", "defendant", "provision", "hereby", "tribunal",
	}
	hedgeWords = []string{"may", "might", "could", "should", "generally", "typically", "arguably"}
)

const (
	baseObligation  = 0.70
	basePermission  = 0.60
	baseProhibition = 0.70

	strongModalBoost = 0.10
	legalTermBoost   = 0.05
	hedgePenalty     = 0.15

	minConfidence = 0.05
	maxConfidence = 0.98
)

// NewConverter creates a converter with the default pattern set.
// Registration order is obligation, permission, prohibition.
func NewConverter() *Converter {
	action := `([a-zA-Z][^,;.!?]*)`
	return &Converter{
		patterns: []modalPattern{
			// Obligations
			{model.ModalityObligation, regexp.MustCompile(`(?i)\bmust\s+` + action)},
			{model.ModalityObligation, regexp.MustCompile(`(?i)\bshall\s+` + action)},
			{model.ModalityObligation, regexp.MustCompile(`(?i)\b(?:is|are)\s+required\s+to\s+` + action)},
			{model.ModalityObligation, regexp.MustCompile(`(?i)\b(?:is|are)\s+obligated\s+to\s+` + action)},
			{model.ModalityObligation, regexp.MustCompile(`(?i)\b(?:has|have)\s+a\s+duty\s+to\s+` + action)},
			// Permissions
			{model.ModalityPermission, regexp.MustCompile(`(?i)\bmay\s+` + action)},
			{model.ModalityPermission, regexp.MustCompile(`(?i)\b(?:is|are)\s+permitted\s+to\s+` + action)},
			{model.ModalityPermission, regexp.MustCompile(`(?i)\b(?:is|are)\s+entitled\s+to\s+` + action)},
			{model.ModalityPermission, regexp.MustCompile(`(?i)\bcan\s+` + action)},
			// Prohibitions
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\bmust\s+not\s+` + action)},
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\bshall\s+not\s+` + action)},
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\bmay\s+not\s+` + action)},
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\b(?:is|are)\s+prohibited\s+from\s+` + action)},
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\b(?:is|are)\s+forbidden\s+(?:to|from)\s+` + action)},
			{model.ModalityProhibition, regexp.MustCompile(`(?i)\bcannot\s+` + action)},
		},
		temporal: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bwithin\s+\d+\s+(?:day|week|month|year)s?`),
			regexp.MustCompile(`(?i)\bbefore\s+[a-zA-Z][^,;.!?]*`),
			regexp.MustCompile(`(?i)\bafter\s+[a-zA-Z][^,;.!?]*`),
			regexp.MustCompile(`(?i)\buntil\s+[a-zA-Z][^,;.!?]*`),
		},
		conditional: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bif\s+([^,;.!?]+)`),
			regexp.MustCompile(`(?i)\bunless\s+([^,;.!?]+)`),
			regexp.MustCompile(`(?i)\bprovided\s+that\s+([^,;.!?]+)`),
			regexp.MustCompile(`(?i)\bexcept\s+when\s+([^,;.!?]+)`),
		},
		citations: []*regexp.Regexp{
			// Reporter citations, e.g. "347 U.S. 483 (1954)"
			regexp.MustCompile(`\b\d+\s+U\.S\.\s+\d+(?:\s*\(\d{4}\))?`),
			// Code citations, e.g. "42 U.S.C. § 1983"
			regexp.MustCompile(`\b\d+\s+U\.S\.C\.\s*§*\s*[\d][\w.\-]*`),
			// Federal reporters, e.g. "410 F.2d 701", "120 F.3d 44"
			regexp.MustCompile(`\b\d+\s+F\.\s*(?:2d|3d|4th|Supp\.?)\s*\d+`),
			// Bare section symbols left behind
			regexp.MustCompile(`§+\s*[\d.]+`),
		},
	}
}

// Convert maps a block of text into zero or more deontic statements with
// identifiers unset. Malformed or empty input yields an empty result,
// never an error.
func (c *Converter) Convert(text string, ctx Context) []model.Statement {
	text = c.normalize(text)
	if text == "" {
		return nil
	}

	var statements []model.Statement
	for _, sentence := range splitSentences(text) {
		statements = append(statements, c.convertSentence(sentence, ctx)...)
	}
	return statements
}

// convertSentence applies every registered pattern to a single sentence
func (c *Converter) convertSentence(sentence string, ctx Context) []model.Statement {
	var out []model.Statement
	for _, p := range c.patterns {
		m := p.re.FindStringSubmatch(sentence)
		if m == nil {
			continue
		}
		action := strings.TrimSpace(m[1])
		// "shall not X" also matches the bare "shall X" pattern with a
		// negated action; leave it to the prohibition patterns.
		if p.modality != model.ModalityProhibition && strings.HasPrefix(strings.ToLower(action), "not ") {
			continue
		}
		predicate := normalizeToken(action)
		if predicate == "" {
			continue
		}
		out = append(out, model.Statement{
			LogicExpression: c.buildExpression(p.modality, predicate, sentence),
			NaturalLanguage: sentence,
			Confidence:      c.confidence(p.modality, sentence),
			Modality:        p.modality,
			TopicID:         ctx.TopicID,
			CaseID:          ctx.CaseID,
		})
	}
	return out
}

// buildExpression assembles the logic expression for one statement.
//
// Base form is Op(predicate). Temporal markers conjoin T(...) clauses.
// Conditional markers attach as a trailing guard "<- C(...)", which keeps
// the expression's leading operator intact while still reading as an
// implication from the conjoined conditions.
func (c *Converter) buildExpression(modality model.Modality, predicate, sentence string) string {
	var b strings.Builder
	b.WriteString(modality.Operator())
	b.WriteString("(")
	b.WriteString(predicate)
	b.WriteString(")")

	for _, re := range c.temporal {
		for _, marker := range re.FindAllString(sentence, -1) {
			b.WriteString(" & T(")
			b.WriteString(normalizeToken(marker))
			b.WriteString(")")
		}
	}

	var guards []string
	for _, re := range c.conditional {
		for _, m := range re.FindAllStringSubmatch(sentence, -1) {
			if cond := normalizeToken(m[1]); cond != "" {
				guards = append(guards, "C("+cond+")")
			}
		}
	}
	if len(guards) > 0 {
		b.WriteString(" <- ")
		b.WriteString(strings.Join(guards, " & "))
	}

	return b.String()
}

// confidence starts from a modality base, rewards strong modal and legal
// vocabulary, penalizes hedging, and clamps to [0.05, 0.98]
func (c *Converter) confidence(modality model.Modality, sentence string) float64 {
	var score float64
	switch modality {
	case model.ModalityObligation:
		score = baseObligation
	case model.ModalityPermission:
		score = basePermission
	case model.ModalityProhibition:
		score = baseProhibition
	}

	lower := strings.ToLower(sentence)
	for _, w := range strongModals {
		if containsWord(lower, w) {
			score += strongModalBoost
			break
		}
	}
	for _, w := range legalTerms {
		if containsWord(lower, w) {
			score += legalTermBoost
			break
		}
	}
	for _, w := range hedgeWords {
		if containsWord(lower, w) {
			score -= hedgePenalty
			break
		}
	}

	if score < minConfidence {
		score = minConfidence
	}
	if score > maxConfidence {
		score = maxConfidence
	}
	return score
}

// normalize collapses whitespace and strips legal citation numerals
func (c *Converter) normalize(text string) string {
	for _, re := range c.citations {
		text = re.ReplaceAllString(text, "")
	}
	return strings.Join(strings.Fields(text), " ")
}

// splitSentences splits normalized text on terminal punctuation
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if len(s) > 2 {
			sentences = append(sentences, s)
		}
	}

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()

	return sentences
}

// normalizeToken lowercases a phrase, strips non-alphanumerics, and joins
// the remaining words with underscores to form a predicate token
func normalizeToken(phrase string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(phrase) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// containsWord reports whether lower contains w as a whole word
func containsWord(lower, w string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], w)
		if i < 0 {
			return false
		}
		i += idx
		startOK := i == 0 || !isWordByte(lower[i-1])
		end := i + len(w)
		endOK := end == len(lower) || !isWordByte(lower[end])
		if startOK && endOK {
			return true
		}
		idx = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
