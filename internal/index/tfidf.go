// Package index answers lexical similarity queries over the statement
// corpus using a TF-IDF vector space with cosine similarity.
package index

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/ksalter/deontica/internal/model"
)

const (
	// maxVocabulary bounds the fitted term space, keeping the highest
	// document-frequency terms
	maxVocabulary = 1000

	// minSimilarity is the floor below which query hits are discarded
	minSimilarity = 0.05
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "no": true, "not": true, "of": true,
	"on": true, "or": true, "such": true, "that": true, "the": true,
	"their": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "to": true, "was": true, "were": true,
	"will": true, "with": true,
}

type document struct {
	statement model.Statement
	vector    map[string]float64 // L2-normalized TF-IDF weights
}

// Index holds the fitted vector space. All state is derived from the
// store's canonical data and replaced wholesale on each Build.
type Index struct {
	mu   sync.RWMutex
	docs []document
	idf  map[string]float64
}

// NewIndex creates an empty index. Queries against an unbuilt index
// return no results.
func NewIndex() *Index {
	return &Index{}
}

// Build fits the vector space over every statement's natural-language
// text concatenated with its logic expression, replacing any prior
// state. An empty slice clears the index.
func (ix *Index) Build(statements []model.Statement) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.docs = nil
	ix.idf = nil
	if len(statements) == 0 {
		return
	}

	tokenized := make([][]string, len(statements))
	df := make(map[string]int)
	for i, s := range statements {
		tokens := tokenize(s.NaturalLanguage + " " + s.LogicExpression)
		tokenized[i] = tokens
		for _, t := range uniqueTerms(tokens) {
			df[t]++
		}
	}

	vocab := boundVocabulary(df)

	n := float64(len(statements))
	ix.idf = make(map[string]float64, len(vocab))
	for t := range vocab {
		ix.idf[t] = math.Log(n/(1+float64(df[t]))) + 1
	}

	ix.docs = make([]document, len(statements))
	for i, s := range statements {
		ix.docs[i] = document{
			statement: s,
			vector:    ix.vectorize(tokenized[i]),
		}
	}
}

// Query vectorizes text against the fitted vocabulary and returns up to
// topK statements with cosine similarity above the minimum threshold,
// ordered by descending similarity with ties broken by indexing order.
// Returns nil if the index has not been built or the query is empty.
func (ix *Index) Query(text string, topK int) []model.SearchHit {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.docs) == 0 || topK <= 0 {
		return nil
	}
	qv := ix.vectorize(tokenize(text))
	if len(qv) == 0 {
		return nil
	}

	var hits []model.SearchHit
	for _, d := range ix.docs {
		if sim := cosine(qv, d.vector); sim > minSimilarity {
			hits = append(hits, model.SearchHit{Statement: d.statement, Similarity: sim})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// TopicRelationships partitions indexed statements for a topic into
// modality buckets. Pure filter, no similarity computation.
func (ix *Index) TopicRelationships(topicID int64) model.TopicGroups {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	groups := model.TopicGroups{TopicID: topicID}
	for _, d := range ix.docs {
		s := d.statement
		if s.TopicID != topicID {
			continue
		}
		switch s.Modality {
		case model.ModalityObligation:
			groups.Obligations = append(groups.Obligations, s)
		case model.ModalityPermission:
			groups.Permissions = append(groups.Permissions, s)
		case model.ModalityProhibition:
			groups.Prohibitions = append(groups.Prohibitions, s)
		}
	}
	return groups
}

// Size returns the number of indexed statements
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// vectorize builds an L2-normalized TF-IDF vector over fitted terms.
// Caller must hold at least the read lock.
func (ix *Index) vectorize(tokens []string) map[string]float64 {
	if len(tokens) == 0 || len(ix.idf) == 0 {
		return nil
	}
	counts := make(map[string]int)
	total := 0
	for _, t := range tokens {
		if _, ok := ix.idf[t]; ok {
			counts[t]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	vec := make(map[string]float64, len(counts))
	var norm float64
	for t, c := range counts {
		w := (float64(c) / float64(total)) * ix.idf[t]
		vec[t] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for t := range vec {
		vec[t] /= norm
	}
	return vec
}

// cosine computes the dot product of two L2-normalized sparse vectors
func cosine(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for t, w := range a {
		dot += w * b[t]
	}
	return dot
}

// tokenize lowercases, splits on non-alphanumerics, and drops stop-words
// and single-character fragments
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 && !stopWords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// uniqueTerms returns the distinct terms of a token list
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// boundVocabulary keeps the maxVocabulary highest document-frequency
// terms, breaking frequency ties alphabetically for determinism
func boundVocabulary(df map[string]int) map[string]bool {
	if len(df) <= maxVocabulary {
		vocab := make(map[string]bool, len(df))
		for t := range df {
			vocab[t] = true
		}
		return vocab
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})

	vocab := make(map[string]bool, maxVocabulary)
	for _, t := range terms[:maxVocabulary] {
		vocab[t] = true
	}
	return vocab
}
