// Package knowledge provides keyword search over the support corpus and the
// local coverage policy deciding how well the hits answer a question.
package knowledge

import (
	"sort"
	"strings"

	"replyloop/models"
	"replyloop/store"
)

// Coverage is how well the lookup hits answer a given question.
type Coverage string

const (
	CoverageNone    Coverage = "none"
	CoveragePartial Coverage = "partial"
	CoverageFull    Coverage = "full"
)

// Hit is one scored knowledge document. Score is the fraction of query
// tokens the document matched.
type Hit struct {
	Doc   models.KnowledgeDoc
	Score float64
}

// strongHitScore marks a hit as decisive for the coverage policy.
const strongHitScore = 0.75

// stopwords excluded from query tokenization.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"do": {}, "does": {}, "can": {}, "how": {}, "what": {}, "with": {},
	"you": {}, "your": {}, "for": {}, "this": {}, "that": {}, "have": {},
	"will": {}, "would": {}, "about": {}, "our": {}, "not": {}, "but": {},
	"his": {}, "her": {}, "its": {}, "was": {}, "were": {}, "has": {},
}

// Service searches the persisted corpus through the store gateway.
type Service struct {
	store store.Gateway
	limit int
}

func NewService(gateway store.Gateway) *Service {
	return &Service{store: gateway, limit: 10}
}

// Search tokenizes the question, pulls candidate docs from the store and
// scores each by matched-token ratio, best first.
func (s *Service) Search(query, product string) ([]Hit, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	docs, err := s.store.SearchKnowledge(tokens, product, s.limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(docs))
	for _, doc := range docs {
		score := scoreDoc(doc, tokens)
		if score > 0 {
			hits = append(hits, Hit{Doc: doc, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// AssessCoverage applies the local coverage policy: no hits means none, one
// strong hit or a broad spread means full, anything else partial.
func AssessCoverage(hits []Hit) Coverage {
	if len(hits) == 0 {
		return CoverageNone
	}
	for _, hit := range hits {
		if hit.Score >= strongHitScore {
			return CoverageFull
		}
	}
	if len(hits) >= 3 {
		return CoverageFull
	}
	return CoveragePartial
}

// Tokenize lowercases the query and drops stopwords and short tokens.
func Tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]struct{})
	var tokens []string
	for _, field := range fields {
		if len(field) < 3 {
			continue
		}
		if _, ok := stopwords[field]; ok {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		tokens = append(tokens, field)
	}
	return tokens
}

func scoreDoc(doc models.KnowledgeDoc, tokens []string) float64 {
	haystack := strings.ToLower(doc.Title + " " + doc.Content + " " + doc.Keywords)
	matched := 0
	for _, token := range tokens {
		if strings.Contains(haystack, token) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}
