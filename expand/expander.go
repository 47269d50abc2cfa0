package expand

import (
	"errors"
	"slices"
	"strings"
)

// DefaultMaxQueries bounds how many searches one question costs.
const DefaultMaxQueries = 5

// ErrInvalidMaxQueries is returned when the query cap is below 1.
var ErrInvalidMaxQueries = errors.New("max queries must be at least 1")

// Expander turns one question into a short list of alternate search strings.
// An Expander is immutable after construction and safe for concurrent use.
type Expander struct {
	maxQueries int
	synonyms   []SynonymGroup
	categories []Category
	prefixes   []string
}

// Option configures an Expander.
type Option func(*Expander) error

// WithMaxQueries sets the cap on returned queries.
// Default is DefaultMaxQueries.
func WithMaxQueries(n int) Option {
	return func(e *Expander) error {
		if n < 1 {
			return ErrInvalidMaxQueries
		}
		e.maxQueries = n
		return nil
	}
}

// WithSynonyms replaces the synonym table.
func WithSynonyms(groups []SynonymGroup) Option {
	return func(e *Expander) error {
		e.synonyms = slices.Clone(groups)
		return nil
	}
}

// WithCategories replaces the category templates.
func WithCategories(categories []Category) Option {
	return func(e *Expander) error {
		e.categories = slices.Clone(categories)
		return nil
	}
}

// WithGenericPrefixes replaces the generic reformulation prefixes.
func WithGenericPrefixes(prefixes []string) Option {
	return func(e *Expander) error {
		e.prefixes = slices.Clone(prefixes)
		return nil
	}
}

// NewExpander creates an expander with the legal tables.
func NewExpander(opts ...Option) (*Expander, error) {
	e := &Expander{
		maxQueries: DefaultMaxQueries,
		synonyms:   DefaultSynonyms,
		categories: DefaultCategories,
		prefixes:   DefaultGenericPrefixes,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// MaxQueries returns the configured cap.
func (e *Expander) MaxQueries() int {
	return e.maxQueries
}

// Expand returns question followed by its rewrites, deduplicated
// case-insensitively in first-seen order and capped at MaxQueries.
// contextual holds conversation-derived variations; it may be nil.
// The result always starts with question.
func (e *Expander) Expand(question string, contextual []string) []string {
	lower := strings.ToLower(question)

	candidates := []string{question}
	candidates = append(candidates, contextual...)

	for _, group := range e.synonyms {
		if !strings.Contains(lower, group.Key) {
			continue
		}
		for _, synonym := range group.Synonyms {
			candidates = append(candidates, synonym+" "+question, synonym)
		}
	}

	for _, category := range e.categories {
		if containsAny(lower, category.Triggers) {
			candidates = append(candidates, category.Queries...)
		}
	}

	for _, prefix := range e.prefixes {
		candidates = append(candidates, prefix+" "+question)
	}

	return dedupe(candidates, e.maxQueries)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of each string, compared
// case-insensitively, stopping once limit strings are kept.
func dedupe(candidates []string, limit int) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, limit)
	for _, c := range candidates {
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
