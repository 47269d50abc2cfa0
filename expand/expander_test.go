package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpander(t *testing.T, opts ...Option) *Expander {
	t.Helper()
	e, err := NewExpander(opts...)
	require.NoError(t, err)
	return e
}

func TestExpand_SectionQuestion(t *testing.T) {
	e := newTestExpander(t)

	got := e.Expand("What is Section 302?", nil)
	assert.Equal(t, []string{
		"What is Section 302?",
		"criminal provision What is Section 302?",
		"criminal provision",
		"offence What is Section 302?",
		"offence",
	}, got)
}

func TestExpand_Properties(t *testing.T) {
	e := newTestExpander(t)

	questions := []string{
		"",
		"What is Section 302?",
		"Explain rape laws and consent",
		"How is salary taxed under income tax?",
		"What does Article 21 of the Constitution guarantee?",
		"Is a promise enforceable?",
		"DOWRY death punishment",
	}

	for _, q := range questions {
		t.Run(q, func(t *testing.T) {
			got := e.Expand(q, nil)
			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), DefaultMaxQueries)
			assert.Equal(t, q, got[0], "original question comes first")

			seen := map[string]bool{}
			for _, v := range got {
				key := strings.ToLower(v)
				assert.False(t, seen[key], "duplicate %q", v)
				seen[key] = true
			}

			assert.Equal(t, got, e.Expand(q, nil), "expansion is deterministic")
		})
	}
}

func TestExpand_ContextualVariationsComeFirst(t *testing.T) {
	e := newTestExpander(t)

	contextual := []string{
		"what about tds",
		"what about tds income tax",
		"income tax related to what about tds",
	}
	got := e.Expand("what about tds", contextual)

	require.Len(t, got, 5)
	assert.Equal(t, "what about tds", got[0])
	assert.Equal(t, "what about tds income tax", got[1])
	assert.Equal(t, "income tax related to what about tds", got[2])
	// Then the "tds" synonym group
	assert.Equal(t, "tax deducted at source what about tds", got[3])
	assert.Equal(t, "tax deducted at source", got[4])
}

func TestExpand_CategoryAndGenericFallback(t *testing.T) {
	e := newTestExpander(t, WithMaxQueries(20), WithSynonyms(nil))

	got := e.Expand("Is consent required?", nil)
	assert.Equal(t, []string{
		"Is consent required?",
		"sexual offences bharatiya nyaya sanhita",
		"rape laws india criminal code",
		"consent sexual assault provisions",
		"punishment sexual violence",
		"section 63 64 65 66 67 68 bharatiya nyaya sanhita",
		"legal provisions Is consent required?",
		"indian law Is consent required?",
		"criminal law Is consent required?",
		"constitutional law Is consent required?",
	}, got)
}

func TestExpand_NoMatchesUsesGenericPrefixes(t *testing.T) {
	e := newTestExpander(t)

	got := e.Expand("Is a promise enforceable?", nil)
	assert.Equal(t, []string{
		"Is a promise enforceable?",
		"legal provisions Is a promise enforceable?",
		"indian law Is a promise enforceable?",
		"criminal law Is a promise enforceable?",
		"constitutional law Is a promise enforceable?",
	}, got)
}

func TestExpand_CaseInsensitiveDedup(t *testing.T) {
	e := newTestExpander(t, WithSynonyms(nil), WithCategories(nil), WithGenericPrefixes(nil))

	got := e.Expand("Bail", []string{"bail", "BAIL conditions", "bail conditions"})
	assert.Equal(t, []string{"Bail", "BAIL conditions"}, got)
}

func TestExpand_CustomTables(t *testing.T) {
	e := newTestExpander(t,
		WithMaxQueries(3),
		WithSynonyms([]SynonymGroup{{Key: "bail", Synonyms: []string{"anticipatory bail"}}}),
		WithCategories(nil),
		WithGenericPrefixes(nil),
	)

	got := e.Expand("When is bail granted?", nil)
	assert.Equal(t, []string{
		"When is bail granted?",
		"anticipatory bail When is bail granted?",
		"anticipatory bail",
	}, got)
	assert.Equal(t, 3, e.MaxQueries())
}

func TestNewExpander_InvalidMaxQueries(t *testing.T) {
	_, err := NewExpander(WithMaxQueries(0))
	assert.ErrorIs(t, err, ErrInvalidMaxQueries)
}
