package convo

import (
	"regexp"
	"strings"
)

// GeneralTopic is reported when no specific topic is found in a response.
const GeneralTopic = "general legal information"

// TopicExtractor finds topic keywords in free text.
// Implementations must be safe for concurrent use.
type TopicExtractor interface {
	// Topics returns the topics found in text in first-seen order.
	// Returns an empty slice when nothing matches.
	Topics(text string) []string
}

// LegalTopicExtractor finds statute citations and a fixed legal vocabulary.
type LegalTopicExtractor struct {
	sections *regexp.Regexp
	articles *regexp.Regexp
	terms    *regexp.Regexp
	perKind  int
}

var _ TopicExtractor = (*LegalTopicExtractor)(nil)

// DefaultLegalTerms is the vocabulary matched by NewLegalTopicExtractor.
var DefaultLegalTerms = []string{
	"income tax", "tds", "deduction", "constitution", "criminal law",
	"rape", "murder", "theft", "assessment", "penalty",
}

var whitespace = regexp.MustCompile(`\s+`)

// NewLegalTopicExtractor returns an extractor for "Section <n>" and
// "Article <n>" citations plus DefaultLegalTerms, keeping at most three
// of each kind.
func NewLegalTopicExtractor() *LegalTopicExtractor {
	return NewLegalTopicExtractorWithTerms(DefaultLegalTerms)
}

// NewLegalTopicExtractorWithTerms is NewLegalTopicExtractor with a custom vocabulary.
func NewLegalTopicExtractorWithTerms(terms []string) *LegalTopicExtractor {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(term)
	}
	return &LegalTopicExtractor{
		sections: regexp.MustCompile(`(?i)\bSection\s+\d+[A-Z]*`),
		articles: regexp.MustCompile(`(?i)\bArticle\s+\d+[A-Z]*`),
		terms:    regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`),
		perKind:  3,
	}
}

// Topics returns up to three sections, three articles and three distinct terms.
func (e *LegalTopicExtractor) Topics(text string) []string {
	topics := []string{}
	topics = append(topics, firstDistinct(e.sections.FindAllString(text, -1), e.perKind, normalizeCitation)...)
	topics = append(topics, firstDistinct(e.articles.FindAllString(text, -1), e.perKind, normalizeCitation)...)
	topics = append(topics, firstDistinct(e.terms.FindAllString(text, -1), e.perKind, strings.ToLower)...)
	return topics
}

// KeyTopics renders the topics found by extractor as a comma-separated list,
// or GeneralTopic when there are none.
func KeyTopics(extractor TopicExtractor, text string) string {
	topics := extractor.Topics(text)
	if len(topics) == 0 {
		return GeneralTopic
	}
	return strings.Join(topics, ", ")
}

func normalizeCitation(s string) string {
	return whitespace.ReplaceAllString(s, " ")
}

// firstDistinct keeps the first limit matches, deduplicated case-insensitively.
func firstDistinct(matches []string, limit int, normalize func(string) string) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		m = normalize(m)
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}
