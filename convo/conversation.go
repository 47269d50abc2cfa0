package convo

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/lexrag/core"
)

const (
	summaryExchanges   = 5
	summaryQuestionLen = 100
	variationExchanges = 3
	maxVariations      = 8
)

// followUpIndicators are continuation phrases that mark a question as a follow-up.
var followUpIndicators = []string{
	"what about", "and what", "also tell", "more details", "explain further",
	"what if", "in that case", "similarly", "related to this", "about this",
	"can you elaborate", "more information", "tell me more", "what else",
	"in addition", "furthermore", "also", "additionally", "moreover",
}

// Conversation is a handle on one session's state: its identity and the
// rolling window of its most recent exchanges.
// Safe for concurrent use; the Manager refreshes it after each exchange.
type Conversation struct {
	mu         sync.RWMutex
	id         string
	createdAt  time.Time
	total      int
	window     []core.Exchange
	windowSize int
	extractor  TopicExtractor
}

func newConversation(id string, createdAt time.Time, windowSize int, extractor TopicExtractor) *Conversation {
	return &Conversation{
		id:         id,
		createdAt:  createdAt,
		window:     []core.Exchange{},
		windowSize: windowSize,
		extractor:  extractor,
	}
}

// ID returns the session identifier.
func (c *Conversation) ID() string {
	return c.id
}

// CreatedAt returns when the session was started.
func (c *Conversation) CreatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.createdAt
}

// TotalExchanges returns the number of exchanges in the persisted history.
func (c *Conversation) TotalExchanges() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Window returns a copy of the rolling window, oldest first.
func (c *Conversation) Window() []core.Exchange {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.window)
}

// HasHistory reports whether the window holds any exchange.
func (c *Conversation) HasHistory() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.window) > 0
}

// refresh replaces the window with the tail of the persisted history.
func (c *Conversation) refresh(session *core.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createdAt = session.CreatedAt
	c.total = len(session.Exchanges)
	start := max(0, len(session.Exchanges)-c.windowSize)
	c.window = slices.Clone(session.Exchanges[start:])
}

func (c *Conversation) recent(n int) []core.Exchange {
	return c.window[max(0, len(c.window)-n):]
}

// ContextSummary renders a digest of the last five exchanges: each question
// truncated to 100 characters and the topics of its answer.
// Returns "" when there is no history.
func (c *Conversation) ContextSummary() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.window) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("RECENT CONVERSATION CONTEXT:\n")
	for _, ex := range c.recent(summaryExchanges) {
		sb.WriteString("User asked: ")
		sb.WriteString(core.TruncateRunes(ex.UserQuestion, summaryQuestionLen))
		sb.WriteString("...\n")
		sb.WriteString("Assistant answered about: ")
		sb.WriteString(KeyTopics(c.extractor, ex.AssistantResponse))
		sb.WriteString("\n---\n")
	}
	return sb.String()
}

// QueryVariations pairs query with each distinct topic from the last three
// exchanges, as "<query> <topic>" and "<topic> related to <query>".
// The first element is always query; at most eight are returned.
func (c *Conversation) QueryVariations(query string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	variations := []string{query}
	if len(c.window) == 0 {
		return variations
	}

	seen := map[string]struct{}{}
	for _, ex := range c.recent(variationExchanges) {
		for _, topic := range c.extractor.Topics(ex.AssistantResponse) {
			key := strings.ToLower(topic)
			if topic == "" || key == GeneralTopic {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			variations = append(variations, query+" "+topic, topic+" related to "+query)
			if len(variations) >= maxVariations {
				return variations[:maxVariations]
			}
		}
	}
	return variations
}

// IsFollowUp reports whether question continues the conversation: there must
// be history and the question must contain a continuation phrase.
func (c *Conversation) IsFollowUp(question string) bool {
	if !c.HasHistory() {
		return false
	}
	lower := strings.ToLower(question)
	for _, indicator := range followUpIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
