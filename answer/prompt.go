package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/lexrag/core"
)

const (
	// NoInformationAnswer is returned when retrieval finds no evidence.
	NoInformationAnswer = "I apologize, but I couldn't find relevant information for your question in the available documents."

	// FollowUpNote is added to the prompt for follow-up questions.
	FollowUpNote = "[NOTE: This appears to be a follow-up question to our previous conversation. Please reference relevant previous topics when appropriate.]"

	// DocumentSeparator divides passages in the evidence block.
	DocumentSeparator = "\n\n---DOCUMENT SEPARATOR---\n\n"

	degradedAnswerFormat = "I apologize, but I encountered an error while processing your question: %v"

	unknownMetadata = "Unknown"
)

const answerPromptTemplate = `You are a legal assistant who explains Indian law (the Constitution, the Bharatiya Nyaya Sanhita and the Income Tax Act) in plain, engaging language.
Answer only from the context below. Cite the sections and articles you rely on.

%s
Context:
%s

Question: %s
%s

Structure the answer as:
**%s**
- Overview: two or three sentences setting the scene.
- Legal framework: each relevant section or article and what it does.
- In practice: how the provision applies in real situations.
- Consequences: penalties, remedies or outcomes.
- Key takeaways: the points worth remembering.

Rules:
- Keep it under 350 words.
- Explain legal terms when you use them.
- For a follow-up question, build on the earlier discussion.
- Do not use HTML.`

var markupTag = regexp.MustCompile(`<[^>]+>`)

// EvidenceContext renders candidates as labelled passages joined by
// DocumentSeparator. Missing labels render as "Unknown".
func EvidenceContext(candidates []core.Candidate) string {
	blocks := make([]string, len(candidates))
	for i, c := range candidates {
		blocks[i] = fmt.Sprintf("[Source: %s - %s]\n%s",
			metadataOr(c.Metadata, core.MetaFileName, unknownMetadata),
			metadataOr(c.Metadata, core.MetaDocumentType, unknownMetadata),
			c.Content)
	}
	return strings.Join(blocks, DocumentSeparator)
}

// BuildPrompt assembles the generation request.
// summary may be empty; the follow-up note is included only when followUp is set.
func BuildPrompt(question, evidence, summary string, followUp bool) string {
	note := ""
	if followUp {
		note = FollowUpNote
	}
	return fmt.Sprintf(answerPromptTemplate, summary, evidence, question, note, question)
}

// Sanitize strips markup tags from model output and trims surrounding space.
func Sanitize(text string) string {
	return strings.TrimSpace(markupTag.ReplaceAllString(text, ""))
}

func metadataOr(metadata map[string]string, key, fallback string) string {
	if v, ok := metadata[key]; ok && v != "" {
		return v
	}
	return fallback
}
