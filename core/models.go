package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for stored passages.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Fingerprint identifies passages with the same content for deduplication.
type Fingerprint ID

// FingerprintContent hashes the first prefixLen runes of content.
// A prefixLen of zero or less hashes the whole content.
func FingerprintContent(content string, prefixLen int) Fingerprint {
	return Fingerprint(IDFromContent(TruncateRunes(content, prefixLen)))
}

// TruncateRunes returns at most n runes of s. n <= 0 returns s unchanged.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Metadata keys set by the ingestion collaborator on every passage.
const (
	MetaFileName     = "file_name"
	MetaDocumentType = "document_type"
	MetaPageNumber   = "page_number"
	MetaSource       = "source"
	MetaChunkID      = "chunk_id"
)

// Session is a conversation's full exchange history plus identity.
type Session struct {
	SessionID      string     `json:"session_id"`
	CreatedAt      time.Time  `json:"created_at"`
	LastUpdated    time.Time  `json:"last_updated"`
	TotalExchanges int        `json:"total_exchanges"`
	Exchanges      []Exchange `json:"exchanges"`
}

// Exchange is one question/answer turn within a session.
// Exchanges are immutable once appended.
type Exchange struct {
	Timestamp         time.Time   `json:"timestamp"`
	UserQuestion      string      `json:"user_question"`
	AssistantResponse string      `json:"assistant_response"`
	Sources           []SourceRef `json:"sources"`
	ExchangeID        int         `json:"exchange_id"`
}

// SourceRef is a citation derived from a retrieved passage.
type SourceRef struct {
	FileName       string `json:"file_name"`
	DocumentType   string `json:"document_type"`
	PageNumber     string `json:"page_number"`
	ContentPreview string `json:"content_preview"`
}

// SessionSummary is the listing view of a persisted session.
type SessionSummary struct {
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdated    time.Time `json:"last_updated"`
	TotalExchanges int       `json:"total_exchanges"`
	Preview        string    `json:"preview"`
}

// Passage is a chunk of a source document held by a search provider.
type Passage struct {
	Id       ID
	Content  string
	Metadata map[string]string
	Vector   []float32 // Embedding vector (populated on insert)
	Score    float32   // Similarity to the query (populated on search)
}

// Candidate is a passage retrieved by one expanded query.
// Candidates live only for the duration of a retrieval pass.
type Candidate struct {
	Content         string
	Metadata        map[string]string
	OriginQuery     string
	OriginQueryRank int // Index of the expanded query; lower is closer to the user's wording
	Fingerprint     Fingerprint
}
