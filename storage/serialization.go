// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/lexrag/core"
)

// passageRecord is the stored form of a core.Passage.
// Score is query-dependent and never stored.
type passageRecord struct {
	Id       core.ID           `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Vector   []float32         `json:"vector,omitempty"`
}

// MarshalSession serializes a Session to its JSON record form.
// TotalExchanges is set from the exchange list before encoding.
func MarshalSession(session *core.Session) ([]byte, error) {
	session.TotalExchanges = len(session.Exchanges)
	if session.Exchanges == nil {
		session.Exchanges = []core.Exchange{}
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalSession deserializes a Session from its JSON record form.
func UnmarshalSession(data []byte) (*core.Session, error) {
	var session core.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if session.SessionID == "" {
		return nil, fmt.Errorf("%w: record has no session_id", ErrSerializationFailed)
	}
	return &session, nil
}

// SummarizeSession builds the listing view of a session.
// The preview is the first question truncated to previewLen runes.
func SummarizeSession(session *core.Session, previewLen int) core.SessionSummary {
	preview := "Empty session"
	if len(session.Exchanges) > 0 {
		preview = core.TruncateRunes(session.Exchanges[0].UserQuestion, previewLen)
	}
	return core.SessionSummary{
		SessionID:      session.SessionID,
		CreatedAt:      session.CreatedAt,
		LastUpdated:    session.LastUpdated,
		TotalExchanges: session.TotalExchanges,
		Preview:        preview,
	}
}

// MarshalPassage serializes a Passage to bytes.
func MarshalPassage(passage *core.Passage) ([]byte, error) {
	data, err := json.Marshal(passageRecord{
		Id:       passage.Id,
		Content:  passage.Content,
		Metadata: passage.Metadata,
		Vector:   passage.Vector,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalPassage deserializes a Passage from bytes.
func UnmarshalPassage(data []byte) (*core.Passage, error) {
	var record passageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.Passage{
		Id:       record.Id,
		Content:  record.Content,
		Metadata: record.Metadata,
		Vector:   record.Vector,
	}, nil
}
