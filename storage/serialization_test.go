package storage

import (
	"testing"
	"time"

	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalSession(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name    string
		session *core.Session
	}{
		{
			name: "empty session",
			session: &core.Session{
				SessionID:   "5f0c6a64-8d1e-4a56-9d2f-3f6e8f0b9c11",
				CreatedAt:   now,
				LastUpdated: now,
			},
		},
		{
			name: "session with exchanges",
			session: &core.Session{
				SessionID:   "b4b7e1a2-0a7a-4c1e-8f5e-6d0f3e2a1b77",
				CreatedAt:   now.Add(-time.Hour),
				LastUpdated: now,
				Exchanges: []core.Exchange{
					{
						ExchangeID:        1,
						Timestamp:         now.Add(-time.Hour),
						UserQuestion:      "What is Section 80C?",
						AssistantResponse: "Section 80C allows deductions for specified investments.",
						Sources: []core.SourceRef{
							{FileName: "income_tax_act.pdf", DocumentType: "Income Tax", PageNumber: "112", ContentPreview: "Deduction in respect of..."},
						},
					},
					{
						ExchangeID:        2,
						Timestamp:         now,
						UserQuestion:      "What about the limit?",
						AssistantResponse: "The limit is one and a half lakh rupees.",
						Sources:           []core.SourceRef{},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalSession(tt.session)
			require.NoError(t, err)
			assert.Equal(t, len(tt.session.Exchanges), tt.session.TotalExchanges)

			decoded, err := UnmarshalSession(data)
			require.NoError(t, err)
			assert.Equal(t, tt.session.SessionID, decoded.SessionID)
			assert.True(t, tt.session.CreatedAt.Equal(decoded.CreatedAt))
			assert.True(t, tt.session.LastUpdated.Equal(decoded.LastUpdated))
			assert.Equal(t, tt.session.TotalExchanges, decoded.TotalExchanges)
			require.Len(t, decoded.Exchanges, len(tt.session.Exchanges))

			// Re-encoding the decoded record must reproduce the stored bytes.
			again, err := MarshalSession(decoded)
			require.NoError(t, err)
			assert.Equal(t, string(data), string(again))
		})
	}
}

func TestMarshalSession_FieldNames(t *testing.T) {
	session := &core.Session{
		SessionID: "abc",
		Exchanges: []core.Exchange{{ExchangeID: 1, UserQuestion: "q"}},
	}
	data, err := MarshalSession(session)
	require.NoError(t, err)

	for _, field := range []string{
		`"session_id"`, `"created_at"`, `"last_updated"`, `"total_exchanges"`, `"exchanges"`,
		`"timestamp"`, `"user_question"`, `"assistant_response"`, `"sources"`, `"exchange_id"`,
	} {
		assert.Contains(t, string(data), field)
	}
}

func TestUnmarshalSession_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"garbage", []byte("{not json")},
		{"missing session id", []byte(`{"exchanges": []}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalSession(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestSummarizeSession(t *testing.T) {
	t.Run("empty session preview", func(t *testing.T) {
		summary := SummarizeSession(&core.Session{SessionID: "s1"}, 100)
		assert.Equal(t, "Empty session", summary.Preview)
		assert.Equal(t, "s1", summary.SessionID)
	})

	t.Run("preview truncated", func(t *testing.T) {
		session := &core.Session{
			SessionID:      "s2",
			TotalExchanges: 1,
			Exchanges:      []core.Exchange{{ExchangeID: 1, UserQuestion: "What does Article 21 of the Constitution protect?"}},
		}
		summary := SummarizeSession(session, 10)
		assert.Equal(t, "What does ", summary.Preview)
		assert.Equal(t, 1, summary.TotalExchanges)
	})
}

func TestMarshalUnmarshalPassage(t *testing.T) {
	passage := &core.Passage{
		Id:      core.IDFromContent("Whoever commits murder shall be punished"),
		Content: "Whoever commits murder shall be punished",
		Metadata: map[string]string{
			core.MetaFileName:     "bns.pdf",
			core.MetaDocumentType: "nyaya_sanhita",
			core.MetaPageNumber:   "41",
		},
		Vector: []float32{0.6, 0.8},
		Score:  0.99,
	}

	data, err := MarshalPassage(passage)
	require.NoError(t, err)

	decoded, err := UnmarshalPassage(data)
	require.NoError(t, err)
	assert.Equal(t, passage.Id, decoded.Id)
	assert.Equal(t, passage.Content, decoded.Content)
	assert.Equal(t, passage.Metadata, decoded.Metadata)
	assert.Equal(t, passage.Vector, decoded.Vector)
	assert.Zero(t, decoded.Score, "score is never stored")
}

func TestUnmarshalPassage_Invalid(t *testing.T) {
	_, err := UnmarshalPassage([]byte("nope"))
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
