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

package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateExchange validates an Exchange according to domain rules.
//
// Validation rules:
//   - UserQuestion must not be blank
//   - ExchangeID must be >= 1
//   - Timestamp must not be in the future
//
// NOT validated:
//   - AssistantResponse (degraded answers may be empty)
//   - Sources (empty when nothing was cited)
func ValidateExchange(exchange *Exchange) error {
	if exchange == nil {
		return fmt.Errorf("%w: exchange is nil", ErrInvalidExchange)
	}

	if strings.TrimSpace(exchange.UserQuestion) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidExchange, ErrEmptyQuestion)
	}

	if exchange.ExchangeID < 1 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidExchange, ErrInvalidExchangeID, exchange.ExchangeID)
	}

	if !IsValidTimestamp(exchange.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidExchange, ErrInvalidTimestamp)
	}

	return nil
}

// ValidatePassage validates a Passage before it is indexed.
func ValidatePassage(passage *Passage) error {
	if passage == nil {
		return fmt.Errorf("%w: passage is nil", ErrInvalidPassage)
	}

	if strings.TrimSpace(passage.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassage, ErrEmptyContent)
	}

	return nil
}

// ValidateSessionID rejects blank session identifiers.
func ValidateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptySessionID
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
