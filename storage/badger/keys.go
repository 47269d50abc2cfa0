package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/lexrag/core"
)

// Key prefixes for different data types
const (
	sessionRecordPrefix  = "sesrec"
	sessionUpdatedPrefix = "sesupd"
	sessionPointerPrefix = "sesptr"
	passagePrefix        = "psgrec"
)

// makeSessionKey generates a key for a session record by ID.
func makeSessionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", sessionRecordPrefix, id))
}

// makeSessionPointerKey generates the key that holds a session's current
// last-updated index key, so stale index entries can be removed on update.
func makeSessionPointerKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", sessionPointerPrefix, id))
}

// makeSessionUpdatedKey generates a composite key for the last-updated index.
// Format: prefix:timestamp:id
func makeSessionUpdatedKey(lastUpdated time.Time, id string) []byte {
	buf := makePartialSessionUpdatedKey(lastUpdated)
	return append(buf, id...)
}

// makePartialSessionUpdatedKey generates a partial key for range scans over
// the last-updated index.
// Format: prefix:timestamp
func makePartialSessionUpdatedKey(lastUpdated time.Time) []byte {
	prefix := []byte(sessionUpdatedPrefix + ":")
	buf := make([]byte, len(prefix)+8, len(prefix)+8+36)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly.
	// Pre-epoch times clamp to zero.
	binary.BigEndian.PutUint64(buf[offset:], uint64(max(lastUpdated.UnixMicro(), 0)))
	return buf
}

// sessionUpdatedIndexPrefix returns the prefix shared by all last-updated index keys.
func sessionUpdatedIndexPrefix() []byte {
	return []byte(sessionUpdatedPrefix + ":")
}

// makePassageKey generates a key for a passage by ID.
func makePassageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", passagePrefix, id))
}
