package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/seampoint/concierge/core"
)

// Key prefixes for different data types
const (
	knowledgeItemPrefix = "kitem"
	knowledgeCatPrefix  = "kitemcat"
	knowledgeDimPrefix  = "kitemdim"
	sessionRecordPrefix = "sessrec"
)

// makeItemKey generates a key for a knowledge item by collection and ID.
// The ID is written in BigEndian order so iteration visits items in
// ascending ID order.
func makeItemKey(st core.SourceType, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:", knowledgeItemPrefix, st))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeItemKeyPrefix generates the key prefix covering all items of a collection.
func makeItemKeyPrefix(st core.SourceType) []byte {
	return []byte(fmt.Sprintf("%s:%s:", knowledgeItemPrefix, st))
}

// makeCategoryKey generates a composite key for the category index.
// Format: prefix:collection:category:id
func makeCategoryKey(st core.SourceType, category string, id core.ID) []byte {
	prefix := []byte(fmt.Sprintf("%s:%s:%s:", knowledgeCatPrefix, st, category))
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCategoryKeyPrefix generates the prefix covering all index entries of a category.
func makeCategoryKeyPrefix(st core.SourceType, category string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", knowledgeCatPrefix, st, category))
}

// makeDimensionKey generates the key storing a collection's pinned vector dimension.
func makeDimensionKey(st core.SourceType) []byte {
	return []byte(fmt.Sprintf("%s:%s", knowledgeDimPrefix, st))
}

// makeSessionKey generates a key for a session by ID.
func makeSessionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", sessionRecordPrefix, id))
}

// sessionKeyPrefix is the prefix covering all session records.
func sessionKeyPrefix() []byte {
	return []byte(sessionRecordPrefix + ":")
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(jobName string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", jobName))
}
