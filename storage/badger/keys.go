package badger

import (
	"fmt"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	indexRecordPrefix  = "idxrec"
	indexHashPrefix    = "idxhash"
	conversationPrefix = "convo"
)

// makeIndexRecordKey generates a key for an index record within a collection.
// Format: prefix:collection:id
func makeIndexRecordKey(collection string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", indexRecordPrefix, collection, id))
}

// makeIndexScanPrefix generates the iteration prefix for a collection's records.
func makeIndexScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", indexRecordPrefix, collection))
}

// makeIndexHashKey generates a key for the content-hash index.
// Format: prefix:collection:hash
func makeIndexHashKey(collection, hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", indexHashPrefix, collection, hash))
}

// makeConversationKey generates a key for a conversation thread.
// Format: prefix:threadID
func makeConversationKey(threadID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", conversationPrefix, threadID))
}
