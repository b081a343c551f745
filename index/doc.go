// Package index provides the vector index adapter: batched embedding and
// upsert of chunks, exact content-hash existence checks for dedup, and
// similarity search over a single named collection.
package index
