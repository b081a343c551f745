// Package ingest acquires raw documents from disk, remote URLs and a bucket
// listing, splits them into language-configured token windows (markdown by
// heading structure first), deduplicates by content hash and upserts the
// survivors into the vector index.
package ingest
