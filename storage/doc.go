// Package storage defines the persistence interfaces for the vector index
// collections and the per-thread conversation history, plus the mus-format
// serialization helpers shared by backends.
//
// The BadgerDB implementation lives in storage/badger.
package storage
