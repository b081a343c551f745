package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
// One repository serves exactly one named collection; language isolation is
// achieved by giving each language its own collection.
type IndexRepository struct {
	backend    *Backend
	collection string
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates an IndexRepository scoped to a collection.
func NewIndexRepository(backend *Backend, collection string) (*IndexRepository, error) {
	if collection == "" {
		return nil, storage.ErrEmptyCollection
	}

	return &IndexRepository{
		backend:    backend,
		collection: collection,
	}, nil
}

// Collection returns the collection name this repository serves.
func (r *IndexRepository) Collection() string {
	return r.collection
}

// Close releases repository resources.
func (r *IndexRepository) Close() error {
	return nil
}

// PutRecords stores records and their content-hash index entries in a single
// transaction. Records are never mutated in place; a record with an existing
// ID is superseded wholesale.
func (r *IndexRepository) PutRecords(ctx context.Context, records ...*core.IndexRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}

			key := makeIndexRecordKey(r.collection, record.Id)
			if err := tx.Set(key, storage.MarshalIndexRecord(record)); err != nil {
				return err
			}

			// Content-hash index entry for exact-match dedup lookups
			hashKey := makeIndexHashKey(r.collection, record.Meta.ContentHash)
			if err := tx.Set(hashKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// HashExists reports whether a record with the exact content hash is stored.
// This is an exact key lookup on the hash index, never a similarity search.
func (r *IndexRepository) HashExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeIndexHashKey(r.collection, hash))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// ScanRecords calls fn for every record in the collection.
func (r *IndexRepository) ScanRecords(ctx context.Context, fn func(*core.IndexRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeIndexScanPrefix(r.collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.IndexRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalIndexRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}
