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


package badger

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// historyLimit bounds the number of turns kept per thread. Older turns are
// dropped on append so history cannot grow without bound.
const historyLimit = 50

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
// Each thread's history is stored as a single value, so an append is a
// read-modify-write of one key. A per-thread lock serializes appends to the
// same thread; appends to different threads proceed concurrently.
type ConversationRepository struct {
	backend *Backend

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) *ConversationRepository {
	return &ConversationRepository{
		backend: backend,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Close releases repository resources.
func (r *ConversationRepository) Close() error {
	return nil
}

// threadLock returns the mutex guarding a thread's key, creating it on first use.
func (r *ConversationRepository) threadLock(threadID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[threadID] = lock
	}
	return lock
}

// History returns the stored turns for a thread, oldest first.
// An unknown thread yields an empty slice.
func (r *ConversationRepository) History(ctx context.Context, threadID string) ([]core.Turn, error) {
	if threadID == "" {
		return nil, storage.ErrEmptyThreadID
	}

	var turns []core.Turn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeConversationKey(threadID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			turns, err = storage.UnmarshalTurns(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}

	if turns == nil {
		turns = []core.Turn{}
	}
	return turns, nil
}

// AppendTurns appends turns to a thread's history as one atomic
// read-modify-write, trimming to the most recent historyLimit turns.
func (r *ConversationRepository) AppendTurns(ctx context.Context, threadID string, turns ...core.Turn) error {
	if threadID == "" {
		return storage.ErrEmptyThreadID
	}
	if len(turns) == 0 {
		return nil
	}

	for i := range turns {
		if err := core.ValidateTurn(&turns[i]); err != nil {
			return err
		}
		if turns[i].Timestamp.IsZero() {
			turns[i].Timestamp = time.Now().UTC()
		}
	}

	lock := r.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(threadID)

		var existing []core.Turn
		item, err := tx.Get(key)
		if err != nil {
			if err != badger.ErrKeyNotFound {
				return err
			}
		} else {
			if err := item.Value(func(val []byte) error {
				var err error
				existing, err = storage.UnmarshalTurns(val)
				return err
			}); err != nil {
				return err
			}
		}

		updated := append(existing, turns...)
		if len(updated) > historyLimit {
			updated = updated[len(updated)-historyLimit:]
		}

		if err := tx.Set(key, storage.MarshalTurns(updated)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
