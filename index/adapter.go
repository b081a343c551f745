package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Adapter is the only component that talks to the embedding and similarity
// backend. One adapter is scoped to exactly one named collection; language
// routing uses one adapter per language, never mixed collections.
type Adapter struct {
	repo     storage.IndexRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAdapter creates an adapter over a collection repository and an embedder.
func NewAdapter(repo storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Adapter, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	a := &Adapter{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "index", "collection", repo.Collection()),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Collection returns the name of the collection this adapter serves.
func (a *Adapter) Collection() string {
	return a.repo.Collection()
}

// ExistsByHash reports whether a chunk with the exact content hash is already
// indexed. Exact metadata lookup only; similarity search is never used for
// dedup because near-duplicates are intentionally kept as distinct.
func (a *Adapter) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	return a.repo.HashExists(ctx, hash)
}

// Upsert embeds the chunk contents in one batch and persists text, metadata
// and vector for each chunk. Returns the generated identifiers in input order.
func (a *Adapter) Upsert(ctx context.Context, chunks []core.Chunk) ([]core.ID, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return nil, err
		}
		texts[i] = chunks[i].Content
	}

	a.logger.Debug("embedding chunks for upsert", "chunks", len(texts))
	vectors, err := a.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		a.logger.Error("error generating embeddings", "err", err)
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(vectors))
	}

	records := make([]*core.IndexRecord, len(chunks))
	ids := make([]core.ID, len(chunks))
	for i := range chunks {
		id := core.IDFromContent(chunks[i].Meta.ContentHash)
		records[i] = &core.IndexRecord{
			Id:      id,
			Content: chunks[i].Content,
			Meta:    chunks[i].Meta,
			Vector:  vectors[i],
		}
		ids[i] = id
	}

	if err := a.repo.PutRecords(ctx, records...); err != nil {
		a.logger.Error("error persisting index records", "records", len(records), "err", err)
		return nil, err
	}

	a.logger.Info("upserted chunks", "chunks", len(records))
	return ids, nil
}

// SimilaritySearch embeds the query and returns the k nearest chunks ranked
// by vector similarity. Ties keep the backend's native ordering. Zero results
// is a valid outcome, not an error.
func (a *Adapter) SimilaritySearch(ctx context.Context, query string, k int) ([]core.Chunk, error) {
	vector, err := a.embedder.EmbedText(ctx, query)
	if err != nil {
		a.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	type scored struct {
		chunk core.Chunk
		score float32
	}

	var results []scored
	err = a.repo.ScanRecords(ctx, func(record *core.IndexRecord) error {
		if len(record.Vector) == 0 {
			return nil
		}
		results = append(results, scored{
			chunk: record.Chunk(),
			score: dotProduct(vector, record.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; equal scores keep scan order
	slices.SortStableFunc(results, func(x, y scored) int {
		if x.score > y.score {
			return -1
		}
		if x.score < y.score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}

	chunks := make([]core.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.chunk
	}
	return chunks, nil
}

// dotProduct calculates the dot product of two vectors.
// Embedding vectors are normalized, so this is the cosine similarity.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
