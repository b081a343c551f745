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

package ingest

import (
	"context"
	"log/slog"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
)

// Pipeline turns raw sources into deduplicated, embedded chunks in the index.
// One pipeline is scoped to one language; its loader, splitter and adapter all
// share that scope.
type Pipeline struct {
	adapter  *index.Adapter
	loader   *Loader
	splitter *Splitter
	logger   *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithPipelineLogger sets a custom logger.
// Default is slog.Default().
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(adapter *index.Adapter, loader *Loader, splitter *Splitter, opts ...PipelineOption) (*Pipeline, error) {
	if adapter == nil {
		return nil, ErrAdapterRequired
	}
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}

	p := &Pipeline{
		adapter:  adapter,
		loader:   loader,
		splitter: splitter,
		logger:   slog.Default().With("component", "ingest", "collection", adapter.Collection()),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Deduplicate drops every chunk whose content hash is already indexed or was
// already seen earlier in the same batch. The hash lookup is an exact match;
// similarity search is never involved, near-duplicates stay distinct.
func (p *Pipeline) Deduplicate(ctx context.Context, chunks []core.Chunk) ([]core.Chunk, error) {
	seen := make(map[string]struct{}, len(chunks))

	var kept []core.Chunk
	for _, chunk := range chunks {
		if _, dup := seen[chunk.Meta.ContentHash]; dup {
			p.logger.Debug("dropping duplicate chunk within batch", "source", chunk.Meta.Source)
			continue
		}
		seen[chunk.Meta.ContentHash] = struct{}{}

		exists, err := p.adapter.ExistsByHash(ctx, chunk.Meta.ContentHash)
		if err != nil {
			return nil, err
		}
		if exists {
			p.logger.Debug("dropping chunk already indexed", "source", chunk.Meta.Source)
			continue
		}

		kept = append(kept, chunk)
	}
	return kept, nil
}

// Build splits the documents, deduplicates the chunks and upserts the
// survivors, returning the generated identifiers. A document that fails to
// split is logged and skipped, never fatal to the batch. Zero survivors is a
// logged no-op.
func (p *Pipeline) Build(ctx context.Context, docs []core.Document) ([]core.ID, error) {
	var chunks []core.Chunk
	for i := range docs {
		split, err := p.splitter.Split(&docs[i])
		if err != nil {
			p.logger.Warn("skipping document", "source", docs[i].Meta.Source, "err", err)
			continue
		}
		chunks = append(chunks, split...)
	}

	survivors, err := p.Deduplicate(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(survivors) == 0 {
		p.logger.Info("no new chunks to index", "documents", len(docs))
		return nil, nil
	}

	ids, err := p.adapter.Upsert(ctx, survivors)
	if err != nil {
		return nil, err
	}

	p.logger.Info("indexed chunks", "documents", len(docs), "chunks", len(ids))
	return ids, nil
}

// AddFromURL acquires a single document by URL and indexes it, returning the
// source identifier. Acquisition failures surface as typed errors; this is
// the interactive path, not the skip-and-continue batch path.
func (p *Pipeline) AddFromURL(ctx context.Context, rawURL string) (string, error) {
	doc, err := p.loader.FetchFromURL(ctx, rawURL)
	if err != nil {
		p.logger.Error("error acquiring document", "url", rawURL, "err", err)
		return "", err
	}

	if _, err := p.Build(ctx, []core.Document{*doc}); err != nil {
		return "", err
	}
	return doc.Meta.Source, nil
}

// Initialize acquires the corpus and indexes it once at startup. An empty
// corpus is a valid, non-fatal state; the adapter handle is returned either
// way.
func (p *Pipeline) Initialize(ctx context.Context) (*index.Adapter, error) {
	docs := p.loader.Acquire(ctx)
	if len(docs) == 0 {
		p.logger.Info("no documents found during initialization")
		return p.adapter, nil
	}

	if _, err := p.Build(ctx, docs); err != nil {
		return nil, err
	}
	return p.adapter, nil
}

// Adapter returns the index adapter this pipeline feeds.
func (p *Pipeline) Adapter() *index.Adapter {
	return p.adapter
}

// Release releases the loader's fetch worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.loader.Release()
}
