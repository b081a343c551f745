package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

type testPipeline struct {
	pipeline *Pipeline
	repo     storage.IndexRepository
	adapter  *index.Adapter
}

func newTestPipeline(t *testing.T, opts ...LoaderOption) *testPipeline {
	t.Helper()

	indexRepo, _, backend, err := badger.NewMemoryRepositories("recall_en")
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	adapter, err := index.NewAdapter(indexRepo, mock.NewMockEmbedder())
	require.NoError(t, err)

	loader, err := NewLoader(core.LanguageEnglish, opts...)
	require.NoError(t, err)
	t.Cleanup(loader.Release)

	pipeline, err := NewPipeline(adapter, loader, NewSplitter(core.LanguageEnglish))
	require.NoError(t, err)

	return &testPipeline{pipeline: pipeline, repo: indexRepo, adapter: adapter}
}

func (tp *testPipeline) storedChunks(t *testing.T) int {
	t.Helper()
	count := 0
	err := tp.repo.ScanRecords(context.Background(), func(r *core.IndexRecord) error {
		count++
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestNewPipelineValidation(t *testing.T) {
	tp := newTestPipeline(t)

	_, err := NewPipeline(nil, tp.pipeline.loader, tp.pipeline.splitter)
	assert.ErrorIs(t, err, ErrAdapterRequired)

	_, err = NewPipeline(tp.adapter, nil, tp.pipeline.splitter)
	assert.ErrorIs(t, err, ErrLoaderRequired)

	_, err = NewPipeline(tp.adapter, tp.pipeline.loader, nil)
	assert.ErrorIs(t, err, ErrSplitterRequired)
}

func TestBuildIdempotent(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	docs := []core.Document{{
		Content: "I work at Company X. My office is in the city center.",
		Meta: core.DocumentMeta{
			Source:   "/docs/en_work.txt",
			Filename: "en_work.txt",
			Type:     core.FileTypeText,
			LangHint: core.LanguageEnglish,
		},
	}}

	ids, err := tp.pipeline.Build(ctx, docs)
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	stored := tp.storedChunks(t)

	// A second run over the same documents must store nothing new
	ids, err = tp.pipeline.Build(ctx, docs)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, stored, tp.storedChunks(t))
}

func TestBuildWithinBatchDedup(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	doc := core.Document{
		Content: "My sister lives in Madrid.",
		Meta: core.DocumentMeta{
			Source:   "/docs/en_family.txt",
			Filename: "en_family.txt",
			Type:     core.FileTypeText,
			LangHint: core.LanguageEnglish,
		},
	}

	// Same content twice in one batch keeps only the first occurrence
	ids, err := tp.pipeline.Build(ctx, []core.Document{doc, doc})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Equal(t, 1, tp.storedChunks(t))
}

func TestDeduplicateIncremental(t *testing.T) {
	tp := newTestPipeline(t)
	ctx := context.Background()

	chunk := core.Chunk{
		Content: "repeated content",
		Meta: core.ChunkMeta{
			DocumentMeta: core.DocumentMeta{
				Source: "/docs/en_a.txt", Filename: "en_a.txt",
				Type: core.FileTypeText, LangHint: core.LanguageEnglish,
			},
			ContentHash: core.ContentHash("repeated content"),
		},
	}
	other := chunk
	other.Content = "distinct content"
	other.Meta.ContentHash = core.ContentHash("distinct content")

	kept, err := tp.pipeline.Deduplicate(ctx, []core.Chunk{chunk, other, chunk})
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "repeated content", kept[0].Content)
	assert.Equal(t, "distinct content", kept[1].Content)
}

func TestBuildZeroSurvivorsIsNoOp(t *testing.T) {
	tp := newTestPipeline(t)

	ids, err := tp.pipeline.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, 0, tp.storedChunks(t))
}

func TestAddFromURLUnsupportedType(t *testing.T) {
	tp := newTestPipeline(t)

	_, err := tp.pipeline.AddFromURL(context.Background(), "https://cdn.example.com/en_photo.png")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.Equal(t, 0, tp.storedChunks(t))
}

func TestAddFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I was born in 1990."))
	}))
	defer server.Close()

	tp := newTestPipeline(t)
	source, err := tp.pipeline.AddFromURL(context.Background(), server.URL+"/en_bio.txt")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/en_bio.txt", source)
	assert.Equal(t, 1, tp.storedChunks(t))
}

func TestInitializeEmptyCorpus(t *testing.T) {
	tp := newTestPipeline(t, WithDataDir(t.TempDir()))

	adapter, err := tp.pipeline.Initialize(context.Background())
	require.NoError(t, err)
	assert.Same(t, tp.adapter, adapter)
	assert.Equal(t, 0, tp.storedChunks(t))
}

func TestInitializeIndexesCorpus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rag-list-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"files": ["en_notes.txt"]}`))
	})
	mux.HandleFunc("/en_notes.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("I work at Company X."))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tp := newTestPipeline(t, WithBucket(server.URL, server.URL))
	_, err := tp.pipeline.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tp.storedChunks(t))
}
