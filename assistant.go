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

package recall

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/engine"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/ingest"
	"github.com/poiesic/recall/router"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

// supportedLanguages lists the corpus languages. English is the default.
var supportedLanguages = []core.Language{core.LanguageEnglish, core.LanguageSpanish}

// collectionName returns the index collection for a language. One collection
// per language, never mixed.
func collectionName(lang core.Language) string {
	return "recall_" + string(lang)
}

// Assistant wires one {index adapter, ingestion pipeline, retrieval engine}
// triple per language over a shared storage backend, and routes each question
// to the triple matching its detected language.
type Assistant struct {
	backend    *badger.Backend
	provider   ai.Provider
	convoRepo  storage.ConversationRepository
	indexRepos []storage.IndexRepository
	routes     map[core.Language]router.Route
	router     *router.Router
	logger     *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*assistantOptions)

type assistantOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	dataDir  string
	apiURL   string
	cdnURL   string
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) AssistantOption {
	return func(o *assistantOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider sets a pre-built AI provider, bypassing the configured one.
func WithProvider(provider ai.Provider) AssistantOption {
	return func(o *assistantOptions) {
		o.provider = provider
	}
}

// WithDataDir sets the local directory scanned during corpus initialization.
func WithDataDir(dir string) AssistantOption {
	return func(o *assistantOptions) {
		o.dataDir = dir
	}
}

// WithBucket sets the bucket listing API base URL and the CDN base URL for
// remote corpus acquisition.
func WithBucket(apiURL, cdnURL string) AssistantOption {
	return func(o *assistantOptions) {
		o.apiURL = apiURL
		o.cdnURL = cdnURL
	}
}

// WithInMemoryStorage keeps all state in memory. Intended for tests.
func WithInMemoryStorage() AssistantOption {
	return func(o *assistantOptions) {
		o.inMemory = true
	}
}

// NewAssistant opens the storage backend at filePath and builds the full
// per-language resource table. A backend that cannot be opened is the one
// fatal construction failure.
func NewAssistant(filePath string, opts ...AssistantOption) (*Assistant, error) {
	options := &assistantOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	convoRepo := badger.NewConversationRepository(backend)

	a := &Assistant{
		backend:   backend,
		provider:  provider,
		convoRepo: convoRepo,
		routes:    make(map[core.Language]router.Route),
		logger:    slog.Default().With("component", "assistant"),
	}

	for _, lang := range supportedLanguages {
		if err := a.buildRoute(lang, options); err != nil {
			a.Close()
			return nil, err
		}
	}

	rt, err := router.NewRouter(router.NewDetector(), a.routes)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.router = rt

	return a, nil
}

// buildRoute assembles the language-scoped triple and registers it.
func (a *Assistant) buildRoute(lang core.Language, options *assistantOptions) error {
	indexRepo, err := badger.NewIndexRepository(a.backend, collectionName(lang))
	if err != nil {
		return err
	}
	a.indexRepos = append(a.indexRepos, indexRepo)

	adapter, err := index.NewAdapter(indexRepo, a.provider.Embedder())
	if err != nil {
		return err
	}

	loader, err := ingest.NewLoader(lang,
		ingest.WithDataDir(options.dataDir),
		ingest.WithBucket(options.apiURL, options.cdnURL),
	)
	if err != nil {
		return err
	}

	pipeline, err := ingest.NewPipeline(adapter, loader, ingest.NewSplitter(lang))
	if err != nil {
		loader.Release()
		return err
	}

	eng, err := engine.NewEngine(adapter, a.provider.ChatModel(), a.convoRepo, lang)
	if err != nil {
		pipeline.Release()
		return err
	}

	a.routes[lang] = router.Route{Engine: eng, Pipeline: pipeline}
	return nil
}

// InitializeCorpus runs startup ingestion for every language. An empty corpus
// is valid and non-fatal.
func (a *Assistant) InitializeCorpus(ctx context.Context) error {
	for _, lang := range supportedLanguages {
		route := a.router.RouteForLanguage(lang)
		if _, err := route.Pipeline.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// IngestOne adds a single document by URL to the pipeline matching the
// filename's language prefix, defaulting to English. Unsupported types and
// fetch failures surface as typed errors.
func (a *Assistant) IngestOne(ctx context.Context, rawURL string) (string, error) {
	lang := languageFromFilename(rawURL)
	route := a.router.RouteForLanguage(lang)
	return route.Pipeline.AddFromURL(ctx, rawURL)
}

// AnswerQuestion detects the question's language once and runs the whole
// turn through that language's engine.
func (a *Assistant) AnswerQuestion(ctx context.Context, question, threadID string) (*engine.Result, error) {
	lang, route := a.router.RouteFor(question)
	a.logger.Debug("routed question", "lang", string(lang), "thread", threadID)
	return route.Engine.Answer(ctx, question, threadID)
}

// ConversationRepository returns the shared conversation store.
func (a *Assistant) ConversationRepository() storage.ConversationRepository {
	return a.convoRepo
}

// Router returns the language router.
func (a *Assistant) Router() *router.Router {
	return a.router
}

// Close releases every pipeline and closes the provider, repositories and
// backend.
func (a *Assistant) Close() error {
	for _, route := range a.routes {
		route.Pipeline.Release()
	}

	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
	}

	for _, repo := range a.indexRepos {
		if err := repo.Close(); err != nil {
			a.logger.Error("error closing index repository", "err", err)
		}
	}
	if err := a.convoRepo.Close(); err != nil {
		a.logger.Error("error closing conversation repository", "err", err)
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// languageFromFilename picks the ingestion language from the URL basename's
// prefix ("es_"), defaulting to English.
func languageFromFilename(rawURL string) core.Language {
	name := path.Base(rawURL)
	if strings.HasPrefix(name, string(core.LanguageSpanish)+"_") {
		return core.LanguageSpanish
	}
	return core.LanguageEnglish
}
