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

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/index"
	"github.com/poiesic/recall/storage"
)

// defaultTopK is the number of chunks retrieved per question.
const defaultTopK = 6

// dateFormat is the date layout injected into the answer prompt.
const dateFormat = "2006-01-02"

// Result is what one answered question returns to the caller.
type Result struct {
	Answer            string
	RewrittenQuestion string
	Sources           []core.Chunk
}

// Engine runs one question through a strict linear chain: rewrite the
// question against conversation history, retrieve context, generate a
// grounded answer, then record the turn. A failure at any stage aborts the
// turn and leaves the thread history unchanged.
type Engine struct {
	adapter   *index.Adapter
	chat      ai.ChatModel
	convos    storage.ConversationRepository
	templates TemplateSet
	k         int
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets the number of chunks retrieved per question.
// Default is 6.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k < 1 {
			k = 1
		}
		e.k = k
		return nil
	}
}

// WithClock sets the time source used for the answer prompt's date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a retrieval engine scoped to one language.
func NewEngine(
	adapter *index.Adapter,
	chat ai.ChatModel,
	convos storage.ConversationRepository,
	lang core.Language,
	opts ...Option,
) (*Engine, error) {
	if adapter == nil {
		return nil, ErrAdapterRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}
	if convos == nil {
		return nil, ErrConversationStoreRequired
	}

	e := &Engine{
		adapter:   adapter,
		chat:      chat,
		convos:    convos,
		templates: TemplatesForLanguage(lang),
		k:         defaultTopK,
		now:       time.Now,
		logger:    slog.Default().With("component", "engine", "lang", string(lang)),
		threads:   make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Answer runs one full turn for a thread and returns the answer, the
// rewritten question used for retrieval, and the source chunks. Concurrent
// turns on the same thread are serialized; different threads run freely.
func (e *Engine) Answer(ctx context.Context, question, threadID string) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}

	lock := e.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	history, err := e.convos.History(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	rewritten, err := e.rewrite(ctx, question, history)
	if err != nil {
		return nil, fmt.Errorf("rewriting question: %w", err)
	}

	sources, err := e.adapter.SimilaritySearch(ctx, rewritten, e.k)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := e.generate(ctx, rewritten, sources)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	// The turn is committed only after a fully successful answer, so a
	// failed turn never leaves a half-written history.
	err = e.convos.AppendTurns(ctx, threadID,
		core.Turn{Role: core.RoleUser, Content: question},
		core.Turn{Role: core.RoleAssistant, Content: answer},
	)
	if err != nil {
		return nil, fmt.Errorf("recording turn: %w", err)
	}

	e.logger.Info("answered question", "thread", threadID, "sources", len(sources))
	return &Result{
		Answer:            answer,
		RewrittenQuestion: rewritten,
		Sources:           sources,
	}, nil
}

// rewrite turns a follow-up question into a standalone one using history.
// With no history the question is already standalone; the model is not
// called, which guarantees the first turn of a thread is never distorted.
func (e *Engine) rewrite(ctx context.Context, question string, history []core.Turn) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	prompt, err := e.templates.Rewrite.Format(map[string]any{
		"chat_history": formatHistory(history),
		"input":        question,
	})
	if err != nil {
		return "", err
	}

	rewritten, err := e.chat.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		e.logger.Debug("empty rewrite, keeping original question")
		return question, nil
	}
	return rewritten, nil
}

// generate answers the rewritten question from the retrieved chunks, joined
// in retrieval-rank order.
func (e *Engine) generate(ctx context.Context, question string, sources []core.Chunk) (string, error) {
	contents := make([]string, len(sources))
	for i, chunk := range sources {
		contents[i] = chunk.Content
	}

	prompt, err := e.templates.Answer.Format(map[string]any{
		"context": strings.Join(contents, "\n\n"),
		"input":   question,
		"date":    e.now().Format(dateFormat),
	})
	if err != nil {
		return "", err
	}

	return e.chat.Complete(ctx, prompt)
}

func (e *Engine) threadLock(threadID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		e.threads[threadID] = lock
	}
	return lock
}

// formatHistory renders turns as "User:"/"Assistant:" lines for the rewrite
// prompt.
func formatHistory(turns []core.Turn) string {
	lines := make([]string, len(turns))
	for i, turn := range turns {
		speaker := "User"
		if turn.Role == core.RoleAssistant {
			speaker = "Assistant"
		}
		lines[i] = speaker + ": " + turn.Content
	}
	return strings.Join(lines, "\n")
}
