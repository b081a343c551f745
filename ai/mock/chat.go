package mock

import (
	"context"
	"sync"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via a function field and records
// every prompt it receives.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, the default response (or "mock answer") is returned.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	// DefaultResponse is returned when CompleteFunc is nil.
	DefaultResponse string

	mu      sync.Mutex
	prompts []string
}

// NewMockChatModel creates a mock chat model returning a fixed response.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{DefaultResponse: "mock answer"}
}

// Complete records the prompt and returns the configured response.
func (m *MockChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return m.DefaultResponse, nil
}

// Prompts returns a copy of every prompt received so far.
func (m *MockChatModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns the number of Complete calls.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Reset clears recorded prompts and injected behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.CompleteFunc = nil
}
