package engine

import "errors"

var (
	// ErrAdapterRequired is returned when an index adapter is not provided.
	ErrAdapterRequired = errors.New("index adapter required")

	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrConversationStoreRequired is returned when a conversation repository is not provided.
	ErrConversationStoreRequired = errors.New("conversation repository required")

	// ErrEmptyQuestion is returned when a question is empty or whitespace.
	ErrEmptyQuestion = errors.New("question required")

	// ErrEmptyThreadID is returned when a thread identifier is empty.
	ErrEmptyThreadID = errors.New("thread id required")
)
