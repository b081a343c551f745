package core

import "fmt"

// ValidateDocument checks that an acquired document is well-formed.
func ValidateDocument(doc *Document) error {
	if doc.Content == "" {
		return fmt.Errorf("document %q: %w", doc.Meta.Source, ErrEmptyContent)
	}
	if doc.Meta.Source == "" {
		return ErrEmptySource
	}
	switch doc.Meta.Type {
	case FileTypeText, FileTypeMarkdown, FileTypePDF:
	default:
		return fmt.Errorf("document %q: %w", doc.Meta.Source, ErrInvalidFileType)
	}
	return nil
}

// ValidateChunk checks that a chunk is ready to be persisted.
// A missing content hash is a programming error: the dedup check depends on it.
func ValidateChunk(chunk *Chunk) error {
	if chunk.Content == "" {
		return ErrEmptyContent
	}
	if chunk.Meta.ContentHash == "" {
		return ErrMissingContentHash
	}
	return nil
}

// ValidateTurn checks that a conversation turn is well-formed.
func ValidateTurn(turn *Turn) error {
	if turn.Content == "" {
		return ErrEmptyContent
	}
	switch turn.Role {
	case RoleUser, RoleAssistant:
	default:
		return ErrInvalidRole
	}
	return nil
}
