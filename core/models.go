package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for index records.
// It is generated using content-based hashing so that identical content
// always maps to the same identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FileType identifies the format of a source document.
type FileType int

const (
	// FileTypeText is a plain UTF-8 text document.
	FileTypeText FileType = iota + 1
	// FileTypeMarkdown is a markdown document with heading structure.
	FileTypeMarkdown
	// FileTypePDF is a PDF document parsed page by page.
	FileTypePDF
)

// FileTypeFromExt maps a lowercase file extension (with leading dot) to a
// FileType. The second return value is false for unsupported extensions.
func FileTypeFromExt(ext string) (FileType, bool) {
	switch ext {
	case ".txt":
		return FileTypeText, true
	case ".md":
		return FileTypeMarkdown, true
	case ".pdf":
		return FileTypePDF, true
	default:
		return 0, false
	}
}

// Ext returns the canonical file extension for the type.
func (t FileType) Ext() string {
	switch t {
	case FileTypeText:
		return ".txt"
	case FileTypeMarkdown:
		return ".md"
	case FileTypePDF:
		return ".pdf"
	default:
		return ""
	}
}

// Language is a two-letter language code ("en", "es").
type Language string

const (
	// LanguageEnglish is the default language.
	LanguageEnglish Language = "en"
	// LanguageSpanish is the secondary supported language.
	LanguageSpanish Language = "es"
)

// DocumentMeta carries provenance metadata through acquisition and splitting.
type DocumentMeta struct {
	Source   string   // file path or URL the document was loaded from
	Filename string   // base name of the source
	Type     FileType // document format
	LangHint Language // language of the pipeline that acquired the document
}

// Document is a raw acquired document. It is immutable once created and
// consumed by splitting.
type Document struct {
	Content string
	Meta    DocumentMeta
}

// ChunkMeta is the metadata persisted alongside each chunk in the index.
type ChunkMeta struct {
	DocumentMeta
	SectionPath string // heading path ("h1 > h2 > h3"), empty outside markdown sections
	ContentHash string // SHA-256 hex of the exact chunk text, the dedup key
}

// Chunk is a bounded span of a source document, the unit stored and
// retrieved from the vector index. A chunk never spans two documents.
type Chunk struct {
	Content string
	Meta    ChunkMeta
}

// IndexRecord is a chunk plus its embedding vector and generated identifier.
// Once upserted it is owned by the index and never mutated, only superseded
// by a re-upsert under a new identifier.
type IndexRecord struct {
	Id         ID
	Content    string
	Meta       ChunkMeta
	Vector     []float32
	InsertedAt time.Time
}

// Chunk returns the record's chunk projection, without vector or identifier.
func (r *IndexRecord) Chunk() Chunk {
	return Chunk{Content: r.Content, Meta: r.Meta}
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser is the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant is the answering model.
	RoleAssistant
)

// Turn is a single message in a conversation thread.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}
