package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	id1 := IDFromContent("hello world")
	id2 := IDFromContent("hello world")
	id3 := IDFromContent("hello worlds")

	assert.Equal(t, id1, id2, "identical content must produce identical IDs")
	assert.NotEqual(t, id1, id3, "different content should produce different IDs")
	assert.NotZero(t, id1)
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash("some chunk text")
	h2 := ContentHash("some chunk text")
	h3 := ContentHash("some chunk text ")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3, "hash is over the exact text, whitespace included")
	assert.Len(t, h1, 64, "SHA-256 hex digest")
}

func TestFileTypeFromExt(t *testing.T) {
	tests := []struct {
		ext  string
		want FileType
		ok   bool
	}{
		{".txt", FileTypeText, true},
		{".md", FileTypeMarkdown, true},
		{".pdf", FileTypePDF, true},
		{".png", 0, false},
		{".docx", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := FileTypeFromExt(tt.ext)
		assert.Equal(t, tt.ok, ok, "ext %q", tt.ext)
		assert.Equal(t, tt.want, got, "ext %q", tt.ext)
	}
}

func TestFileTypeExtRoundTrip(t *testing.T) {
	for _, ft := range []FileType{FileTypeText, FileTypeMarkdown, FileTypePDF} {
		got, ok := FileTypeFromExt(ft.Ext())
		require.True(t, ok)
		assert.Equal(t, ft, got)
	}
}

func TestValidateChunk(t *testing.T) {
	chunk := Chunk{
		Content: "text",
		Meta:    ChunkMeta{ContentHash: ContentHash("text")},
	}
	assert.NoError(t, ValidateChunk(&chunk))

	missing := Chunk{Content: "text"}
	assert.ErrorIs(t, ValidateChunk(&missing), ErrMissingContentHash)

	empty := Chunk{Meta: ChunkMeta{ContentHash: "abc"}}
	assert.ErrorIs(t, ValidateChunk(&empty), ErrEmptyContent)
}

func TestValidateTurn(t *testing.T) {
	turn := Turn{Role: RoleUser, Content: "hi", Timestamp: time.Now().UTC()}
	assert.NoError(t, ValidateTurn(&turn))

	badRole := Turn{Role: Role(9), Content: "hi"}
	assert.ErrorIs(t, ValidateTurn(&badRole), ErrInvalidRole)
}

func TestTurnSerializationRoundTrip(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "Where do I work?", Timestamp: time.Now().UTC().Truncate(time.Microsecond)},
		{Role: RoleAssistant, Content: "At Company X.", Timestamp: time.Now().UTC().Truncate(time.Microsecond)},
	}

	buf := make([]byte, TurnsMUS.Size(turns))
	TurnsMUS.Marshal(turns, buf)

	decoded, n, err := TurnsMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	require.Len(t, decoded, 2)
	assert.Equal(t, turns[0], decoded[0])
	assert.Equal(t, turns[1], decoded[1])
}

func TestIndexRecordSerializationRoundTrip(t *testing.T) {
	record := IndexRecord{
		Id:      IDFromContent("chunk text"),
		Content: "[Work > Role]\n\nchunk text",
		Meta: ChunkMeta{
			DocumentMeta: DocumentMeta{
				Source:   "/docs/en_profile.md",
				Filename: "en_profile.md",
				Type:     FileTypeMarkdown,
				LangHint: LanguageEnglish,
			},
			SectionPath: "Work > Role",
			ContentHash: ContentHash("chunk text"),
		},
		Vector:     []float32{0.1, -0.5, 0.9},
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, IndexRecordMUS.Size(record))
	IndexRecordMUS.Marshal(record, buf)

	decoded, n, err := IndexRecordMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, record, decoded)
}
