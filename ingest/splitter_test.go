package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
)

func countTokens(t *testing.T, text string) int {
	t.Helper()
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	require.NoError(t, err)
	return len(enc.Encode(text, nil, nil))
}

// sectionBody builds prose long enough to force several token windows.
func sectionBody(word string, words int) string {
	var sb strings.Builder
	for i := 0; i < words; i++ {
		sb.WriteString(word)
		sb.WriteString(fmt.Sprintf(" item%d ", i))
	}
	return sb.String()
}

// stripBreadcrumb removes the "[path]\n\n" prefix when present.
func stripBreadcrumb(content string) string {
	if !strings.HasPrefix(content, "[") {
		return content
	}
	if _, rest, found := strings.Cut(content, "\n\n"); found {
		return rest
	}
	return content
}

func textDocument(content string) *core.Document {
	return &core.Document{
		Content: content,
		Meta: core.DocumentMeta{
			Source:   "/docs/en_notes.txt",
			Filename: "en_notes.txt",
			Type:     core.FileTypeText,
			LangHint: core.LanguageEnglish,
		},
	}
}

func markdownDocument(content string) *core.Document {
	return &core.Document{
		Content: content,
		Meta: core.DocumentMeta{
			Source:   "/docs/en_guide.md",
			Filename: "en_guide.md",
			Type:     core.FileTypeMarkdown,
			LangHint: core.LanguageEnglish,
		},
	}
}

func TestConfigForLanguage(t *testing.T) {
	assert.Equal(t, ChunkConfig{Size: 350, Overlap: 50}, ConfigForLanguage(core.LanguageEnglish))
	assert.Equal(t, ChunkConfig{Size: 460, Overlap: 60}, ConfigForLanguage(core.LanguageSpanish))
	assert.Equal(t, ConfigForLanguage(core.LanguageEnglish), ConfigForLanguage(core.Language("fr")))
}

func TestSplitSections(t *testing.T) {
	content := "preamble text\n" +
		"# Guide\n" +
		"intro under guide\n" +
		"## Work\n" +
		"work details\n" +
		"#### Deep\n" +
		"still work details\n" +
		"# Other\n" +
		"other details\n"

	sections := splitSections(content)
	require.Len(t, sections, 4)

	assert.Equal(t, "", sections[0].path)
	assert.Equal(t, "preamble text", sections[0].body)

	assert.Equal(t, "Guide", sections[1].path)
	assert.Equal(t, "Guide > Work", sections[2].path)
	// h4 and deeper stay inside the section body
	assert.Contains(t, sections[2].body, "#### Deep")
	assert.Contains(t, sections[2].body, "still work details")

	// A new h1 resets the deeper levels
	assert.Equal(t, "Other", sections[3].path)
}

func TestSplitSectionsNoHeadings(t *testing.T) {
	assert.Nil(t, splitSections("just a paragraph\nwith two lines\n"))
}

func TestSplitSectionsFencedCodeBlock(t *testing.T) {
	content := "## Notes\n" +
		"setup steps\n" +
		"```\n" +
		"# not a heading, just a shell comment\n" +
		"echo hi\n" +
		"```\n" +
		"more notes\n"

	sections := splitSections(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "Notes", sections[0].path)
	assert.Contains(t, sections[0].body, "# not a heading, just a shell comment")
	assert.Contains(t, sections[0].body, "more notes")
}

func TestSplitSectionsTildeFence(t *testing.T) {
	content := "## Notes\n" +
		"~~~\n" +
		"# fenced comment\n" +
		"~~~\n"

	sections := splitSections(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "Notes", sections[0].path)
	assert.Contains(t, sections[0].body, "# fenced comment")
}

func TestSplitMarkdownTwoSections(t *testing.T) {
	work := sectionBody("work", 500)
	family := sectionBody("family", 500)
	require.GreaterOrEqual(t, countTokens(t, work), 900)

	doc := markdownDocument("## Work\n" + work + "\n## Family\n" + family + "\n")

	splitter := NewSplitter(core.LanguageEnglish)
	chunks, err := splitter.Split(doc)
	require.NoError(t, err)

	var workChunks, familyChunks int
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk.Meta.SectionPath)
		require.True(t, strings.HasPrefix(chunk.Content, "["+chunk.Meta.SectionPath+"]\n\n"),
			"chunk missing breadcrumb: %q", chunk.Content[:40])
		assert.Equal(t, core.ContentHash(chunk.Content), chunk.Meta.ContentHash)
		assert.LessOrEqual(t, countTokens(t, stripBreadcrumb(chunk.Content)), 350)

		switch chunk.Meta.SectionPath {
		case "Work":
			workChunks++
		case "Family":
			familyChunks++
		}
	}
	assert.GreaterOrEqual(t, workChunks, 3)
	assert.GreaterOrEqual(t, familyChunks, 3)
	assert.Equal(t, len(chunks), workChunks+familyChunks)
}

func TestSplitMarkdownWithoutHeadingsFallsBack(t *testing.T) {
	doc := markdownDocument("plain markdown paragraph with no headings at all")

	splitter := NewSplitter(core.LanguageEnglish)
	chunks, err := splitter.Split(doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.Empty(t, chunk.Meta.SectionPath)
		assert.False(t, strings.HasPrefix(chunk.Content, "["))
	}
}

func TestSplitPlainCoverage(t *testing.T) {
	const words = 800
	var sb strings.Builder
	for i := 0; i < words; i++ {
		sb.WriteString(fmt.Sprintf("word%d ", i))
	}
	doc := textDocument(sb.String())

	splitter := NewSplitter(core.LanguageEnglish)
	chunks, err := splitter.Split(doc)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Every word of the source must land in at least one chunk
	joined := ""
	for _, chunk := range chunks {
		joined += chunk.Content + " "
	}
	for i := 0; i < words; i++ {
		assert.Contains(t, joined, fmt.Sprintf("word%d", i))
	}
}

func TestSplitSpanishUsesWiderWindows(t *testing.T) {
	splitter := NewSplitter(core.LanguageSpanish)
	assert.Equal(t, ChunkConfig{Size: 460, Overlap: 60}, splitter.Config())
}

func TestSplitRejectsEmptyDocument(t *testing.T) {
	splitter := NewSplitter(core.LanguageEnglish)
	_, err := splitter.Split(textDocument(""))
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}
