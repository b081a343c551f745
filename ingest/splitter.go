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
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/poiesic/recall/core"
)

// tokenEncoding is the encoder used for all token budgets, so limits are
// measured in model tokens, not characters.
const tokenEncoding = "cl100k_base"

// ChunkConfig holds the token-window budget for one language.
type ChunkConfig struct {
	Size    int // window size in model tokens
	Overlap int // overlap between adjacent windows in model tokens
}

// Spanish runs longer than English for the same content, so its windows
// are wider.
var chunkConfigs = map[core.Language]ChunkConfig{
	core.LanguageEnglish: {Size: 350, Overlap: 50},
	core.LanguageSpanish: {Size: 460, Overlap: 60},
}

// ConfigForLanguage returns the chunking budget for a language, falling back
// to the English configuration for unknown codes.
func ConfigForLanguage(lang core.Language) ChunkConfig {
	if cfg, ok := chunkConfigs[lang]; ok {
		return cfg
	}
	return chunkConfigs[core.LanguageEnglish]
}

// Splitter segments documents into chunks. Markdown documents are first split
// along their heading structure, everything else goes straight into token
// windows.
type Splitter struct {
	config ChunkConfig
	tokens textsplitter.TokenSplitter
}

// NewSplitter creates a splitter configured for the given language.
func NewSplitter(lang core.Language) *Splitter {
	cfg := ConfigForLanguage(lang)
	return &Splitter{
		config: cfg,
		tokens: textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(cfg.Size),
			textsplitter.WithChunkOverlap(cfg.Overlap),
			textsplitter.WithEncodingName(tokenEncoding),
		),
	}
}

// Config returns the token budget this splitter applies.
func (s *Splitter) Config() ChunkConfig {
	return s.config
}

// Split segments a document into chunks by file type. Markdown with headings
// is split by section first; markdown without headings falls back to plain
// token windows over the whole document.
func (s *Splitter) Split(doc *core.Document) ([]core.Chunk, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if doc.Meta.Type == core.FileTypeMarkdown {
		chunks, err := s.splitMarkdown(doc)
		if err != nil {
			return nil, err
		}
		if len(chunks) > 0 {
			return chunks, nil
		}
	}

	return s.splitPlain(doc)
}

func (s *Splitter) splitPlain(doc *core.Document) ([]core.Chunk, error) {
	windows, err := s.tokens.SplitText(doc.Content)
	if err != nil {
		return nil, err
	}

	chunks := make([]core.Chunk, 0, len(windows))
	for _, window := range windows {
		window = strings.TrimSpace(window)
		if window == "" {
			continue
		}
		chunks = append(chunks, s.newChunk(doc, window, ""))
	}
	return chunks, nil
}

// splitMarkdown splits along the heading structure and token-windows each
// section. Windows of a titled section are prefixed with the heading-path
// breadcrumb in "[path]" form. Returns nil when the document has no headings.
func (s *Splitter) splitMarkdown(doc *core.Document) ([]core.Chunk, error) {
	sections := splitSections(doc.Content)
	if len(sections) == 0 {
		return nil, nil
	}

	var chunks []core.Chunk
	for _, sec := range sections {
		windows, err := s.tokens.SplitText(sec.body)
		if err != nil {
			return nil, err
		}
		for _, window := range windows {
			window = strings.TrimSpace(window)
			if window == "" {
				continue
			}
			if sec.path != "" {
				window = fmt.Sprintf("[%s]\n\n%s", sec.path, window)
			}
			chunks = append(chunks, s.newChunk(doc, window, sec.path))
		}
	}
	return chunks, nil
}

// newChunk hashes the exact chunk text, breadcrumb included, because that is
// the text the index stores and the dedup key must match it.
func (s *Splitter) newChunk(doc *core.Document, content, sectionPath string) core.Chunk {
	return core.Chunk{
		Content: content,
		Meta: core.ChunkMeta{
			DocumentMeta: doc.Meta,
			SectionPath:  sectionPath,
			ContentHash:  core.ContentHash(content),
		},
	}
}

// Headings deeper than h3 stay part of the section body.
var headingPattern = regexp.MustCompile(`^(#{1,3})\s+(.+?)\s*$`)

type section struct {
	path string // "h1 > h2 > h3"
	body string
}

// splitSections scans markdown line by line and groups body text under the
// heading path in effect where it appears. Text before the first heading gets
// an empty path. Lines inside fenced code blocks are always body, so a "#"
// shell comment inside a fence never opens a section. Returns nil when no
// h1-h3 heading exists at all.
func splitSections(content string) []section {
	var (
		sections []section
		titles   [3]string
		body     strings.Builder
		seen     bool
		inFence  bool
	)

	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if text == "" {
			return
		}
		sections = append(sections, section{path: headingPath(titles), body: text})
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		match := headingPattern.FindStringSubmatch(line)
		if match == nil || inFence {
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		flush()
		seen = true

		level := len(match[1])
		titles[level-1] = match[2]
		for i := level; i < len(titles); i++ {
			titles[i] = ""
		}
	}
	flush()

	if !seen {
		return nil
	}
	return sections
}

func headingPath(titles [3]string) string {
	var parts []string
	for _, title := range titles {
		if title != "" {
			parts = append(parts, title)
		}
	}
	return strings.Join(parts, " > ")
}
