package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/tmc/langchaingo/documentloaders"

	"github.com/poiesic/recall/core"
)

// fetchTimeout bounds every outbound document fetch.
const fetchTimeout = 10 * time.Second

// listEndpoint is the bucket listing path relative to the API base URL.
const listEndpoint = "/rag-list-docs"

// Loader acquires raw documents for one language, from a local data directory
// and from a remote bucket listing fetched against a CDN base URL. Only files
// whose name starts with the language prefix ("en_", "es_") are considered.
type Loader struct {
	lang    core.Language
	dataDir string
	apiURL  string
	cdnURL  string
	client  *http.Client
	pool    *ants.Pool
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader) error

// WithDataDir sets the local directory scanned during acquisition.
// Empty disables the disk source.
func WithDataDir(dir string) LoaderOption {
	return func(l *Loader) error {
		l.dataDir = dir
		return nil
	}
}

// WithBucket sets the listing API base URL and the CDN base URL used to fetch
// listed files. Empty apiURL disables the remote source.
func WithBucket(apiURL, cdnURL string) LoaderOption {
	return func(l *Loader) error {
		l.apiURL = strings.TrimRight(apiURL, "/")
		l.cdnURL = strings.TrimRight(cdnURL, "/")
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for fetches and listings.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) error {
		if client != nil {
			l.client = client
		}
		return nil
	}
}

// WithFetchPoolSize sets the worker pool size for concurrent remote fetches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithFetchPoolSize(size int) LoaderOption {
	return func(l *Loader) error {
		if size < 1 {
			size = 1
		}
		if l.pool != nil {
			l.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		l.pool = pool
		return nil
	}
}

// WithLoaderLogger sets a custom logger.
// Default is slog.Default().
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a loader for one language.
func NewLoader(lang core.Language, opts ...LoaderOption) (*Loader, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		lang:   lang,
		client: &http.Client{Timeout: fetchTimeout},
		pool:   pool,
		logger: slog.Default().With("component", "loader", "lang", string(lang)),
	}

	for _, opt := range opts {
		if optErr := opt(l); optErr != nil {
			l.Release()
			return nil, optErr
		}
	}

	return l, nil
}

// Acquire merges documents from the local data directory and the remote
// bucket. Failures on individual sources are logged and that source dropped;
// acquisition never fails as a whole.
func (l *Loader) Acquire(ctx context.Context) []core.Document {
	docs := l.loadFromDisk(ctx)
	docs = append(docs, l.loadFromBucket(ctx)...)
	return docs
}

func (l *Loader) loadFromDisk(ctx context.Context) []core.Document {
	if l.dataDir == "" {
		return nil
	}

	entries, err := os.ReadDir(l.dataDir)
	if err != nil {
		l.logger.Warn("data directory unavailable", "dir", l.dataDir, "err", err)
		return nil
	}

	var docs []core.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !l.matchesLanguage(name) {
			continue
		}

		fileType, ok := core.FileTypeFromExt(strings.ToLower(filepath.Ext(name)))
		if !ok {
			l.logger.Warn("skipping unsupported file", "file", name)
			continue
		}

		fullPath := filepath.Join(l.dataDir, name)
		raw, err := os.ReadFile(fullPath)
		if err != nil {
			l.logger.Warn("skipping unreadable file", "file", name, "err", err)
			continue
		}

		doc, err := l.buildDocument(ctx, raw, fullPath, name, fileType)
		if err != nil {
			l.logger.Warn("skipping document", "file", name, "err", err)
			continue
		}
		docs = append(docs, *doc)
	}

	l.logger.Info("loaded documents from disk", "dir", l.dataDir, "documents", len(docs))
	return docs
}

func (l *Loader) loadFromBucket(ctx context.Context) []core.Document {
	names := l.listBucket(ctx)
	if len(names) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		docs []core.Document
		wg   sync.WaitGroup
	)

	for _, name := range names {
		if !l.matchesLanguage(name) {
			continue
		}
		if _, ok := core.FileTypeFromExt(strings.ToLower(filepath.Ext(name))); !ok {
			l.logger.Warn("skipping unsupported bucket file", "file", name)
			continue
		}

		name := name
		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()

			doc, err := l.FetchFromURL(ctx, l.cdnURL+"/"+name)
			if err != nil {
				l.logger.Warn("skipping remote document", "file", name, "err", err)
				return
			}

			mu.Lock()
			docs = append(docs, *doc)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			l.logger.Warn("skipping remote document", "file", name, "err", err)
		}
	}
	wg.Wait()

	l.logger.Info("loaded documents from bucket", "documents", len(docs))
	return docs
}

// listBucket returns the bucket's file names. Any backend failure yields an
// empty list, never an error.
func (l *Loader) listBucket(ctx context.Context) []string {
	if l.apiURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.apiURL+listEndpoint, nil)
	if err != nil {
		l.logger.Warn("error building bucket listing request", "err", err)
		return nil
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn("error listing bucket", "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.logger.Warn("error listing bucket", "status", resp.StatusCode)
		return nil
	}

	var listing struct {
		Files []string `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		l.logger.Warn("error decoding bucket listing", "err", err)
		return nil
	}
	return listing.Files
}

// FetchFromURL acquires a single document over HTTP. Unlike the batch path it
// returns typed errors, so interactive callers can tell an unsupported type
// from a failed fetch. The filename extension decides the type; without one,
// the response content type is consulted, defaulting to plain text.
func (l *Loader) FetchFromURL(ctx context.Context, rawURL string) (*core.Document, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	filename := filenameFromURL(rawURL)
	ext := strings.ToLower(filepath.Ext(filename))

	var fileType core.FileType
	if ext != "" {
		ft, ok := core.FileTypeFromExt(ext)
		if !ok {
			return nil, fmt.Errorf("%q: %w", ext, ErrUnsupportedFileType)
		}
		fileType = ft
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d for %s", ErrFetchFailed, resp.StatusCode, rawURL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if fileType == 0 {
		fileType = typeFromContentType(resp.Header.Get("Content-Type"))
	}

	return l.buildDocument(ctx, raw, rawURL, filename, fileType)
}

// buildDocument decodes raw bytes into a Document. PDF pages are extracted
// individually and joined with blank lines; everything else is UTF-8 text.
func (l *Loader) buildDocument(ctx context.Context, raw []byte, source, filename string, fileType core.FileType) (*core.Document, error) {
	var content string
	switch fileType {
	case core.FileTypePDF:
		text, err := extractPDF(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing pdf %q: %w", source, err)
		}
		content = text
	default:
		content = string(raw)
	}

	doc := &core.Document{
		Content: content,
		Meta: core.DocumentMeta{
			Source:   source,
			Filename: filename,
			Type:     fileType,
			LangHint: l.lang,
		},
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Release releases the fetch worker pool.
// The loader should not be used after calling Release.
func (l *Loader) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}

func (l *Loader) matchesLanguage(filename string) bool {
	return strings.HasPrefix(filename, string(l.lang)+"_")
}

func extractPDF(ctx context.Context, raw []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(raw), int64(len(raw)))
	pages, err := loader.Load(ctx)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		if text := strings.TrimSpace(page.PageContent); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func filenameFromURL(rawURL string) string {
	name := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("document_%d", time.Now().Unix())
	}
	return name
}

func typeFromContentType(contentType string) core.FileType {
	switch {
	case strings.Contains(contentType, "pdf"):
		return core.FileTypePDF
	case strings.Contains(contentType, "markdown"):
		return core.FileTypeMarkdown
	default:
		return core.FileTypeText
	}
}
