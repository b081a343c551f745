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

package router

import (
	"log/slog"

	"github.com/pemistahl/lingua-go"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/engine"
	"github.com/poiesic/recall/ingest"
)

// defaultLanguage is the required fallback route key.
const defaultLanguage = core.LanguageEnglish

// Detector classifies question text as English or Spanish.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the supported languages.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Spanish).
			Build(),
	}
}

// Detect returns the language of the text, defaulting to English when the
// detector cannot decide.
func (d *Detector) Detect(text string) core.Language {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return defaultLanguage
	}
	if lang == lingua.Spanish {
		return core.LanguageSpanish
	}
	return defaultLanguage
}

// Route is the full language-scoped resource set handling one turn. A single
// turn never mixes routes.
type Route struct {
	Engine   *engine.Engine
	Pipeline *ingest.Pipeline
}

// Router picks the route for a question by detected language. The table must
// carry an entry for the default language; unknown languages fall back to it.
type Router struct {
	detector *Detector
	routes   map[core.Language]Route
	logger   *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRouter creates a router over a language-keyed route table.
func NewRouter(detector *Detector, routes map[core.Language]Route, opts ...Option) (*Router, error) {
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if len(routes) == 0 {
		return nil, ErrNoRoutes
	}
	if _, ok := routes[defaultLanguage]; !ok {
		return nil, ErrMissingDefaultRoute
	}

	r := &Router{
		detector: detector,
		routes:   routes,
		logger:   slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RouteFor detects the question's language once and returns the matching
// route along with the detected language.
func (r *Router) RouteFor(question string) (core.Language, Route) {
	lang := r.detector.Detect(question)
	route, ok := r.routes[lang]
	if !ok {
		r.logger.Debug("no route for language, using default", "lang", string(lang))
		return defaultLanguage, r.routes[defaultLanguage]
	}
	return lang, route
}

// RouteForLanguage returns the route for an explicit language key, falling
// back to the default entry.
func (r *Router) RouteForLanguage(lang core.Language) Route {
	if route, ok := r.routes[lang]; ok {
		return route
	}
	return r.routes[defaultLanguage]
}

// Languages returns the language keys the router serves.
func (r *Router) Languages() []core.Language {
	langs := make([]core.Language, 0, len(r.routes))
	for lang := range r.routes {
		langs = append(langs, lang)
	}
	return langs
}
