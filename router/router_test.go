package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/core"
)

func TestDetect(t *testing.T) {
	detector := NewDetector()

	assert.Equal(t, core.LanguageEnglish, detector.Detect("Where do I work these days?"))
	assert.Equal(t, core.LanguageSpanish, detector.Detect("¿Dónde trabajo actualmente y desde cuándo?"))
	// Undecidable input falls back to English
	assert.Equal(t, core.LanguageEnglish, detector.Detect(""))
}

func TestNewRouterValidation(t *testing.T) {
	detector := NewDetector()

	_, err := NewRouter(nil, map[core.Language]Route{core.LanguageEnglish: {}})
	assert.ErrorIs(t, err, ErrDetectorRequired)

	_, err = NewRouter(detector, nil)
	assert.ErrorIs(t, err, ErrNoRoutes)

	// The default language entry is mandatory
	_, err = NewRouter(detector, map[core.Language]Route{core.LanguageSpanish: {}})
	assert.ErrorIs(t, err, ErrMissingDefaultRoute)
}

func TestRouteFor(t *testing.T) {
	routes := map[core.Language]Route{
		core.LanguageEnglish: {},
		core.LanguageSpanish: {},
	}
	router, err := NewRouter(NewDetector(), routes)
	require.NoError(t, err)

	lang, _ := router.RouteFor("¿Dónde vive mi hermana y a qué se dedica?")
	assert.Equal(t, core.LanguageSpanish, lang)

	lang, _ = router.RouteFor("Where does my sister live?")
	assert.Equal(t, core.LanguageEnglish, lang)
}

func TestRouteForLanguageFallback(t *testing.T) {
	router, err := NewRouter(NewDetector(), map[core.Language]Route{
		core.LanguageEnglish: {},
	})
	require.NoError(t, err)

	// Unknown language keys route to the default entry
	assert.Equal(t, router.RouteForLanguage(core.LanguageEnglish),
		router.RouteForLanguage(core.Language("fr")))
	assert.Len(t, router.Languages(), 1)
}
