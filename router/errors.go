package router

import "errors"

var (
	// ErrDetectorRequired is returned when a language detector is not provided.
	ErrDetectorRequired = errors.New("language detector required")

	// ErrNoRoutes is returned when the route table is empty.
	ErrNoRoutes = errors.New("at least one route required")

	// ErrMissingDefaultRoute is returned when the route table has no entry
	// for the default language.
	ErrMissingDefaultRoute = errors.New("default language route required")
)
