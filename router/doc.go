// Package router detects the language of a question and selects the
// language-scoped engine and ingestion pipeline that handle the whole turn.
package router
