// Package engine answers questions over the indexed corpus. Each question
// runs a strict linear chain per thread: rewrite against conversation
// history, retrieve similar chunks, generate a grounded answer, record the
// turn. Prompt templates live here as versioned per-language content.
package engine
