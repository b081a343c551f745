// Package ai defines the capability interfaces for the two LLM-backed
// services the system depends on: text embedding and chat completion.
//
// Concrete implementations live in subpackages (ai/openai for
// OpenAI-compatible APIs, ai/mock for tests). Consumers depend only on the
// interfaces defined here.
package ai
