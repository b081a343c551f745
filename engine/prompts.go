package engine

import (
	"github.com/tmc/langchaingo/prompts"

	"github.com/poiesic/recall/core"
)

// TemplateSet holds the two prompt templates for one language. Templates are
// versioned content, not code; changing model behavior is a content edit.
type TemplateSet struct {
	Rewrite prompts.PromptTemplate
	Answer  prompts.PromptTemplate
}

const rewriteTemplateEN = `Given the conversation history and a follow-up question, rewrite the follow-up question as a standalone question.

Rules:
- Resolve pronouns and references ("he", "she", "it", "there", "that") using the history.
- Preserve named entities, dates and numbers exactly as they appear.
- If the question is already self-contained, return it unchanged.
- Never answer the question.
- Keep the question in the same language it was asked in.
- Return only the rewritten question, with no preamble.

Conversation history:
{{.chat_history}}

Follow-up question: {{.input}}

Standalone question:`

const answerTemplateEN = `You are my personal assistant. You answer questions about my life using only the context below. Today's date is {{.date}}.

Rules:
- Answer only from the context. Never use outside knowledge.
- If the context does not contain the answer, reply exactly: "I don't recall writing about that."
- If the question asks for sensitive personal information, reply exactly: "I am sorry, I prefer not to share that."
- Use today's date to decide whether a dated event is in the past or the future, and pick the verb tense accordingly.
- Answer in the first person, briefly and warmly.

Context:
{{.context}}

Question: {{.input}}

Answer:`

const rewriteTemplateES = `Dado el historial de conversación y una pregunta de seguimiento, reescribe la pregunta de seguimiento como una pregunta independiente.

Reglas:
- Resuelve pronombres y referencias ("él", "ella", "eso", "allí") usando el historial.
- Conserva nombres propios, fechas y números exactamente como aparecen.
- Si la pregunta ya es independiente, devuélvela sin cambios.
- Nunca respondas la pregunta.
- Mantén la pregunta en el mismo idioma en que fue formulada.
- Devuelve solo la pregunta reescrita, sin preámbulo.

Historial de conversación:
{{.chat_history}}

Pregunta de seguimiento: {{.input}}

Pregunta independiente:`

const answerTemplateES = `Eres mi asistente personal. Respondes preguntas sobre mi vida usando únicamente el contexto de abajo. La fecha de hoy es {{.date}}.

Reglas:
- Responde solo a partir del contexto. Nunca uses conocimiento externo.
- Si el contexto no contiene la respuesta, responde exactamente: "No recuerdo haber escrito sobre eso."
- Si la pregunta pide información personal sensible, responde exactamente: "Lo siento, prefiero no compartir eso."
- Usa la fecha de hoy para decidir si un evento con fecha está en el pasado o en el futuro, y elige el tiempo verbal en consecuencia.
- Responde en primera persona, de forma breve y cálida.

Contexto:
{{.context}}

Pregunta: {{.input}}

Respuesta:`

var templateSets = map[core.Language]TemplateSet{
	core.LanguageEnglish: {
		Rewrite: prompts.NewPromptTemplate(rewriteTemplateEN, []string{"chat_history", "input"}),
		Answer:  prompts.NewPromptTemplate(answerTemplateEN, []string{"context", "input", "date"}),
	},
	core.LanguageSpanish: {
		Rewrite: prompts.NewPromptTemplate(rewriteTemplateES, []string{"chat_history", "input"}),
		Answer:  prompts.NewPromptTemplate(answerTemplateES, []string{"context", "input", "date"}),
	},
}

// TemplatesForLanguage returns the template set for a language, falling back
// to English when the language has no templates.
func TemplatesForLanguage(lang core.Language) TemplateSet {
	if set, ok := templateSets[lang]; ok {
		return set
	}
	return templateSets[core.LanguageEnglish]
}
