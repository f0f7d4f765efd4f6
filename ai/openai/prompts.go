package openai

import (
	"fmt"
	"strings"

	"github.com/seampoint/concierge/ai"
)

const answerResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "answer": {
      "type": "string",
      "minLength": 1
    }
  },
  "required": ["answer"],
  "additionalProperties": false
}`

const answerPromptTemplate = `You are the product assistant for Crewbase, a work management platform.
Answer the visitor's question using ONLY the reference material below.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Ground every claim in the reference material. Do not invent features, prices, or dates.
- If the reference material does not cover the question, say so briefly and suggest what you can help with instead.
- Keep the answer under 120 words, conversational, and free of marketing fluff.
- Never suggest next steps, links, or buttons; those are added separately.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Reference material:
%s`

// maxSnippetChars bounds how much of each snippet body is embedded in the
// prompt so one long document chunk cannot crowd out the rest.
const maxSnippetChars = 800

// buildSystemPrompt creates the system prompt with grounding snippets embedded.
func buildSystemPrompt(snippets []ai.Snippet) string {
	var sb strings.Builder
	if len(snippets) == 0 {
		sb.WriteString("(no reference material was found for this question)")
	}
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n%s", i+1, s.Title, truncateText(s.Body, maxSnippetChars))
	}
	return fmt.Sprintf(answerPromptTemplate, answerResponseSchema, sb.String())
}
