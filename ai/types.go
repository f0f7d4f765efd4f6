package ai

// Snippet is one piece of retrieved knowledge handed to the generator as
// grounding material.
type Snippet struct {
	// Title is the snippet headline, typically an FAQ question or a
	// document section title.
	Title string

	// Body is the snippet content the answer must be grounded in.
	Body string
}

// HistoryTurn is one prior message of the conversation, included so the
// generator can keep answers coherent across turns.
type HistoryTurn struct {
	// Role is "user" or "assistant".
	Role string

	// Text is the message content.
	Text string
}

// GenerationRequest carries everything the generator needs for one answer.
type GenerationRequest struct {
	// Question is the visitor's current question, verbatim.
	Question string

	// Snippets is the retrieved grounding material, best match first.
	Snippets []Snippet

	// History is the recent conversation window, oldest first.
	History []HistoryTurn
}
