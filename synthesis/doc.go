// Package synthesis assembles the final response for a turn: one
// generation call grounded in the retrieved passages and recent history,
// plus a deterministic, catalog-backed action list.
//
// The package never exposes generation failures. When the model call
// fails or times out, the answer degrades to the best retrieved passage
// verbatim, or a static apology, and the Synthesis carries a Degraded
// flag for observability.
package synthesis
