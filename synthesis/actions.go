package synthesis

import (
	"strings"

	"github.com/seampoint/concierge/core"
)

// questionIntent is a coarse topic signal detected from the question text.
type questionIntent int

const (
	intentGeneric questionIntent = iota
	intentPricing
	intentTraining
)

var intentTokens = map[questionIntent][]string{
	intentPricing:  {"cost", "price", "pricing", "fee", "money", "budget"},
	intentTraining: {"training", "train", "learning", "course", "onboarding"},
}

func detectIntent(question string) questionIntent {
	lowered := strings.ToLower(question)
	for _, intent := range []questionIntent{intentPricing, intentTraining} {
		for _, token := range intentTokens[intent] {
			if strings.Contains(lowered, token) {
				return intent
			}
		}
	}
	return intentGeneric
}

// maxActionsPerTurn caps the action list surfaced with one answer.
const maxActionsPerTurn = 3

// selectActionKinds derives the ranked action candidates for one turn.
// Selection is fully deterministic: topic keywords pick the base list,
// engaged and deepened sessions get calendar first, and deepened sessions
// never repeat an action offered on the immediately preceding turn.
func selectActionKinds(question string, session *core.Session) []core.ActionKind {
	var candidates []core.ActionKind
	switch detectIntent(question) {
	case intentPricing:
		candidates = []core.ActionKind{core.ActionQuestions, core.ActionCalendar}
	case intentTraining:
		candidates = []core.ActionKind{core.ActionProcessAnalysis, core.ActionResearch, core.ActionQuestions}
	default:
		candidates = []core.ActionKind{core.ActionSolutionPreview, core.ActionQuestions, core.ActionProcessAnalysis}
	}

	if session.Stage == core.StageEngaged || session.Stage == core.StageDeepened {
		candidates = promoteCalendar(candidates)
	}
	if session.Stage == core.StageDeepened {
		candidates = dropJustOffered(candidates, session.LastActions)
	}

	if len(candidates) > maxActionsPerTurn {
		candidates = candidates[:maxActionsPerTurn]
	}
	return candidates
}

// promoteCalendar moves calendar to the front, adding it when absent.
func promoteCalendar(kinds []core.ActionKind) []core.ActionKind {
	out := []core.ActionKind{core.ActionCalendar}
	for _, k := range kinds {
		if k != core.ActionCalendar {
			out = append(out, k)
		}
	}
	return out
}

// dropJustOffered removes kinds offered on the previous turn. When the
// filter would empty the list entirely, it backfills from the catalog so
// a turn never surfaces zero actions.
func dropJustOffered(kinds []core.ActionKind, last []core.ActionKind) []core.ActionKind {
	lastSet := make(map[core.ActionKind]bool, len(last))
	for _, k := range last {
		lastSet[k] = true
	}

	out := make([]core.ActionKind, 0, len(kinds))
	for _, k := range kinds {
		if !lastSet[k] {
			out = append(out, k)
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, k := range core.AllActionKinds() {
		if !lastSet[k] {
			out = append(out, k)
		}
	}
	return out
}
