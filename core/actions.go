package core

// ActionKind identifies one of the fixed set of suggested next steps the
// engine may attach to an answer. The set is closed: synthesis selects
// from this catalog and never invents new kinds.
type ActionKind int

const (
	// ActionCalendar offers booking a call with the team.
	ActionCalendar ActionKind = iota + 1
	// ActionSolutionPreview offers a tailored walkthrough of the product.
	ActionSolutionPreview
	// ActionProcessAnalysis offers an analysis of the visitor's current workflow.
	ActionProcessAnalysis
	// ActionResearch offers relevant case studies and research material.
	ActionResearch
	// ActionQuestions invites the visitor to keep asking questions.
	ActionQuestions
)

func (k ActionKind) String() string {
	switch k {
	case ActionCalendar:
		return "calendar"
	case ActionSolutionPreview:
		return "solution_preview"
	case ActionProcessAnalysis:
		return "process_analysis"
	case ActionResearch:
		return "research"
	case ActionQuestions:
		return "questions"
	default:
		return "unknown"
	}
}

// ParseActionKind maps a stored kind name back to its ActionKind.
// Unknown names return zero and false.
func ParseActionKind(name string) (ActionKind, bool) {
	switch name {
	case "calendar":
		return ActionCalendar, true
	case "solution_preview":
		return ActionSolutionPreview, true
	case "process_analysis":
		return ActionProcessAnalysis, true
	case "research":
		return ActionResearch, true
	case "questions":
		return ActionQuestions, true
	default:
		return 0, false
	}
}

// Action is a suggested next step presented alongside an answer.
// Label and Description come from the fixed catalog keyed by Kind.
type Action struct {
	Kind        ActionKind
	Label       string
	Description string
}

// actionCatalog holds the fixed presentation text for each action kind.
var actionCatalog = map[ActionKind]Action{
	ActionCalendar: {
		Kind:        ActionCalendar,
		Label:       "Book a call",
		Description: "Schedule a 30-minute call with our team to talk through your rollout.",
	},
	ActionSolutionPreview: {
		Kind:        ActionSolutionPreview,
		Label:       "See a tailored preview",
		Description: "Get a walkthrough of Crewbase configured for a team like yours.",
	},
	ActionProcessAnalysis: {
		Kind:        ActionProcessAnalysis,
		Label:       "Analyze your process",
		Description: "Share how your team works today and get a gap analysis back.",
	},
	ActionResearch: {
		Kind:        ActionResearch,
		Label:       "Read the research",
		Description: "Case studies and benchmarks from teams already on Crewbase.",
	},
	ActionQuestions: {
		Kind:        ActionQuestions,
		Label:       "Keep asking",
		Description: "Ask anything else about pricing, setup, or integrations.",
	},
}

// ActionFor returns the catalog entry for a kind.
// Unknown kinds return a zero Action and false.
func ActionFor(kind ActionKind) (Action, bool) {
	a, ok := actionCatalog[kind]
	return a, ok
}

// AllActionKinds returns the catalog kinds in stable declaration order.
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionCalendar,
		ActionSolutionPreview,
		ActionProcessAnalysis,
		ActionResearch,
		ActionQuestions,
	}
}
