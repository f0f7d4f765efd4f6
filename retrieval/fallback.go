package retrieval

import "github.com/seampoint/concierge/core"

// cannedFallbackEntries are the generic passages returned by the terminal
// tier. They live in memory, not in the store, so the chain still produces
// a grounded outcome when the store itself is unreachable.
var cannedFallbackEntries = []*core.KnowledgeItem{
	{
		Id:         core.IDFromContent("fallback-overview"),
		SourceType: core.SourceTypeFAQ,
		Title:      "What is Crewbase?",
		Body: "Crewbase is a team enablement platform that combines a learning " +
			"space, a private community, and guided workflows so growing teams " +
			"can onboard, train, and collaborate in one place.",
		Category: "general",
		Active:   true,
	},
	{
		Id:         core.IDFromContent("fallback-next-steps"),
		SourceType: core.SourceTypeFAQ,
		Title:      "How can I learn more about Crewbase?",
		Body: "The quickest ways to learn more are to ask about pricing, " +
			"onboarding, or integrations, or to book a short intro call with " +
			"the Crewbase team.",
		Category: "general",
		Active:   true,
	},
}

// fallbackResults wraps the canned entries as zero-similarity results.
func fallbackResults() []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(cannedFallbackEntries))
	for _, item := range cannedFallbackEntries {
		results = append(results, &core.SearchResult{Item: item})
	}
	return results
}
