package retrieval

// keywordRule maps trigger tokens to a corpus category. Rules are matched
// in declaration order; the first rule with any matching token wins.
type keywordRule struct {
	category string
	tokens   []string
}

// The rule table is fixed. Tokens are compared against the filtered,
// lowercased words of the question, so "Pricing?" matches "pricing".
var keywordRules = []keywordRule{
	{category: "pricing", tokens: []string{"cost", "price", "pricing", "money", "fee"}},
	{category: "platform", tokens: []string{"lms", "community", "platform", "type"}},
	{category: "workflow", tokens: []string{"different", "current", "process", "improve", "workflow"}},
	{category: "onboarding", tokens: []string{"start", "started", "implementation", "setup", "demo"}},
	{category: "integrations", tokens: []string{"integrate", "integration", "slack", "teams"}},
	{category: "security", tokens: []string{"secure", "security", "sso", "encryption"}},
	{category: "trial", tokens: []string{"trial", "free"}},
}

// matchCategory runs the query through the keyword rule table.
// Returns the matched category and true, or "" and false when no rule fires.
func matchCategory(query string) (string, bool) {
	words := tokenizeAndFilter(query)
	if len(words) == 0 {
		return "", false
	}

	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}

	for _, rule := range keywordRules {
		for _, token := range rule.tokens {
			if wordSet[token] {
				return rule.category, true
			}
		}
	}

	return "", false
}
