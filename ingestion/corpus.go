package ingestion

import "github.com/seampoint/concierge/core"

// DefaultCorpus is the built-in Crewbase FAQ and document set used to
// seed a fresh store. Every keyword category has at least one entry so
// the keyword tier always has something to serve.
func DefaultCorpus() []Entry {
	return []Entry{
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "How much does Crewbase cost?",
			Body:       "Crewbase plans start at $29 per seat per month on the Team plan. The Business plan adds SSO, advanced reporting, and priority support at $49 per seat. Annual billing saves 20%.",
			Category:   "pricing",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "Is there a setup fee?",
			Body:       "No. There are no setup fees or hidden charges on any plan, and you can change plans or cancel at any time.",
			Category:   "pricing",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "What type of platform is Crewbase?",
			Body:       "Crewbase is a work management platform that combines task tracking, shared docs, and team rituals in one place. It is not an LMS or a chat tool, though it connects to both.",
			Category:   "platform",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "How is Crewbase different from what we use today?",
			Body:       "Most teams arrive from a mix of spreadsheets and chat threads. Crewbase maps your current process first, then replaces the hand-offs that lose work, rather than forcing a new methodology on day one.",
			Category:   "workflow",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "How do we get started?",
			Body:       "Getting started takes under an hour: connect your tools, import open work, and invite the team. Guided implementation is included on every plan, and a live demo can be scheduled anytime.",
			Category:   "onboarding",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "Does Crewbase integrate with Slack and Teams?",
			Body:       "Yes. Native integrations cover Slack, Microsoft Teams, Google Workspace, GitHub, and Jira, plus a REST API and webhooks for anything custom.",
			Category:   "integrations",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "How is my data secured?",
			Body:       "Crewbase is SOC 2 Type II certified. Data is encrypted in transit and at rest, SSO and SCIM provisioning are available on the Business plan, and workspaces are isolated per customer.",
			Category:   "security",
		},
		{
			SourceType: core.SourceTypeFAQ,
			Title:      "Can I try Crewbase for free?",
			Body:       "Every workspace starts with a 14-day free trial of the Business plan, no credit card required. At the end of the trial you pick a plan or drop to the free tier for small teams.",
			Category:   "trial",
		},
		{
			SourceType: core.SourceTypeDocument,
			Title:      "Admin guide: provisioning",
			Body:       "User provisioning is handled through SCIM. Connect your identity provider, map groups to Crewbase teams, and members are created and deactivated automatically as your directory changes.",
		},
		{
			SourceType: core.SourceTypeDocument,
			Title:      "Admin guide: data export",
			Body:       "Workspace admins can export all tasks, docs, and comments as JSON or CSV from the settings page. Exports are generated asynchronously and delivered as a download link.",
		},
	}
}
