package rules

// Rule IDs, stable across releases; audit events and metrics key on them.
const (
	RuleSubjectAnalysis   = "subject_analysis"
	RuleInquiringMind     = "inquiring_mind"
	RulePlanningCareer    = "planning_career"
	RuleResearchFunding   = "research_funding"
	RuleTeamCommunication = "team_communication"
	RuleTeachingImpact    = "teaching_impact"
	RuleEnthusiasmInquiry = "enthusiasm_inquiry"
	RuleEthicsEnthusiasm  = "ethics_enthusiasm"
	RuleDomainsOver8      = "domains_over_8"
)

// ruleDefs is the display order of recommendations, not a priority.
func ruleDefs() []Rule {
	return []Rule{
		{
			ID:             RuleSubjectAnalysis,
			Recommendation: "Advanced interdisciplinary FDPs combining subject expertise and cognitive challenges",
			Condition:      All{Above{"A11", 8}, Above{"A21", 7}},
		},
		{
			ID:             RuleInquiringMind,
			Recommendation: "Creative pedagogy, design thinking, gamification workshops",
			Condition:      Above{"A31", 8},
		},
		{
			ID:             RulePlanningCareer,
			Recommendation: "Time management, career progression, leadership skills",
			Condition:      All{Above{"B21", 7}, Above{"B31", 7}},
		},
		{
			ID:             RuleResearchFunding,
			Recommendation: "Research proposal writing, grants & funding management",
			Condition:      Any{Above{"C21", 8}, Above{"C31", 8}},
		},
		{
			ID:             RuleTeamCommunication,
			Recommendation: "Collaboration, communication, stakeholder negotiation",
			Condition:      All{Above{"D11", 8}, Above{"D21", 7}},
		},
		{
			ID:             RuleTeachingImpact,
			Recommendation: "Public engagement, impact creation, industry partnerships",
			Condition:      Above{"D31", 7},
		},
		{
			ID:             RuleEnthusiasmInquiry,
			Recommendation: "Motivation, resilience, innovative teaching FDPs",
			Condition:      All{Above{"B11", 8}, Above{"A31", 7}},
		},
		{
			ID:             RuleEthicsEnthusiasm,
			Recommendation: "Ethics, professional integrity, mentoring workshops",
			Condition:      All{Above{"C11", 8}, Above{"B11", 7}},
		},
		{
			ID:             RuleDomainsOver8,
			Recommendation: "Integrated FDPs covering teaching + research + engagement",
			Condition:      CountAbove{Threshold: 8, Min: 2, Label: "Any two domains > 8"},
		},
	}
}
