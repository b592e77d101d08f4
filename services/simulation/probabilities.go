package simulation

import "math/rand"

// Probability categories a decision can be classified into
const (
	CategoryCareerRelocation = "career_relocation"
	CategoryEducation        = "education_choices"
	CategoryEntrepreneurship = "entrepreneurship"
	CategoryRelationships    = "relationship_decisions"
	CategoryLifestyle        = "lifestyle_changes"
	CategoryFinancial        = "financial_decisions"
)

// lifeDecisionProbabilities holds real-world outcome probabilities used
// to ground realistic-mode narratives.
var lifeDecisionProbabilities = map[string]map[string]float64{
	CategoryCareerRelocation: {
		"job_satisfaction_increase": 0.67,
		"salary_increase":           0.58,
		"adaptation_success":        0.73,
		"regret_within_2_years":     0.22,
		"career_advancement":        0.61,
		"networking_expansion":      0.84,
	},
	CategoryEducation: {
		"degree_completion":        0.64,
		"employment_in_field":      0.57,
		"positive_roi_5_years":     0.71,
		"career_pivot_success":     0.43,
		"satisfaction_with_choice": 0.68,
	},
	CategoryEntrepreneurship: {
		"business_survival_1_year":  0.80,
		"business_survival_5_years": 0.50,
		"profitability_year_1":      0.40,
		"scale_to_10_employees":     0.23,
		"exit_opportunity":          0.12,
		"personal_fulfillment":      0.76,
	},
	CategoryRelationships: {
		"marriage_success_10_years": 0.67,
		"cohabitation_to_marriage":  0.60,
		"long_distance_survival":    0.42,
		"friendship_maintenance":    0.55,
		"family_approval":           0.73,
	},
	CategoryLifestyle: {
		"habit_formation_success":       0.21,
		"fitness_goal_achievement":      0.33,
		"diet_adherence_6_months":       0.20,
		"meditation_practice_sustained": 0.15,
		"work_life_balance_improvement": 0.48,
	},
	CategoryFinancial: {
		"investment_positive_return": 0.68,
		"debt_payoff_on_schedule":    0.52,
		"emergency_fund_maintained":  0.37,
		"budget_adherence":           0.29,
		"income_increase_from_skill": 0.64,
	},
}

// ProbabilitiesFor returns the outcome probability table for a category
func ProbabilitiesFor(category string) map[string]float64 {
	return lifeDecisionProbabilities[category]
}

// GetProbability returns the probability of an outcome within a category,
// adjusted for the simulation mode. Unknown outcomes default to 0.5.
func GetProbability(category, outcome, mode string) float64 {
	switch mode {
	case "50/50":
		return 0.5
	case "random":
		return 0.1 + rand.Float64()*0.8
	default:
		if probs, ok := lifeDecisionProbabilities[category]; ok {
			if p, ok := probs[outcome]; ok {
				return p
			}
		}
		return 0.5
	}
}
