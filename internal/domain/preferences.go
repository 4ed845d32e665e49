package domain

const (
	DefaultRelation = "Friend"
	DefaultOccasion = "General"
	DefaultBudget   = "Any"
)

// UserPreferences is the gifter's context collected by the wizard.
type UserPreferences struct {
	Username       string   `json:"username"`
	Relation       string   `json:"relation,omitempty"`
	Occasion       string   `json:"occasion,omitempty"`
	Budget         string   `json:"budget,omitempty"`
	ExtraInfo      string   `json:"extraInfo,omitempty"`
	JobID          string   `json:"jobId,omitempty"`
	KnownInterests []string `json:"knownInterests,omitempty"`
}

func (p UserPreferences) RelationOrDefault() string {
	return orDefault(p.Relation, DefaultRelation)
}

func (p UserPreferences) OccasionOrDefault() string {
	return orDefault(p.Occasion, DefaultOccasion)
}

func (p UserPreferences) BudgetOrDefault() string {
	return orDefault(p.Budget, DefaultBudget)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
