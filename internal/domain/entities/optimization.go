package entities

// ChangeType says how a suggested prompt change should be applied.
type ChangeType string

const (
	ChangeTypeAdd    ChangeType = "ADD"
	ChangeTypeRemove ChangeType = "REMOVE"
	ChangeTypeModify ChangeType = "MODIFY"
)

// SuggestedChange is one concrete edit a strategy proposes for a prompt
// template. Impact is the strategy's 0..1 estimate of how much the change
// would move the affected scores.
type SuggestedChange struct {
	Type       ChangeType `json:"type"`
	Target     string     `json:"target"`
	Suggestion string     `json:"suggestion"`
	Reason     string     `json:"reason"`
	Impact     float64    `json:"impact"`
}

// OptimizationMetadata explains what a proposal was computed from.
type OptimizationMetadata struct {
	BaselineScore       float64            `json:"baseline_score"`
	ExpectedImprovement float64            `json:"expected_improvement"`
	AffectedCategories  []FeedbackCategory `json:"affected_categories"`
	DataPoints          int                `json:"data_points"`
}

// PromptOptimization is the confidence-scored output of one strategy.
// Advisory only: applying it to prompt templates is an external concern.
type PromptOptimization struct {
	Strategy         string               `json:"strategy"`
	Confidence       float64              `json:"confidence"`
	SuggestedChanges []SuggestedChange    `json:"suggested_changes"`
	Metadata         OptimizationMetadata `json:"metadata"`
}
