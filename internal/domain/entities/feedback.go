package entities

import "time"

// FeedbackCategory classifies which aspect of an insight a user rated.
type FeedbackCategory string

const (
	FeedbackCategoryAccuracy      FeedbackCategory = "ACCURACY"
	FeedbackCategoryUsefulness    FeedbackCategory = "USEFULNESS"
	FeedbackCategoryClarity       FeedbackCategory = "CLARITY"
	FeedbackCategoryActionability FeedbackCategory = "ACTIONABILITY"
)

// FeedbackCategories lists every category in a fixed order, used when
// building zeroed breakdowns.
var FeedbackCategories = []FeedbackCategory{
	FeedbackCategoryAccuracy,
	FeedbackCategoryUsefulness,
	FeedbackCategoryClarity,
	FeedbackCategoryActionability,
}

// ValidFeedbackCategory reports whether c is a known feedback category.
func ValidFeedbackCategory(c FeedbackCategory) bool {
	switch c {
	case FeedbackCategoryAccuracy, FeedbackCategoryUsefulness,
		FeedbackCategoryClarity, FeedbackCategoryActionability:
		return true
	}
	return false
}

// FeedbackSource records whether the signal was given deliberately or
// inferred from behaviour.
type FeedbackSource string

const (
	FeedbackSourceExplicit FeedbackSource = "USER_EXPLICIT"
	FeedbackSourceImplicit FeedbackSource = "USER_IMPLICIT"
)

// InteractionContext captures how the user interacted with the insight in
// the UI at the moment feedback was recorded.
type InteractionContext struct {
	ViewTimeMs    float64 `json:"view_time_ms,omitempty"`
	ClickedAction bool    `json:"clicked_action,omitempty"`
	Expanded      bool    `json:"expanded,omitempty"`
	Shared        bool    `json:"shared,omitempty"`
	Surface       string  `json:"surface,omitempty"`
}

// FeedbackMetadata carries submission context. Timestamp is stamped
// server-side; any caller-supplied value is ignored.
type FeedbackMetadata struct {
	Timestamp          time.Time           `json:"timestamp"`
	SessionID          string              `json:"session_id"`
	UserID             string              `json:"user_id"`
	InteractionContext *InteractionContext `json:"interaction_context,omitempty"`
}

// ContentQualityMetrics are heuristic 0..1 scores for the insight text
// itself, computed during enrichment.
type ContentQualityMetrics struct {
	Readability float64 `json:"readability"`
	Specificity float64 `json:"specificity"`
	Relevance   float64 `json:"relevance"`
}

// FeedbackAnnotations hold derived signal attached to a feedback record.
// Updates are additive: existing tags are never removed.
type FeedbackAnnotations struct {
	Tags                  []string               `json:"tags,omitempty"`
	SentimentScore        *float64               `json:"sentiment_score,omitempty"`
	ContentQualityMetrics *ContentQualityMetrics `json:"content_quality_metrics,omitempty"`
}

// InsightFeedback is one user rating of one insight. Created once; only the
// annotations are mutated afterwards, through additive merges.
type InsightFeedback struct {
	ID          string              `json:"id"`
	InsightID   string              `json:"insight_id"`
	Insight     HealthInsight       `json:"insight"`
	Category    FeedbackCategory    `json:"category"`
	Score       int                 `json:"score"`
	Source      FeedbackSource      `json:"source"`
	Comment     string              `json:"comment,omitempty"`
	Metadata    FeedbackMetadata    `json:"metadata"`
	Annotations FeedbackAnnotations `json:"annotations"`
}

// TagCount pairs a tag with how often it appeared.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// FeedbackPerformanceMetrics aggregates interaction behaviour across all
// feedback on one insight.
type FeedbackPerformanceMetrics struct {
	AverageViewTimeMs float64 `json:"average_view_time_ms"`
	ActionClickRate   float64 `json:"action_click_rate"`
	ExpansionRate     float64 `json:"expansion_rate"`
	ShareRate         float64 `json:"share_rate"`
}

// FeedbackStats is the on-demand aggregate over all feedback for one
// insight. All fields are zeroed, never nil, when no feedback exists.
type FeedbackStats struct {
	InsightID          string                     `json:"insight_id"`
	AverageScore       float64                    `json:"average_score"`
	ScoreDistribution  map[int]int                `json:"score_distribution"`
	TotalFeedbackCount int                        `json:"total_feedback_count"`
	CategoryBreakdown  map[FeedbackCategory]int   `json:"category_breakdown"`
	AverageSentiment   float64                    `json:"average_sentiment"`
	TopTags            []TagCount                 `json:"top_tags"`
	PerformanceMetrics FeedbackPerformanceMetrics `json:"performance_metrics"`
}
