package entities

import "time"

// InsightCategory names the health domain an insight speaks about.
type InsightCategory string

const (
	InsightCategoryPhysical  InsightCategory = "physical"
	InsightCategorySleep     InsightCategory = "sleep"
	InsightCategoryNutrition InsightCategory = "nutrition"
	InsightCategoryVitals    InsightCategory = "vitals"
	InsightCategoryMental    InsightCategory = "mental"
)

// ValidInsightCategory reports whether c is a known insight category.
func ValidInsightCategory(c InsightCategory) bool {
	switch c {
	case InsightCategoryPhysical, InsightCategorySleep, InsightCategoryNutrition,
		InsightCategoryVitals, InsightCategoryMental:
		return true
	}
	return false
}

// InsightType is the UI severity of an insight.
type InsightType string

const (
	InsightTypeSuccess InsightType = "success"
	InsightTypeWarning InsightType = "warning"
	InsightTypeError   InsightType = "error"
)

// PersonaContext describes the user a persona-scoped insight is written
// for. Persona insights bypass the shared cache.
type PersonaContext struct {
	ID     string   `json:"id"`
	Name   string   `json:"name,omitempty"`
	Tone   string   `json:"tone,omitempty"`
	Traits []string `json:"traits,omitempty"`
}

// InsightRequest asks for an insight over one category's metric readings.
type InsightRequest struct {
	Category InsightCategory    `json:"category"`
	Metrics  map[string]float64 `json:"metrics"`
}

// PersonaInsightRequest asks for an insight tailored to one persona.
type PersonaInsightRequest struct {
	Category InsightCategory    `json:"category"`
	Metrics  map[string]float64 `json:"metrics"`
	Persona  PersonaContext     `json:"persona"`
}

// InsightAction is an optional follow-up the UI can offer with an insight.
type InsightAction struct {
	Label string `json:"label"`
	Route string `json:"route,omitempty"`
}

// HealthInsight is one generated natural-language insight.
type HealthInsight struct {
	ID             string          `json:"id"`
	Type           InsightType     `json:"type"`
	Category       InsightCategory `json:"category"`
	Message        string          `json:"message"`
	Date           time.Time       `json:"date"`
	RelatedMetrics []string        `json:"related_metrics"`
	Source         string          `json:"source"`
	Action         *InsightAction  `json:"action,omitempty"`
}
