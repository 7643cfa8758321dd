package services

import (
	"strings"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/pkg/utils"
)

// enrichAnnotations computes the missing derived annotations for one
// record. Returns nil when nothing needs filling in.
func enrichAnnotations(record *entities.InsightFeedback) *entities.FeedbackAnnotations {
	partial := &entities.FeedbackAnnotations{}
	changed := false

	if record.Annotations.SentimentScore == nil && record.Comment != "" {
		score := utils.AnalyzeSentiment(record.Comment)
		partial.SentimentScore = &score
		changed = true
	}

	if len(record.Annotations.Tags) == 0 && record.Comment != "" {
		if tags := utils.ExtractTags(record.Comment); len(tags) > 0 {
			partial.Tags = tags
			changed = true
		}
	}

	if record.Annotations.ContentQualityMetrics == nil {
		partial.ContentQualityMetrics = defaultQualityMetrics(&record.Insight)
		changed = true
	}

	if !changed {
		return nil
	}
	return partial
}

// defaultQualityMetrics scores the insight text with cheap heuristics:
// short sentences read better, concrete numbers are more specific, and
// mentioning the related metrics keeps the message relevant.
func defaultQualityMetrics(insight *entities.HealthInsight) *entities.ContentQualityMetrics {
	message := insight.Message
	words := strings.Fields(message)

	readability := 1.0
	if len(words) > 40 {
		readability = 0.4
	} else if len(words) > 25 {
		readability = 0.7
	}

	specificity := 0.3
	if strings.ContainsAny(message, "0123456789") {
		specificity = 0.8
	}

	relevance := 0.5
	lowered := strings.ToLower(message)
	for _, metric := range insight.RelatedMetrics {
		if strings.Contains(lowered, strings.ToLower(metric)) {
			relevance = 0.9
			break
		}
	}

	return &entities.ContentQualityMetrics{
		Readability: readability,
		Specificity: specificity,
		Relevance:   relevance,
	}
}
