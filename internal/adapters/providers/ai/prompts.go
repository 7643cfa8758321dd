package ai

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

const insightSystemPrompt = `You are a health coach writing one short insight for a consumer health-tracking app. Respond with 1-2 plain sentences about the user's metrics for the given category. Be encouraging and specific to the numbers provided. Use simple language, no medical advice, no diagnosis, no emoji.`

func buildInsightUserPrompt(category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\nMetrics:\n", category)

	for _, name := range sortedMetricNames(metrics) {
		fmt.Fprintf(&sb, "- %s: %s\n", name, strconv.FormatFloat(metrics[name], 'f', -1, 64))
	}

	if persona != nil {
		fmt.Fprintf(&sb, "Write for this user: %s.", persona.Name)
		if persona.Tone != "" {
			fmt.Fprintf(&sb, " Preferred tone: %s.", persona.Tone)
		}
		if len(persona.Traits) > 0 {
			fmt.Fprintf(&sb, " Traits: %s.", strings.Join(persona.Traits, ", "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedMetricNames(metrics map[string]float64) []string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
