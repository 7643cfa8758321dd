package utils

import (
	"strings"
)

// Lexicons for the comment heuristics. Feedback comments are short and
// informal, so a small keyword lexicon outperforms anything fancier here.
var positiveWords = map[string]struct{}{
	"helpful": {}, "great": {}, "good": {}, "clear": {}, "useful": {},
	"accurate": {}, "love": {}, "excellent": {}, "perfect": {}, "easy": {},
	"actionable": {}, "insightful": {}, "motivating": {}, "relevant": {},
}

var negativeWords = map[string]struct{}{
	"confusing": {}, "wrong": {}, "bad": {}, "useless": {}, "unclear": {},
	"inaccurate": {}, "vague": {}, "misleading": {}, "unhelpful": {},
	"generic": {}, "long": {}, "complicated": {}, "irrelevant": {}, "hate": {},
}

// tagKeywords maps comment vocabulary to canonical feedback tags.
var tagKeywords = map[string]string{
	"confusing":   "unclear",
	"unclear":     "unclear",
	"vague":       "unclear",
	"jargon":      "too-technical",
	"technical":   "too-technical",
	"complicated": "too-technical",
	"long":        "too-long",
	"wordy":       "too-long",
	"short":       "too-short",
	"wrong":       "inaccurate",
	"inaccurate":  "inaccurate",
	"misleading":  "inaccurate",
	"incorrect":   "inaccurate",
	"generic":     "not-personalized",
	"irrelevant":  "not-personalized",
	"helpful":     "helpful",
	"useful":      "helpful",
	"actionable":  "actionable",
	"specific":    "specific",
	"motivating":  "motivating",
}

// AnalyzeSentiment scores a comment in [-1, 1] from the balance of positive
// and negative lexicon hits. Comments with no hits score 0.
func AnalyzeSentiment(comment string) float64 {
	words := tokenize(comment)
	if len(words) == 0 {
		return 0
	}

	var positive, negative int
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			positive++
		}
		if _, ok := negativeWords[w]; ok {
			negative++
		}
	}

	total := positive + negative
	if total == 0 {
		return 0
	}
	return float64(positive-negative) / float64(total)
}

// ExtractTags maps comment vocabulary to canonical tags, deduplicated in
// first-seen order.
func ExtractTags(comment string) []string {
	words := tokenize(comment)
	if len(words) == 0 {
		return nil
	}

	var tags []string
	seen := make(map[string]struct{})
	for _, w := range words {
		tag, ok := tagKeywords[w]
		if !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}
