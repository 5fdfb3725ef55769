package normalizer

import (
	"strings"

	"github.com/tradepost/cardrail/pkg/models"
)

// Sentinel tokens for canonical key segments with no extracted value. Keys
// are always fully formed so they stay comparable across sources.
const (
	SentinelSet     = "unknown_set"
	SentinelName    = "unknown"
	SentinelEdition = "unknown_edition"
	SentinelNumber  = "unknown_number"
	SentinelYear    = "unknown_year"
	SentinelGraded  = "ungraded"
)

// CanonicalKey builds the deterministic dedup identity for a parsed title:
// franchise|set|name|edition|number|year|grading_company|grade. Pure function
// of its input; the same attributes always produce the same key.
func CanonicalKey(attrs models.ParsedAttributes) string {
	franchise := attrs.Franchise
	if franchise == "" {
		franchise = models.Franchise
	}

	parts := []string{
		slug(franchise),
		segment(attrs.SetName, SentinelSet),
		segment(attrs.CardName, SentinelName),
		segment(attrs.Edition, SentinelEdition),
		segment(attrs.CardNumber, SentinelNumber),
		segment(attrs.Year, SentinelYear),
		segment(attrs.GradingCompany, SentinelGraded),
		segment(attrs.Grade, SentinelGraded),
	}

	return strings.Join(parts, "|")
}

func segment(value, sentinel string) string {
	if strings.TrimSpace(value) == "" {
		return sentinel
	}
	return slug(value)
}

func slug(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "_")
}
