package normalizer

import "github.com/tradepost/cardrail/pkg/models"

// Slot weights for the title-parse score. Grading slots carry double weight
// since a slabbed grade pins identity harder than cosmetic attributes.
const (
	weightSet     = 2
	weightCompany = 2
	weightGrade   = 2
	weightEdition = 1
	weightNumber  = 1
	weightYear    = 1
	weightHolo    = 1

	totalWeight = weightSet + weightCompany + weightGrade + weightEdition + weightNumber + weightYear + weightHolo
)

// Score computes the confidence pair for a parsed title. TitleParse is the
// weighted fraction of filled attribute slots. Overall averages TitleParse
// with a presence score over the fields needed to persist the item: 1.0 when
// both price and identifier are present, 0.5 for one, 0.0 for neither.
func Score(attrs models.ParsedAttributes, hasPrice, hasIdentifier bool) models.ConfidenceScore {
	filled := 0
	if attrs.SetName != "" {
		filled += weightSet
	}
	if attrs.GradingCompany != "" {
		filled += weightCompany
	}
	if attrs.Grade != "" {
		filled += weightGrade
	}
	if attrs.Edition != "" {
		filled += weightEdition
	}
	if attrs.CardNumber != "" {
		filled += weightNumber
	}
	if attrs.Year != "" {
		filled += weightYear
	}
	if attrs.IsHolo {
		filled += weightHolo
	}

	titleParse := float64(filled) / float64(totalWeight)

	presence := 0.0
	if hasPrice {
		presence += 0.5
	}
	if hasIdentifier {
		presence += 0.5
	}

	return models.ConfidenceScore{
		TitleParse: titleParse,
		Overall:    (titleParse + presence) / 2,
	}
}
