package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tradepost/cardrail/pkg/models"
)

var (
	yearPattern    = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)
	numberPattern  = regexp.MustCompile(`\b(\d{1,3})(?:\s*/\s*\d{1,3})?\b`)
	spacePattern   = regexp.MustCompile(`\s+`)
	nonWordPattern = regexp.MustCompile(`[^\w\s]`)
)

// gradeSuffix matches the grade token following a grading-company mention:
// numeric ("9", "9.5", "10") or a word grade ("mint", "gem mint").
const gradeSuffix = `\s*(\d{1,2}(?:\.5)?|gem\s?mint|mint|pristine|authentic)\b`

type variantLookup struct {
	variant   string
	canonical string
}

// flatten expands vocab entries into a variant-ordered lookup list, longest
// variant first so the most specific synonym wins.
func flatten(entries []vocabEntry) []variantLookup {
	var lookups []variantLookup
	for _, entry := range entries {
		for _, variant := range entry.Variants {
			lookups = append(lookups, variantLookup{variant: strings.ToLower(variant), canonical: entry.Canonical})
		}
	}
	sort.SliceStable(lookups, func(i, j int) bool {
		return len(lookups[i].variant) > len(lookups[j].variant)
	})
	return lookups
}

// Parser extracts structured attributes from free-text listing titles using
// the fixed vocabulary tables. It is immutable after construction and safe
// for concurrent use.
type Parser struct {
	sets          []variantLookup
	grading       []variantLookup
	editions      []variantLookup
	gradePatterns map[string]*regexp.Regexp
}

func NewParser() *Parser {
	p := &Parser{
		sets:          flatten(cardSets),
		grading:       flatten(gradingCompanies),
		editions:      flatten(editions),
		gradePatterns: make(map[string]*regexp.Regexp),
	}
	for _, g := range p.grading {
		p.gradePatterns[g.variant] = regexp.MustCompile(regexp.QuoteMeta(g.variant) + gradeSuffix)
	}
	return p
}

// Extract parses a title into attributes. It never fails; attributes with no
// match are left empty. Grading tokens are anchored first and removed before
// card-number extraction so "PSA 9" is not mistaken for a card number.
func (p *Parser) Extract(title string) models.ParsedAttributes {
	attrs := models.ParsedAttributes{Franchise: models.Franchise}
	if title == "" {
		return attrs
	}

	lower := strings.ToLower(title)
	scrubbed := lower

	for _, g := range p.grading {
		idx := strings.Index(lower, g.variant)
		if idx < 0 {
			continue
		}
		attrs.GradingCompany = g.canonical
		if m := p.gradePatterns[g.variant].FindStringSubmatchIndex(lower); m != nil {
			attrs.Grade = lower[m[2]:m[3]]
			scrubbed = lower[:m[0]] + lower[m[1]:]
		} else {
			scrubbed = lower[:idx] + lower[idx+len(g.variant):]
		}
		break
	}

	for _, s := range p.sets {
		if strings.Contains(lower, s.variant) {
			attrs.SetName = s.canonical
			break
		}
	}

	for _, e := range p.editions {
		if strings.Contains(lower, e.variant) {
			attrs.Edition = e.canonical
			break
		}
	}

	if m := yearPattern.FindStringSubmatch(lower); m != nil {
		attrs.Year = m[1]
	}

	if m := numberPattern.FindStringSubmatch(scrubbed); m != nil {
		attrs.CardNumber = m[1]
	}

	for _, indicator := range holoIndicators {
		if strings.Contains(lower, indicator) {
			attrs.IsHolo = true
			break
		}
	}

	attrs.CardName = extractCardName(lower, attrs.SetName)

	return attrs
}

// extractCardName takes the leftover text once set names and filler words are
// stripped out.
func extractCardName(lowerTitle, setName string) string {
	clean := lowerTitle
	if setName != "" {
		clean = strings.ReplaceAll(clean, setName, "")
	}
	for _, word := range commonTitleWords {
		clean = strings.ReplaceAll(clean, word, "")
	}

	clean = spacePattern.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)
	clean = nonWordPattern.ReplaceAllString(clean, "")

	if clean == "" {
		return "unknown"
	}
	return clean
}
