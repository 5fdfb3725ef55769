package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/cardrail/pkg/logging"
	"github.com/tradepost/cardrail/pkg/models"
)

func TestParser_Extract(t *testing.T) {
	parser := NewParser()

	t.Run("should extract grading, set, edition and holo from a full title", func(t *testing.T) {
		attrs := parser.Extract("Charizard Base Set Unlimited Holo PSA 9")

		assert.Equal(t, "psa", attrs.GradingCompany)
		assert.Equal(t, "9", attrs.Grade)
		assert.Equal(t, "base set", attrs.SetName)
		assert.Equal(t, "unlimited", attrs.Edition)
		assert.True(t, attrs.IsHolo)
		assert.Equal(t, "charizard psa 9", attrs.CardName)
		assert.Empty(t, attrs.CardNumber)
		assert.Empty(t, attrs.Year)
	})

	t.Run("should not mistake a grade for a card number", func(t *testing.T) {
		attrs := parser.Extract("2021 Pokemon Celebrations Charizard 4/102 PSA 10")

		assert.Equal(t, "psa", attrs.GradingCompany)
		assert.Equal(t, "10", attrs.Grade)
		assert.Equal(t, "celebrations", attrs.SetName)
		assert.Equal(t, "4", attrs.CardNumber)
		assert.Equal(t, "2021", attrs.Year)
		assert.False(t, attrs.IsHolo)
	})

	t.Run("should extract decimal grades", func(t *testing.T) {
		attrs := parser.Extract("Pikachu BGS 9.5 Evolving Skies")

		assert.Equal(t, "bgs", attrs.GradingCompany)
		assert.Equal(t, "9.5", attrs.Grade)
		assert.Equal(t, "evolving skies", attrs.SetName)
	})

	t.Run("should extract word grades", func(t *testing.T) {
		attrs := parser.Extract("Pikachu CGC Mint")

		assert.Equal(t, "cgc", attrs.GradingCompany)
		assert.Equal(t, "mint", attrs.Grade)
	})

	t.Run("should prefer reverse holo over holo", func(t *testing.T) {
		attrs := parser.Extract("Umbreon Reverse Holo")

		assert.Equal(t, "reverse holo", attrs.Edition)
		assert.True(t, attrs.IsHolo)
	})

	t.Run("should leave attributes unset for a bare title", func(t *testing.T) {
		attrs := parser.Extract("Charizard")

		assert.Empty(t, attrs.SetName)
		assert.Empty(t, attrs.Edition)
		assert.Empty(t, attrs.GradingCompany)
		assert.Empty(t, attrs.Grade)
		assert.Empty(t, attrs.CardNumber)
		assert.Empty(t, attrs.Year)
		assert.False(t, attrs.IsHolo)
		assert.Equal(t, "charizard", attrs.CardName)
	})

	t.Run("should not guess novel set names", func(t *testing.T) {
		attrs := parser.Extract("Blastoise Ultra Mega Set")
		assert.Empty(t, attrs.SetName)
	})

	t.Run("should never fail on an empty title", func(t *testing.T) {
		attrs := parser.Extract("")
		assert.Equal(t, models.Franchise, attrs.Franchise)
		assert.False(t, attrs.IsHolo)
	})
}

func TestCanonicalKey(t *testing.T) {
	parser := NewParser()

	t.Run("should be deterministic across repeated calls", func(t *testing.T) {
		attrs := parser.Extract("Charizard Base Set Unlimited Holo PSA 9")
		first := CanonicalKey(attrs)
		for i := 0; i < 50; i++ {
			assert.Equal(t, first, CanonicalKey(attrs))
		}
	})

	t.Run("should build the full key for a rich title", func(t *testing.T) {
		attrs := parser.Extract("Charizard Base Set Unlimited Holo PSA 9")
		key := CanonicalKey(attrs)
		assert.Equal(t, "pokemon|base_set|charizard_psa_9|unlimited|unknown_number|unknown_year|psa|9", key)
	})

	t.Run("should substitute sentinels for missing segments", func(t *testing.T) {
		attrs := parser.Extract("Mystery Item")
		key := CanonicalKey(attrs)
		assert.Equal(t, "pokemon|unknown_set|mystery_item|unknown_edition|unknown_number|unknown_year|ungraded|ungraded", key)
	})

	t.Run("should never produce an empty segment", func(t *testing.T) {
		key := CanonicalKey(models.ParsedAttributes{})
		assert.Equal(t, "pokemon|unknown_set|unknown|unknown_edition|unknown_number|unknown_year|ungraded|ungraded", key)
	})
}

func TestScore(t *testing.T) {
	parser := NewParser()

	t.Run("should rank a fully described title above a bare one", func(t *testing.T) {
		rich := Score(parser.Extract("Charizard Base Set Unlimited Holo PSA 9"), false, false)
		bare := Score(parser.Extract("Charizard"), false, false)

		assert.Greater(t, rich.TitleParse, bare.TitleParse)
		assert.Equal(t, 0.0, bare.TitleParse)
	})

	t.Run("should reward price and identifier presence", func(t *testing.T) {
		attrs := parser.Extract("Charizard")

		both := Score(attrs, true, true)
		one := Score(attrs, true, false)
		neither := Score(attrs, false, false)

		assert.Equal(t, 0.5, both.Overall)
		assert.Equal(t, 0.25, one.Overall)
		assert.Equal(t, 0.0, neither.Overall)
	})

	t.Run("should stay within the unit interval", func(t *testing.T) {
		attrs := parser.Extract("2021 Pokemon Celebrations Charizard 4/102 Holo 1st Edition PSA 10")
		score := Score(attrs, true, true)

		assert.GreaterOrEqual(t, score.TitleParse, 0.0)
		assert.LessOrEqual(t, score.TitleParse, 1.0)
		assert.GreaterOrEqual(t, score.Overall, 0.0)
		assert.LessOrEqual(t, score.Overall, 1.0)
	})
}

func TestNormalizer_Normalize(t *testing.T) {
	n := New(logging.NewNop())

	t.Run("should return attributes, confidence and key together", func(t *testing.T) {
		price := 42.5
		resp := n.Normalize(context.Background(), models.NormalizeRequest{
			Title:  "Charizard Base Set Unlimited Holo PSA 9",
			Price:  &price,
			ItemID: "306444665735",
		})

		require.NotEmpty(t, resp.CanonicalKey)
		assert.Equal(t, "base set", resp.Attributes.SetName)
		assert.Equal(t, 0.8, resp.Confidence.TitleParse)
		assert.Equal(t, 0.9, resp.Confidence.Overall)
	})
}
