package normalizer

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/models"
	"github.com/tradepost/cardrail/pkg/tracing"
)

// Normalizer turns raw listing titles into structured attributes, confidence
// scores, and canonical keys. Stateless once constructed.
type Normalizer struct {
	parser *Parser
	logger ectologger.Logger
}

func New(logger ectologger.Logger) *Normalizer {
	return &Normalizer{
		parser: NewParser(),
		logger: logger,
	}
}

// Normalize parses one title and scores it against the presence of price and
// identifier data.
func (n *Normalizer) Normalize(ctx context.Context, req models.NormalizeRequest) models.NormalizeResponse {
	_, span := tracing.StartSpan(ctx, "normalizer.Normalizer.Normalize")
	defer span.End()

	attrs := n.parser.Extract(req.Title)
	confidence := Score(attrs, req.Price != nil, req.ItemID != "")

	return models.NormalizeResponse{
		Attributes:   attrs,
		Confidence:   confidence,
		CanonicalKey: CanonicalKey(attrs),
	}
}

// Extract exposes the parser for callers that only need attributes.
func (n *Normalizer) Extract(title string) models.ParsedAttributes {
	return n.parser.Extract(title)
}
