package listing

import (
	"time"

	"github.com/tradepost/cardrail/pkg/database"
	"github.com/tradepost/cardrail/pkg/models"
)

// dao maps a listings row. The parsed column is jsonb.
type dao struct {
	ID              string                                  `db:"id"`
	CardID          string                                  `db:"card_id"`
	SourceListingID string                                  `db:"source_listing_id"`
	Title           string                                  `db:"title"`
	URL             string                                  `db:"url"`
	Price           *float64                                `db:"price"`
	Currency        *string                                 `db:"currency"`
	Sold            bool                                    `db:"sold"`
	EndedAt         *time.Time                              `db:"ended_at"`
	CanonicalKey    string                                  `db:"canonical_key"`
	Parsed          database.JSONB[models.ParsedAttributes] `db:"parsed"`
	TitleConfidence float64                                 `db:"title_confidence"`
	Confidence      float64                                 `db:"confidence"`
	CreatedAt       time.Time                               `db:"created_at"`
}

func (d dao) toModel() models.Listing {
	return models.Listing{
		ID:              d.ID,
		CardID:          d.CardID,
		SourceListingID: d.SourceListingID,
		Title:           d.Title,
		URL:             d.URL,
		Price:           d.Price,
		Currency:        d.Currency,
		Sold:            d.Sold,
		EndedAt:         d.EndedAt,
		CanonicalKey:    d.CanonicalKey,
		Parsed:          d.Parsed.Data,
		TitleConfidence: d.TitleConfidence,
		Confidence:      d.Confidence,
		CreatedAt:       d.CreatedAt,
	}
}
