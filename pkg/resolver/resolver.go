package resolver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/tradepost/cardrail/pkg/models"
)

// Ordered alias lists for the fields that may carry a listing URL or source
// identifier. First match wins.
var urlAliases = []string{"url", "permalink", "href", "link", "debug_url", "view_item_url", "item_web_url"}

var idAliases = []string{"source_listing_id", "listing_id", "id", "item_id", "itemId", "legacy_item_id"}

// trackingParams are query parameters stripped during URL canonicalization so
// differently-decorated URLs resolve to the same listing.
var trackingParams = []string{
	"mkcid", "mkrid", "mkevt", "campid", "toolid", "customid",
	"ssspo", "sssrc", "ssuid", "widget_ver", "media", "amdata", "hash", "epid",
}

// listingURLTemplates synthesize a canonical listing URL from a bare source
// id for marketplaces whose URL layout is known.
var listingURLTemplates = map[string]string{
	"ebay": "https://www.ebay.com/itm/%s",
}

// Resolver validates raw items and settles their source identity: every
// accepted item leaves with a source listing id, and with a URL whenever one
// was present or could be synthesized.
type Resolver struct {
	logger ectologger.Logger
}

func New(logger ectologger.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve classifies one raw item. It returns the resolved item, or an empty
// item plus a skip reason when the item is unusable. Pure and synchronous.
func (r *Resolver) Resolve(marketplace string, item models.RawItem) (models.ResolvedItem, string) {
	rawURL := firstString(item, urlAliases)
	rawID := firstString(item, idAliases)

	if rawURL == "" && rawID == "" {
		return models.ResolvedItem{}, models.SkipReasonNoURLAndNoID
	}

	resolvedURL := ""
	if rawURL != "" {
		resolvedURL = CanonicalizeURL(rawURL)
	}

	if rawID == "" {
		rawID = idFromURL(resolvedURL)
		if rawID == "" {
			return models.ResolvedItem{}, models.SkipReasonNoURLAndNoID
		}
	}

	if resolvedURL == "" {
		if template, ok := listingURLTemplates[strings.ToLower(marketplace)]; ok {
			resolvedURL = fmt.Sprintf(template, rawID)
		}
	}

	resolved := models.ResolvedItem{
		SourceListingID: rawID,
		URL:             resolvedURL,
		Title:           stringField(item, "title"),
		Price:           priceField(item),
		Sold:            boolField(item, "sold"),
		EndedAt:         timeField(item, "ended_at"),
	}

	if currency := stringField(item, "currency"); currency != "" {
		resolved.Currency = &currency
	} else if resolved.Price != nil {
		usd := "USD"
		resolved.Currency = &usd
	}

	return resolved, ""
}

// CanonicalizeURL lowercases scheme and host, drops fragments and tracking
// query parameters, and upgrades bare marketplace hosts to their canonical
// form. Unparseable URLs pass through trimmed.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if parsed.Host == "ebay.com" {
		parsed.Host = "www.ebay.com"
	}
	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}

	query := parsed.Query()
	for key := range query {
		if isTrackingParam(key) {
			query.Del(key)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	for _, param := range trackingParams {
		if lower == param {
			return true
		}
	}
	return false
}

// idFromURL pulls the trailing path segment out of a listing URL.
func idFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	if last == "itm" {
		return ""
	}
	return last
}

// firstString walks the alias list and returns the first usable value,
// formatting numeric identifiers without an exponent.
func firstString(item models.RawItem, aliases []string) string {
	for _, alias := range aliases {
		value, ok := item[alias]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func stringField(item models.RawItem, key string) string {
	value, ok := item[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func boolField(item models.RawItem, key string) bool {
	value, ok := item[key].(bool)
	return ok && value
}

func priceField(item models.RawItem) *float64 {
	value, ok := item["price"]
	if !ok {
		return nil
	}
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(v))
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func timeField(item models.RawItem, key string) *time.Time {
	value, ok := item[key].(string)
	if !ok || value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}
