package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/scrape"
)

var _ scrape.Extractor = (*AhExtractor)(nil)

// AhExtractor reads Albert Heijn bonus cards. AH encodes both prices as
// float strings in data attributes on the price element, so extraction is
// an attribute read rather than text parsing.
type AhExtractor struct {
	logger *slog.Logger
}

// NewAhExtractor wires the variant with a component logger.
func NewAhExtractor(logger *slog.Logger) *AhExtractor {
	return &AhExtractor{logger: logger}
}

// Name identifies the strategy inside the registry.
func (e *AhExtractor) Name() string {
	return "ah"
}

// ExtractProduct reads all fields of one bonus card.
func (e *AhExtractor) ExtractProduct(anchor *goquery.Selection, fields config.FieldSelectors) scrape.ProductFields {
	return scrape.ProductFields{
		Name:          strings.TrimSpace(anchor.Find(fields.Name).First().Text()),
		OriginalPrice: e.attributePrice(anchor, fields.OriginalPrice),
		DiscountPrice: e.attributePrice(anchor, fields.DiscountPrice),
		PromotionTag:  scrape.JoinTags(anchor, fields.PromotionTag),
	}
}

func (e *AhExtractor) attributePrice(anchor *goquery.Selection, loc config.Locator) float64 {
	raw, ok := anchor.Find(loc.Selector).First().Attr(loc.Attribute)
	if !ok {
		e.warn("price attribute missing", "selector", loc.Selector, "attribute", loc.Attribute)
		return 0
	}

	value, ok := scrape.ParsePrice(raw)
	if !ok {
		e.warn("malformed price attribute", "value", raw, "attribute", loc.Attribute)
	}
	return value
}

func (e *AhExtractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
