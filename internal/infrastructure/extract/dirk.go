package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/scrape"
)

var _ scrape.Extractor = (*DirkExtractor)(nil)

// DirkExtractor reads Dirk offer cards, which render every price as two
// sibling text nodes: a euro part and a cent part.
type DirkExtractor struct {
	logger *slog.Logger
}

// NewDirkExtractor wires the variant with a component logger.
func NewDirkExtractor(logger *slog.Logger) *DirkExtractor {
	return &DirkExtractor{logger: logger}
}

// Name identifies the strategy inside the registry.
func (e *DirkExtractor) Name() string {
	return "dirk"
}

// ExtractProduct reads all fields of one offer card.
func (e *DirkExtractor) ExtractProduct(anchor *goquery.Selection, fields config.FieldSelectors) scrape.ProductFields {
	return scrape.ProductFields{
		Name:          strings.TrimSpace(anchor.Find(fields.Name).First().Text()),
		OriginalPrice: e.splitPrice(anchor, fields.OriginalPrice),
		DiscountPrice: e.splitPrice(anchor, fields.DiscountPrice),
		PromotionTag:  scrape.JoinTags(anchor, fields.PromotionTag),
	}
}

func (e *DirkExtractor) splitPrice(anchor *goquery.Selection, loc config.Locator) float64 {
	euros := anchor.Find(loc.Selector).First().Text()
	cents := anchor.Find(loc.Fraction).First().Text()

	value, ok := scrape.CombinePrice(euros, cents)
	if !ok {
		e.warn("malformed split price", "euros", euros, "cents", cents, "selector", loc.Selector)
	}
	return value
}

func (e *DirkExtractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
