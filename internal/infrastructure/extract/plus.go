package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DiscountScanner/internal/config"
	"DiscountScanner/internal/scrape"
)

var _ scrape.Extractor = (*PlusExtractor)(nil)

// PlusExtractor reads PLUS promotion tiles. PLUS spreads one price over
// several inline text nodes ("2", ".", "49"), so the matched nodes are
// concatenated before parsing.
type PlusExtractor struct {
	logger *slog.Logger
}

// NewPlusExtractor wires the variant with a component logger.
func NewPlusExtractor(logger *slog.Logger) *PlusExtractor {
	return &PlusExtractor{logger: logger}
}

// Name identifies the strategy inside the registry.
func (e *PlusExtractor) Name() string {
	return "plus"
}

// ExtractProduct reads all fields of one promotion tile.
func (e *PlusExtractor) ExtractProduct(anchor *goquery.Selection, fields config.FieldSelectors) scrape.ProductFields {
	return scrape.ProductFields{
		Name:          strings.TrimSpace(anchor.Find(fields.Name).First().Text()),
		OriginalPrice: e.concatenatedPrice(anchor, fields.OriginalPrice),
		DiscountPrice: e.concatenatedPrice(anchor, fields.DiscountPrice),
		PromotionTag:  scrape.JoinTags(anchor, fields.PromotionTag),
	}
}

func (e *PlusExtractor) concatenatedPrice(anchor *goquery.Selection, loc config.Locator) float64 {
	var b strings.Builder
	anchor.Find(loc.Selector).Each(func(_ int, node *goquery.Selection) {
		b.WriteString(strings.TrimSpace(node.Text()))
	})

	value, ok := scrape.ParsePrice(b.String())
	if !ok {
		e.warn("malformed concatenated price", "value", b.String(), "selector", loc.Selector)
	}
	return value
}

func (e *PlusExtractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
