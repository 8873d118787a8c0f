package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"DiscountScanner/internal/config"
)

// ProductFields is the raw per-anchor extraction result. Missing fields
// degrade to sentinel values (0 for prices, "" for text) instead of errors.
type ProductFields struct {
	Name          string
	OriginalPrice float64
	DiscountPrice float64
	PromotionTag  string
}

// Extractor captures one retailer's field-extraction convention. The anchor
// selection is an in-memory DOM subtree, so an extraction costs zero browser
// round-trips regardless of how many fields it reads.
type Extractor interface {
	Name() string
	ExtractProduct(anchor *goquery.Selection, fields config.FieldSelectors) ProductFields
}

// Registry keeps a mapping from extractor names to their implementations.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: map[string]Extractor{}}
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[extractor.Name()] = extractor
}

// Resolve returns an extractor by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Extractor, error) {
	if extractor, ok := r.extractors[name]; ok {
		return extractor, nil
	}
	return nil, fmt.Errorf("extractor %s is not registered", name)
}
