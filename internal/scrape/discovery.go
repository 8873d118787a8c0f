package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Category is one discovered category section: its sanitized display name
// and the product anchors found inside it, in DOM order. The name is read
// once here and threaded through every extraction for the section, instead
// of re-querying the heading per product.
type Category struct {
	Name    string
	Anchors []*goquery.Selection
}

// DiscoverCategory resolves a category container inside the rendered
// document and enumerates its product anchors. A selector matching nothing
// is an error for the caller to log and skip; it never aborts the run.
func DiscoverCategory(doc *goquery.Document, containerSelector, productSelector string) (Category, error) {
	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return Category{}, fmt.Errorf("category selector %q matched nothing", containerSelector)
	}

	name := SanitizeCategoryName(container.Find("h2, h3").First().Text())

	var anchors []*goquery.Selection
	container.Find(productSelector).Each(func(_ int, anchor *goquery.Selection) {
		anchors = append(anchors, anchor)
	})

	return Category{Name: name, Anchors: anchors}, nil
}

// SanitizeCategoryName normalizes a category heading: commas stripped,
// leading "& " markers collapsed, whitespace trimmed.
func SanitizeCategoryName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.ReplaceAll(name, ",", "")
	for strings.HasPrefix(name, "& ") {
		name = strings.TrimSpace(strings.TrimPrefix(name, "& "))
	}
	return name
}
