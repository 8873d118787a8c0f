package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParsePrice converts retailer price text ("2.50", "€2,50", " 1,99 ") to a
// float. Malformed or empty input returns (0, false); it never fails hard
// because one broken price must not abort the rest of the product list.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned = b.String()
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// CombinePrice joins split euro/cent text nodes ("1", "99") into 1.99.
func CombinePrice(euros, cents string) (float64, bool) {
	euros = digitsOnly(euros)
	if euros == "" {
		return 0, false
	}
	cents = digitsOnly(cents)
	if cents == "" {
		cents = "00"
	}
	return ParsePrice(euros + "." + cents)
}

// JoinTags concatenates the text of every matching tag element inside the
// anchor, space-joined and trimmed. Absence yields "" rather than an error.
func JoinTags(anchor *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}

	var parts []string
	anchor.Find(selector).Each(func(_ int, tag *goquery.Selection) {
		if text := strings.TrimSpace(tag.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
