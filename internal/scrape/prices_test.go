package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"2.50", 2.50, true},
		{"€2,50", 2.50, true},
		{" 1,99 ", 1.99, true},
		{"€ 12.00", 12.00, true},
		{"0", 0, true},
		{"", 0, false},
		{"gratis", 0, false},
		{"..", 0, false},
	}

	for _, tc := range cases {
		got, ok := ParsePrice(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParsePrice(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if got != tc.want {
			t.Fatalf("ParsePrice(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCombinePrice(t *testing.T) {
	t.Parallel()

	if got, ok := CombinePrice("1", "99"); !ok || got != 1.99 {
		t.Fatalf("CombinePrice(1, 99) = %v, %v", got, ok)
	}
	if got, ok := CombinePrice(" 2 ", ""); !ok || got != 2.00 {
		t.Fatalf("CombinePrice with empty cents = %v, %v", got, ok)
	}
	if _, ok := CombinePrice("", "49"); ok {
		t.Fatalf("CombinePrice without euros should fail")
	}
}

func TestJoinTags(t *testing.T) {
	t.Parallel()

	html := `<a><span class="shield">1+1</span><span class="shield"> free </span><span class="other">x</span></a>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	anchor := doc.Find("a").First()

	if got := JoinTags(anchor, "span.shield"); got != "1+1 free" {
		t.Fatalf("unexpected tag text: %q", got)
	}
	if got := JoinTags(anchor, "span.missing"); got != "" {
		t.Fatalf("absent tag should be empty, got %q", got)
	}
	if got := JoinTags(anchor, ""); got != "" {
		t.Fatalf("empty selector should be empty, got %q", got)
	}
}
