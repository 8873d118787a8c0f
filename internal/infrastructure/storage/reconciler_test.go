package storage

import (
	"testing"

	"DiscountScanner/internal/domain"
)

func TestDedupeByName(t *testing.T) {
	t.Parallel()

	records := []domain.ProductDiscountRecord{
		{Name: "Apples", DiscountPrice: 1.99},
		{Name: "Pears", DiscountPrice: 2.25},
		{Name: "Apples", DiscountPrice: 0.99},
	}

	deduped := dedupeByName(records)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 records, got %d", len(deduped))
	}
	if deduped[0].Name != "Apples" || deduped[0].DiscountPrice != 1.99 {
		t.Fatalf("first occurrence should win: %+v", deduped[0])
	}
	if deduped[1].Name != "Pears" {
		t.Fatalf("unexpected second record: %+v", deduped[1])
	}
}

func TestDedupeByNameEmpty(t *testing.T) {
	t.Parallel()

	if got := dedupeByName(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
