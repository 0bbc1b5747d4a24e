package checkout

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func strPtr(v string) *string { return &v }

func sampleItems() []ItemRequest {
	return []ItemRequest{
		{ID: "line-1", ProductID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Quantity: 1},
		{ID: "line-2", ProductID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Quantity: 2,
			Variant: &VariantSelector{AgeGroup: "Adult", Gender: "Unisex", Size: "m", Color: strPtr("black")}},
		{ID: "line-3", ProductID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Quantity: 3},
	}
}

func TestIdempotencyKeyLength(t *testing.T) {
	key := IdempotencyKey("a@b.com", sampleItems(), enums.DestinationDomestic)
	if len(key) != 32 {
		t.Fatalf("expected 32 hex chars, got %d (%s)", len(key), key)
	}
}

func TestIdempotencyKeyPermutationInvariant(t *testing.T) {
	items := sampleItems()
	base := IdempotencyKey("a@b.com", items, enums.DestinationDomestic)

	permutations := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range permutations {
		shuffled := []ItemRequest{items[perm[0]], items[perm[1]], items[perm[2]]}
		if got := IdempotencyKey("a@b.com", shuffled, enums.DestinationDomestic); got != base {
			t.Fatalf("permutation %v changed key: %s vs %s", perm, got, base)
		}
	}
}

func TestIdempotencyKeyNormalizesEmailAndVariant(t *testing.T) {
	base := IdempotencyKey("a@b.com", sampleItems(), enums.DestinationDomestic)

	items := sampleItems()
	items[1].Variant = &VariantSelector{AgeGroup: " adult", Gender: "UNISEX", Size: "M ", Color: strPtr("Black")}
	if got := IdempotencyKey("  A@B.com ", items, enums.DestinationDomestic); got != base {
		t.Fatalf("case and whitespace should not change key: %s vs %s", got, base)
	}
}

func TestIdempotencyKeySensitivity(t *testing.T) {
	base := IdempotencyKey("a@b.com", sampleItems(), enums.DestinationDomestic)

	mutations := map[string]func() string{
		"email": func() string {
			return IdempotencyKey("c@b.com", sampleItems(), enums.DestinationDomestic)
		},
		"destination": func() string {
			return IdempotencyKey("a@b.com", sampleItems(), enums.DestinationEurope)
		},
		"quantity": func() string {
			items := sampleItems()
			items[0].Quantity = 4
			return IdempotencyKey("a@b.com", items, enums.DestinationDomestic)
		},
		"variant size": func() string {
			items := sampleItems()
			items[1].Variant.Size = "L"
			return IdempotencyKey("a@b.com", items, enums.DestinationDomestic)
		},
		"variant color dropped": func() string {
			items := sampleItems()
			items[1].Variant.Color = nil
			return IdempotencyKey("a@b.com", items, enums.DestinationDomestic)
		},
		"line removed": func() string {
			return IdempotencyKey("a@b.com", sampleItems()[:2], enums.DestinationDomestic)
		},
	}
	for name, mutate := range mutations {
		if got := mutate(); got == base {
			t.Fatalf("%s change should produce a different key", name)
		}
	}
}

func TestIdempotencyKeyIgnoresLineIDs(t *testing.T) {
	items := sampleItems()
	base := IdempotencyKey("a@b.com", items, enums.DestinationDomestic)
	items[0].ID = "renamed"
	if got := IdempotencyKey("a@b.com", items, enums.DestinationDomestic); got != base {
		t.Fatal("client line ids must not affect the key")
	}
}
