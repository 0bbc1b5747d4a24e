package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const idempotencyKeyLength = 32

// IdempotencyKey derives a stable key for a checkout submission. Line order
// does not matter; email, quantities, variants and destination do.
func IdempotencyKey(email string, items []ItemRequest, destination enums.Destination) string {
	tuples := make([]string, 0, len(items))
	for _, item := range items {
		tuples = append(tuples, canonicalItem(item))
	}
	sort.Strings(tuples)

	payload := strings.Join([]string{
		normalize(email),
		strings.Join(tuples, ","),
		string(destination),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:idempotencyKeyLength]
}

func canonicalItem(item ItemRequest) string {
	var ageGroup, gender, size, color string
	if v := item.Variant; v != nil {
		ageGroup, gender, size = normalize(v.AgeGroup), normalize(v.Gender), normalize(v.Size)
		if v.Color != nil {
			color = normalize(*v.Color)
		}
	}
	return strings.Join([]string{
		item.ProductID.String(),
		strconv.Itoa(item.Quantity),
		ageGroup,
		gender,
		size,
		color,
	}, ":")
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
