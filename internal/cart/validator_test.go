package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func i64(v int64) *int64    { return &v }
func iptr(v int) *int       { return &v }
func sptr(v string) *string { return &v }

type catalogFixture struct {
	tee, poster, euroPrint, retired, unpriced models.Product
	products                                  map[uuid.UUID]models.Product
}

func newCatalog() catalogFixture {
	f := catalogFixture{
		tee: models.Product{
			ID: uuid.New(), Name: "Tour Tee", Currency: "GBP", PriceMinor: i64(2500), IsActive: true,
			Variants: []models.ProductVariant{
				{ID: uuid.New(), AgeGroup: "adult", Gender: "unisex", Size: "m", Stock: iptr(3)},
				{ID: uuid.New(), AgeGroup: "adult", Gender: "unisex", Size: "m", Color: sptr("black"), Stock: iptr(0), PriceMinor: i64(2700)},
				{ID: uuid.New(), AgeGroup: "kids", Gender: "unisex", Size: "s", PriceMinor: i64(0)},
			},
		},
		poster:    models.Product{ID: uuid.New(), Name: "Poster", Currency: "gbp", PriceMinor: i64(900), IsActive: true, Stock: iptr(2)},
		euroPrint: models.Product{ID: uuid.New(), Name: "Print", Currency: "eur", PriceMinor: i64(1500), IsActive: true},
		retired:   models.Product{ID: uuid.New(), Name: "Old Tee", Currency: "gbp", PriceMinor: i64(1000), IsActive: false},
		unpriced:  models.Product{ID: uuid.New(), Name: "Sample", Currency: "gbp", IsActive: true},
	}
	f.products = map[uuid.UUID]models.Product{}
	for _, p := range []models.Product{f.tee, f.poster, f.euroPrint, f.retired, f.unpriced} {
		f.products[p.ID] = p
	}
	return f
}

func newValidator() *Validator {
	return NewValidator(NewLocalizer(language.English))
}

func TestValidateHappyPath(t *testing.T) {
	f := newCatalog()
	res := newValidator().Validate([]checkout.ItemRequest{
		{ID: "1", ProductID: f.poster.ID, Quantity: 2},
		{ID: "2", ProductID: f.tee.ID, Quantity: 1, Variant: &checkout.VariantSelector{AgeGroup: "Adult", Gender: "UNISEX", Size: "M"}},
	}, f.products)

	require.True(t, res.Valid(), "unexpected errors %+v", res.Errors)
	assert.Equal(t, "gbp", res.Currency)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(900), res.Items[0].UnitPrice)
	assert.Equal(t, "Tour Tee (unisex / adult / M)", res.Items[1].Name)
	assert.Equal(t, f.tee.Variants[0].ID, *res.Items[1].VariantID)
	assert.Equal(t, []checkout.Line{{UnitPrice: 900, Quantity: 2}, {UnitPrice: 2500, Quantity: 1}}, res.Lines())
}

func TestValidateMissingAndInactive(t *testing.T) {
	f := newCatalog()
	res := newValidator().Validate([]checkout.ItemRequest{
		{ID: "gone", ProductID: uuid.New(), Quantity: 1},
		{ID: "retired", ProductID: f.retired.ID, Quantity: 1},
	}, f.products)

	require.Len(t, res.Errors, 2)
	for _, itemErr := range res.Errors {
		assert.Equal(t, enums.CartItemErrorNotFound, itemErr.Code)
	}
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Currency, "no active product means no primary currency")
}

func TestValidateCurrencyMismatchUsesFirstActiveProduct(t *testing.T) {
	f := newCatalog()
	res := newValidator().Validate([]checkout.ItemRequest{
		{ID: "retired", ProductID: f.retired.ID, Quantity: 1},
		{ID: "print", ProductID: f.euroPrint.ID, Quantity: 1},
		{ID: "poster", ProductID: f.poster.ID, Quantity: 1},
	}, f.products)

	assert.Equal(t, "eur", res.Currency)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, enums.CartItemErrorNotFound, res.Errors[0].Code)
	assert.Equal(t, enums.CartItemErrorCurrencyMismatch, res.Errors[1].Code)
	assert.Equal(t, "poster", res.Errors[1].LineID)
	assert.Contains(t, res.Errors[1].Message, "GBP")
	require.Len(t, res.Items, 1)
	assert.Equal(t, "print", res.Items[0].LineID)
}

func TestValidateVariantMatching(t *testing.T) {
	f := newCatalog()
	v := newValidator()

	res := v.Validate([]checkout.ItemRequest{
		{ID: "xl", ProductID: f.tee.ID, Quantity: 1, Variant: &checkout.VariantSelector{AgeGroup: "adult", Gender: "unisex", Size: "xl"}},
	}, f.products)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, enums.CartItemErrorNotFound, res.Errors[0].Code)

	res = v.Validate([]checkout.ItemRequest{
		{ID: "red", ProductID: f.tee.ID, Quantity: 1, Variant: &checkout.VariantSelector{AgeGroup: "adult", Gender: "unisex", Size: "m", Color: sptr("red")}},
	}, f.products)
	require.Len(t, res.Errors, 1, "unknown color must not match")

	res = v.Validate([]checkout.ItemRequest{
		{ID: "kids", ProductID: f.tee.ID, Quantity: 4, Variant: &checkout.VariantSelector{AgeGroup: "kids", Gender: "unisex", Size: "s"}},
	}, f.products)
	require.True(t, res.Valid())
	assert.Equal(t, int64(0), res.Items[0].UnitPrice, "zero override is a real price")
}

func TestValidateStock(t *testing.T) {
	f := newCatalog()
	res := newValidator().Validate([]checkout.ItemRequest{
		{ID: "black", ProductID: f.tee.ID, Quantity: 1, Variant: &checkout.VariantSelector{AgeGroup: "adult", Gender: "unisex", Size: "m", Color: sptr("Black")}},
		{ID: "poster", ProductID: f.poster.ID, Quantity: 5},
		{ID: "m", ProductID: f.tee.ID, Quantity: 3, Variant: &checkout.VariantSelector{AgeGroup: "adult", Gender: "unisex", Size: "m"}},
	}, f.products)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, enums.CartItemErrorOutOfStock, res.Errors[0].Code)
	assert.Equal(t, "out of stock", res.Errors[0].Message)
	assert.Equal(t, 0, *res.Errors[0].Available)

	assert.Equal(t, enums.CartItemErrorOutOfStock, res.Errors[1].Code)
	assert.Equal(t, "only 2 available", res.Errors[1].Message)
	assert.Equal(t, 2, *res.Errors[1].Available)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "m", res.Items[0].LineID)
}

func TestValidateUnpriced(t *testing.T) {
	f := newCatalog()
	res := newValidator().Validate([]checkout.ItemRequest{{ID: "s", ProductID: f.unpriced.ID, Quantity: 1}}, f.products)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, enums.CartItemErrorNotFound, res.Errors[0].Code)
}

func TestLocalizerFallsBackToEnglish(t *testing.T) {
	loc := NewLocalizer(language.German)
	assert.Equal(t, "only 3 available", loc.Message(msgOnlyAvailable, 3))
}
