package enums

// CartItemErrorCode classifies why a cart line failed server-side revalidation.
type CartItemErrorCode string

const (
	CartItemErrorNotFound         CartItemErrorCode = "not_found"
	CartItemErrorCurrencyMismatch CartItemErrorCode = "currency_mismatch"
	CartItemErrorOutOfStock       CartItemErrorCode = "out_of_stock"
)

// String implements fmt.Stringer.
func (c CartItemErrorCode) String() string {
	return string(c)
}
