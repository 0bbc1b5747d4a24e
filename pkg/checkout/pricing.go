package checkout

// ResolvePrice returns the variant override when present, including an
// override of exactly zero, and the base price otherwise. ok is false when
// neither is configured.
func ResolvePrice(base, override *int64) (price int64, ok bool) {
	if override != nil {
		return *override, true
	}
	if base != nil {
		return *base, true
	}
	return 0, false
}

// StockCheck is the outcome of comparing a requested quantity to stock on hand.
type StockCheck struct {
	Available bool
	Unlimited bool
	OnHand    int
	Reason    string
}

// CheckStock treats nil stock as unlimited.
func CheckStock(stock *int, quantity int) StockCheck {
	if stock == nil {
		return StockCheck{Available: true, Unlimited: true}
	}
	onHand := *stock
	switch {
	case quantity <= onHand:
		return StockCheck{Available: true, OnHand: onHand}
	case onHand <= 0:
		return StockCheck{OnHand: onHand, Reason: "out of stock"}
	default:
		return StockCheck{OnHand: onHand, Reason: "insufficient stock"}
	}
}
