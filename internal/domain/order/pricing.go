package order

import (
	"github.com/shopspring/decimal"

	"github.com/akarev/checkout-api/internal/domain/currency"
)

var hundred = decimal.NewFromInt(100)

// Subtotal sums the order's line items in the payment currency. Each item
// price is converted into the payment currency first, then multiplied by the
// line quantity; lines are never summed in their native currency and
// converted afterwards. An order without line items has a zero subtotal.
func (o *Order) Subtotal() int64 {
	var sum int64
	for _, li := range o.LineItems {
		unit := currency.Convert(li.Item.Price, li.Item.Currency, o.PaymentCurrency)
		sum += unit * int64(li.Quantity)
	}
	return sum
}

// DiscountAmount returns floor(subtotal × percent / 100), or zero when no
// discount is attached.
func (o *Order) DiscountAmount() int64 {
	if o.Discount == nil {
		return 0
	}
	return percentOf(o.Subtotal(), o.Discount.Percent)
}

// TaxAmount returns floor((subtotal − discount) × percent / 100), or zero
// when no tax is attached. The tax base is always the post-discount
// subtotal.
func (o *Order) TaxAmount() int64 {
	if o.Tax == nil {
		return 0
	}
	base := o.Subtotal() - o.DiscountAmount()
	return percentOf(base, o.Tax.Percent)
}

// TotalPrice returns subtotal − discount + tax. The component amounts are
// already truncated; no further rounding is applied here.
func (o *Order) TotalPrice() int64 {
	return o.Subtotal() - o.DiscountAmount() + o.TaxAmount()
}

// DisplayTotal renders the total in the payment currency.
func (o *Order) DisplayTotal() string {
	return o.PaymentCurrency.Format(o.TotalPrice())
}

// percentOf computes floor(amount × percent / 100) over integer minor units.
func percentOf(amount int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(percent).Div(hundred).Floor().IntPart()
}
