package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one product entry in the cart. Display fields and prices are
// captured at add time, not re-fetched live. Invariant: 1 <= Quantity <=
// StockCeiling.
type LineItem struct {
	ProductID     uuid.UUID
	Name          string
	Brand         string
	UnitPrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	Quantity      int32
	StockCeiling  int32
	Image         string
	Size          string
	Shade         string
}

// Product carries the fields a caller hands to AddToCart. StockQuantity is
// the purchasable ceiling at add time.
type Product struct {
	ID            uuid.UUID
	Name          string
	Brand         string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	StockQuantity int32
	ImageUrl      string
	Size          string
	Shade         string
}

// LineItem captures the product into a new line item, defaulting the
// original price to the unit price when absent.
func (p Product) LineItem(quantity int32) LineItem {
	originalPrice := p.OriginalPrice
	if originalPrice.IsZero() {
		originalPrice = p.Price
	}
	return LineItem{
		ProductID:     p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		UnitPrice:     p.Price,
		OriginalPrice: originalPrice,
		Quantity:      quantity,
		StockCeiling:  p.StockQuantity,
		Image:         p.ImageUrl,
		Size:          p.Size,
		Shade:         p.Shade,
	}
}

const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"
)

// Coupon is the single active promotional code and its resolved discount
// terms.
type Coupon struct {
	Code          string
	DiscountType  string
	DiscountValue decimal.Decimal
}

func (co Coupon) DiscountAmount(subtotal decimal.Decimal) decimal.Decimal {
	switch co.DiscountType {
	case DiscountTypePercentage:
		return subtotal.Mul(co.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountTypeFixedAmount:
		return co.DiscountValue
	}
	return decimal.Zero
}

// CouponRejectedError carries the user-visible reason the validation
// collaborator rejected a code.
type CouponRejectedError struct {
	Message string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon rejected: %s", e.Message)
}

func rejectionMessage(err error) string {
	var rejected *CouponRejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return err.Error()
}
