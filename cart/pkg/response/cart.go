package response

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	Items          []CartItem      `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	AppliedCoupon  *Coupon         `json:"applied_coupon,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	PayableTotal   decimal.Decimal `json:"payable_total"`
	CouponError    string          `json:"coupon_error,omitempty"`
	IsOpen         bool            `json:"is_open"`
}

type CartItem struct {
	ProductId     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int32           `json:"quantity"`
	StockCeiling  int32           `json:"stock_ceiling"`
	Image         string          `json:"image,omitempty"`
	Size          string          `json:"size,omitempty"`
	Shade         string          `json:"shade,omitempty"`
}

type Coupon struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}
