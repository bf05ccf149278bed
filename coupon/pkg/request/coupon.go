package request

import (
	"time"

	"github.com/shopspring/decimal"
)

type ValidateCoupon struct {
	Code        string          `validate:"required" json:"code"`
	TotalAmount decimal.Decimal `                    json:"total_amount"`
}

type CreateCoupon struct {
	Code                  string           `validate:"required"                                    json:"code"`
	DiscountType          string           `validate:"required,oneof=percentage fixed_amount"      json:"discount_type"`
	DiscountValue         decimal.Decimal  `validate:"required"                                    json:"discount_value"`
	MinimumPurchaseAmount *decimal.Decimal `                                                       json:"minimum_purchase_amount"`
	UsageLimit            *int32           `                                                       json:"usage_limit"`
	IsActive              bool             `                                                       json:"is_active"`
	ExpirationDate        *time.Time       `                                                       json:"expiration_date"`
}
