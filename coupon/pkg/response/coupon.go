package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID                    uuid.UUID        `json:"id"`
	Code                  string           `json:"code"`
	DiscountType          string           `json:"discount_type"`
	DiscountValue         decimal.Decimal  `json:"discount_value"`
	MinimumPurchaseAmount *decimal.Decimal `json:"minimum_purchase_amount,omitempty"`
	UsageLimit            *int32           `json:"usage_limit,omitempty"`
	UsageCount            int32            `json:"usage_count"`
	IsActive              bool             `json:"is_active"`
	ExpirationDate        *time.Time       `json:"expiration_date,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}
