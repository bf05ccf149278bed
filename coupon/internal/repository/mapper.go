package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/velaire/ecommerce/coupon/pkg/response"
)

// CouponRow is the storage shape of a coupon.
type CouponRow struct {
	ID                    uuid.UUID
	Code                  string
	DiscountType          string
	DiscountValue         pgtype.Numeric
	MinimumPurchaseAmount pgtype.Numeric
	UsageLimit            pgtype.Int4
	UsageCount            int32
	IsActive              bool
	ExpirationDate        pgtype.Timestamptz
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (r CouponRow) Response() response.Coupon {
	coupon := response.Coupon{
		ID:            r.ID,
		Code:          r.Code,
		DiscountType:  r.DiscountType,
		DiscountValue: decimal.NewFromBigInt(r.DiscountValue.Int, r.DiscountValue.Exp),
		UsageCount:    r.UsageCount,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.MinimumPurchaseAmount.Valid {
		minimum := decimal.NewFromBigInt(r.MinimumPurchaseAmount.Int, r.MinimumPurchaseAmount.Exp)
		coupon.MinimumPurchaseAmount = &minimum
	}
	if r.UsageLimit.Valid {
		limit := r.UsageLimit.Int32
		coupon.UsageLimit = &limit
	}
	if r.ExpirationDate.Valid {
		expiration := r.ExpirationDate.Time
		coupon.ExpirationDate = &expiration
	}
	return coupon
}
