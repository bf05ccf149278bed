package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	couponErrors "github.com/velaire/ecommerce/coupon/internal/errors"
	"github.com/velaire/ecommerce/coupon/pkg/response"
)

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2025, time.January, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	limit := int32(100)
	minimum := decimal.NewFromInt(50)

	tests := []struct {
		name        string
		coupon      response.Coupon
		totalAmount decimal.Decimal
		expectedErr error
	}{
		{
			name: "given active coupon without constraints should accept",
			coupon: response.Coupon{
				Code:          "SAVE10",
				DiscountType:  "percentage",
				DiscountValue: decimal.NewFromInt(10),
				IsActive:      true,
			},
			totalAmount: decimal.NewFromInt(10),
		},
		{
			name: "given inactive coupon should reject",
			coupon: response.Coupon{
				Code:     "SAVE10",
				IsActive: false,
			},
			totalAmount: decimal.NewFromInt(10),
			expectedErr: couponErrors.ErrCouponInactive,
		},
		{
			name: "given expired coupon should reject",
			coupon: response.Coupon{
				Code:           "SAVE10",
				IsActive:       true,
				ExpirationDate: &past,
			},
			totalAmount: decimal.NewFromInt(10),
			expectedErr: couponErrors.ErrCouponExpired,
		},
		{
			name: "given future expiration date should accept",
			coupon: response.Coupon{
				Code:           "SAVE10",
				IsActive:       true,
				ExpirationDate: &future,
			},
			totalAmount: decimal.NewFromInt(10),
		},
		{
			name: "given usage count at limit should reject",
			coupon: response.Coupon{
				Code:       "SAVE10",
				IsActive:   true,
				UsageLimit: &limit,
				UsageCount: 100,
			},
			totalAmount: decimal.NewFromInt(10),
			expectedErr: couponErrors.ErrCouponUsageLimitReached,
		},
		{
			name: "given usage count below limit should accept",
			coupon: response.Coupon{
				Code:       "SAVE10",
				IsActive:   true,
				UsageLimit: &limit,
				UsageCount: 99,
			},
			totalAmount: decimal.NewFromInt(10),
		},
		{
			name: "given total below minimum purchase amount should reject",
			coupon: response.Coupon{
				Code:                  "SAVE10",
				IsActive:              true,
				MinimumPurchaseAmount: &minimum,
			},
			totalAmount: decimal.NewFromInt(49),
			expectedErr: &couponErrors.MinimumPurchaseError{Minimum: minimum},
		},
		{
			name: "given total equal to minimum purchase amount should accept",
			coupon: response.Coupon{
				Code:                  "SAVE10",
				IsActive:              true,
				MinimumPurchaseAmount: &minimum,
			},
			totalAmount: decimal.NewFromInt(50),
		},
		{
			name: "given inactive and expired coupon should reject as inactive first",
			coupon: response.Coupon{
				Code:           "SAVE10",
				IsActive:       false,
				ExpirationDate: &past,
			},
			totalAmount: decimal.NewFromInt(10),
			expectedErr: couponErrors.ErrCouponInactive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCoupon(tt.coupon, tt.totalAmount, now)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedErr.Error())
		})
	}
}

func TestMinimumPurchaseErrorMessage(t *testing.T) {
	err := &couponErrors.MinimumPurchaseError{Minimum: decimal.RequireFromString("50.5")}
	assert.Equal(t, "you must spend at least 50.5 to use this coupon", err.Error())
}
