package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound          = errors.New("invalid coupon code")
	ErrCouponInactive          = errors.New("this coupon is not active")
	ErrCouponExpired           = errors.New("this coupon has expired")
	ErrCouponUsageLimitReached = errors.New("this coupon has reached its usage limit")
	ErrCouponCodeTaken         = errors.New("coupon code already exists")
)

// MinimumPurchaseError reports a purchase total below the coupon's minimum,
// carrying the threshold for the user-visible message.
type MinimumPurchaseError struct {
	Minimum decimal.Decimal
}

func (e *MinimumPurchaseError) Error() string {
	return fmt.Sprintf("you must spend at least %s to use this coupon", e.Minimum.String())
}
