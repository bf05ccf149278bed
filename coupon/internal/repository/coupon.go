package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	couponErrors "github.com/velaire/ecommerce/coupon/internal/errors"
	"github.com/velaire/ecommerce/coupon/pkg/request"
	"github.com/velaire/ecommerce/coupon/pkg/response"
	inErrors "github.com/velaire/ecommerce/internal/errors"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

const pgUniqueViolation = "23505"

type CouponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const findCouponByCode = `
SELECT id, code, discount_type, discount_value, minimum_purchase_amount, usage_limit, usage_count, is_active, expiration_date, created_at, updated_at
FROM coupons
WHERE code = $1
`

const insertCoupon = `
INSERT INTO coupons (code, discount_type, discount_value, minimum_purchase_amount, usage_limit, is_active, expiration_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, code, discount_type, discount_value, minimum_purchase_amount, usage_limit, usage_count, is_active, expiration_date, created_at, updated_at
`

func (r *CouponRepository) FindCouponByCode(
	c context.Context,
	code string,
) (response.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponRepository FindCouponByCode")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponRepository FindCouponByCode").
		Str(log.KeyCouponCode, code).
		Logger()

	row := CouponRow{}
	err := r.pool.QueryRow(c, findCouponByCode, code).Scan(
		&row.ID,
		&row.Code,
		&row.DiscountType,
		&row.DiscountValue,
		&row.MinimumPurchaseAmount,
		&row.UsageLimit,
		&row.UsageCount,
		&row.IsActive,
		&row.ExpirationDate,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Info().Msg("coupon not found")
		return response.Coupon{}, couponErrors.ErrCouponNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed finding coupon by code=%s with error=%w", code, err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Coupon{}, err
	}

	logger.Info().Msg("found coupon")
	return row.Response(), nil
}

func (r *CouponRepository) InsertCoupon(
	c context.Context,
	param request.CreateCoupon,
) (response.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponRepository InsertCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponRepository InsertCoupon").
		Str(log.KeyCouponCode, param.Code).
		Logger()

	row := CouponRow{}
	err := r.pool.QueryRow(
		c,
		insertCoupon,
		param.Code,
		param.DiscountType,
		numericFromDecimal(param.DiscountValue),
		numericFromDecimalPtr(param.MinimumPurchaseAmount),
		param.UsageLimit,
		param.IsActive,
		param.ExpirationDate,
	).Scan(
		&row.ID,
		&row.Code,
		&row.DiscountType,
		&row.DiscountValue,
		&row.MinimumPurchaseAmount,
		&row.UsageLimit,
		&row.UsageCount,
		&row.IsActive,
		&row.ExpirationDate,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			logger.Info().Msg("coupon code already exists")
			return response.Coupon{}, couponErrors.ErrCouponCodeTaken
		}
		err = fmt.Errorf("failed inserting coupon with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Coupon{}, err
	}

	logger.Info().Msg("inserted coupon")
	return row.Response(), nil
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		NaN:              false,
		Valid:            true,
	}
}

func numericFromDecimalPtr(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return numericFromDecimal(*d)
}
