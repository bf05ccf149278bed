package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/velaire/ecommerce/coupon/internal/cache"
	couponErrors "github.com/velaire/ecommerce/coupon/internal/errors"
	"github.com/velaire/ecommerce/coupon/pkg/request"
	"github.com/velaire/ecommerce/coupon/pkg/response"
	inErrors "github.com/velaire/ecommerce/internal/errors"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

type CouponRepository interface {
	FindCouponByCode(c context.Context, code string) (response.Coupon, error)
	InsertCoupon(c context.Context, param request.CreateCoupon) (response.Coupon, error)
}

type CouponService struct {
	repository CouponRepository
	cache      *redis.Client
}

func NewCouponService(repository CouponRepository, cache *redis.Client) *CouponService {
	return &CouponService{repository: repository, cache: cache}
}

func (s *CouponService) FindCouponByCode(
	c context.Context,
	code string,
) (response.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponService FindCouponByCode")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyCoupons, code)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponService FindCouponByCode").
		Str(log.KeyCouponCode, code).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding coupon in cache").Logger()
	logger.Info().Msg("finding coupon in cache")
	jsonCache, err := s.cache.JSONGet(c, cacheKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		err = fmt.Errorf("failed finding coupon in cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	if jsonCache != "" {
		logger.Info().Msg("found coupon in cache")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling cache").Logger()
		coupon := response.Coupon{}
		if err := json.Unmarshal([]byte(jsonCache), &coupon); err != nil {
			err = fmt.Errorf("failed unmarshaling cache with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		} else {
			return coupon, nil
		}
	}

	logger = logger.With().Str(log.KeyProcess, "finding coupon in database").Logger()
	logger.Info().Msg("finding coupon in database")
	c = logger.WithContext(c)
	coupon, err := s.repository.FindCouponByCode(c, code)
	if err != nil {
		return response.Coupon{}, err
	}
	logger.Info().Msg("found coupon in database")

	logger = logger.With().Str(log.KeyProcess, "inserting coupon to cache").Logger()
	logger.Info().Msg("inserting coupon to cache")
	if err := s.cache.JSONSet(c, cacheKey, "$", coupon).Err(); err != nil {
		err = fmt.Errorf("failed inserting coupon to cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Msg("inserted coupon to cache")
	}

	return coupon, nil
}

// ValidateCoupon resolves the code and checks it against the purchase total.
// The returned error carries the user-visible rejection reason.
func (s *CouponService) ValidateCoupon(
	c context.Context,
	param request.ValidateCoupon,
) (response.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponService ValidateCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponService ValidateCoupon").
		Str(log.KeyCouponCode, param.Code).
		Logger()

	c = logger.WithContext(c)
	coupon, err := s.FindCouponByCode(c, param.Code)
	if err != nil {
		return response.Coupon{}, err
	}

	if err := validateCoupon(coupon, param.TotalAmount, time.Now()); err != nil {
		logger.Info().Err(err).Msgf("rejected coupon with reason=%s", err.Error())
		return response.Coupon{}, err
	}

	logger.Info().Msg("validated coupon")
	return coupon, nil
}

func (s *CouponService) CreateCoupon(
	c context.Context,
	param request.CreateCoupon,
) (response.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponService CreateCoupon")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyCoupons, param.Code)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponService CreateCoupon").
		Str(log.KeyCouponCode, param.Code).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "inserting coupon").Logger()
	logger.Info().Msg("inserting coupon")
	c = logger.WithContext(c)
	coupon, err := s.repository.InsertCoupon(c, param)
	if err != nil {
		return response.Coupon{}, err
	}
	logger.Info().Msg("inserted coupon")

	logger = logger.With().Str(log.KeyProcess, "inserting coupon to cache").Logger()
	logger.Info().Msg("inserting coupon to cache")
	if err := s.cache.JSONSet(c, cacheKey, "$", coupon).Err(); err != nil {
		err = fmt.Errorf("failed inserting coupon to cache with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Msg("inserted coupon to cache")
	}

	return coupon, nil
}

// validateCoupon applies the redemption rules in order: active flag,
// expiration, usage limit, then minimum purchase amount.
func validateCoupon(
	coupon response.Coupon,
	totalAmount decimal.Decimal,
	now time.Time,
) error {
	if !coupon.IsActive {
		return couponErrors.ErrCouponInactive
	}
	if coupon.ExpirationDate != nil && coupon.ExpirationDate.Before(now) {
		return couponErrors.ErrCouponExpired
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return couponErrors.ErrCouponUsageLimitReached
	}
	if coupon.MinimumPurchaseAmount != nil && totalAmount.LessThan(*coupon.MinimumPurchaseAmount) {
		return &couponErrors.MinimumPurchaseError{Minimum: *coupon.MinimumPurchaseAmount}
	}
	return nil
}
