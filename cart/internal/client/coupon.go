package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/velaire/ecommerce/cart/internal/engine"
	couponRequest "github.com/velaire/ecommerce/coupon/pkg/request"
	couponResponse "github.com/velaire/ecommerce/coupon/pkg/response"
	inErrors "github.com/velaire/ecommerce/internal/errors"
	inHttp "github.com/velaire/ecommerce/internal/http"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

// CouponClient calls the coupon service's validation endpoint. It implements
// engine.CouponValidator.
type CouponClient struct {
	baseUrl string
}

func NewCouponClient(baseUrl string) *CouponClient {
	return &CouponClient{baseUrl: baseUrl}
}

func (cl *CouponClient) Validate(
	c context.Context,
	code string,
	subtotal decimal.Decimal,
) (engine.Coupon, error) {
	c, span := otel.Tracer.Start(c, "CouponClient Validate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponClient Validate").
		Str(log.KeyCouponCode, code).
		Str(log.KeySubtotal, subtotal.String()).
		Logger()

	body, err := json.Marshal(couponRequest.ValidateCoupon{Code: code, TotalAmount: subtotal})
	if err != nil {
		err = fmt.Errorf("failed marshaling validate coupon request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return engine.Coupon{}, err
	}

	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		cl.baseUrl+"/validate",
		bytes.NewBuffer(body),
	)
	if err != nil {
		err = fmt.Errorf("failed creating validate coupon request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return engine.Coupon{}, err
	}
	req.Header.Add(inHttp.HeaderContentType, inHttp.HeaderValueJson)
	req.Header.Add(inHttp.HeaderRequestID, log.RequestIDFromContext(c))

	logger.Info().Msg("validating coupon with coupon-service")
	resp, err := otelhttp.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed validating coupon with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return engine.Coupon{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rejection := map[string]interface{}{}
		if err := json.NewDecoder(resp.Body).Decode(&rejection); err != nil {
			err = fmt.Errorf("failed decoding coupon rejection with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return engine.Coupon{}, err
		}
		message, _ := rejection["message"].(string)
		if message == "" {
			message = fmt.Sprintf("coupon service returned status code=%d", resp.StatusCode)
		}
		logger.Info().Msgf("coupon rejected with message=%s", message)
		return engine.Coupon{}, &engine.CouponRejectedError{Message: message}
	}

	respBody := struct {
		Data struct {
			Coupon couponResponse.Coupon `json:"coupon"`
		} `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		err = fmt.Errorf("failed decoding coupon response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return engine.Coupon{}, err
	}
	coupon := respBody.Data.Coupon
	logger.Info().Any(log.KeyCoupon, coupon).Msg("validated coupon")

	return engine.Coupon{
		Code:          coupon.Code,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
	}, nil
}
