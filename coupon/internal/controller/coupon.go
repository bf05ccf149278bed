package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	couponErrors "github.com/velaire/ecommerce/coupon/internal/errors"
	"github.com/velaire/ecommerce/coupon/internal/service"
	"github.com/velaire/ecommerce/coupon/pkg/request"
	inErrors "github.com/velaire/ecommerce/internal/errors"
	inHttp "github.com/velaire/ecommerce/internal/http"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

type CouponController struct {
	service *service.CouponService
}

func AttachCouponController(mux *mux.Router, service *service.CouponService) {
	controller := CouponController{service: service}

	router := mux.PathPrefix("/coupons").Subrouter()
	router.HandleFunc("", controller.CreateCoupon).Methods(http.MethodPost)
	router.HandleFunc("/validate", controller.ValidateCoupon).Methods(http.MethodPost)
	router.HandleFunc("/{code}", controller.FindCouponByCode).Methods(http.MethodGet)
}

func (t CouponController) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CouponController ValidateCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponController ValidateCoupon").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.ValidateCoupon{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().
		Str(log.KeyProcess, "validating coupon").
		Str(log.KeyCouponCode, reqBody.Code).
		Logger()
	logger.Info().Msg("validating coupon")
	c = logger.WithContext(c)
	coupon, err := t.service.ValidateCoupon(c, reqBody)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Info().Err(err).Msgf("rejected coupon with reason=%s", err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromCouponError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated coupon")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully validated coupon",
		"data": map[string]interface{}{
			"coupon": coupon,
		},
	})
}

func (t CouponController) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CouponController CreateCoupon")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponController CreateCoupon").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.CreateCoupon{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().
		Str(log.KeyProcess, "creating coupon").
		Str(log.KeyCouponCode, reqBody.Code).
		Logger()
	logger.Info().Msg("creating coupon")
	c = logger.WithContext(c)
	coupon, err := t.service.CreateCoupon(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed creating coupon with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromCouponError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("created coupon")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "successfully created coupon",
		"data": map[string]interface{}{
			"coupon": coupon,
		},
	})
}

func (t CouponController) FindCouponByCode(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CouponController FindCouponByCode")
	defer span.End()

	pathValues := mux.Vars(r)
	code := pathValues["code"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CouponController FindCouponByCode").
		Str(log.KeyCouponCode, code).
		Any(log.KeyPathValues, pathValues).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding coupon").Logger()
	logger.Info().Msg("finding coupon")
	c = logger.WithContext(c)
	coupon, err := t.service.FindCouponByCode(c, code)
	if err != nil {
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromCouponError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("found coupon")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully found coupon",
		"data": map[string]interface{}{
			"coupon": coupon,
		},
	})
}

func statusCodeFromCouponError(err error) int {
	var minimumPurchase *couponErrors.MinimumPurchaseError
	switch {
	case errors.Is(err, couponErrors.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, couponErrors.ErrCouponCodeTaken):
		return http.StatusConflict
	case errors.Is(err, couponErrors.ErrCouponInactive),
		errors.Is(err, couponErrors.ErrCouponExpired),
		errors.Is(err, couponErrors.ErrCouponUsageLimitReached),
		errors.As(err, &minimumPurchase):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
