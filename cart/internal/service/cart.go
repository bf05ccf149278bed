package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/velaire/ecommerce/cart/internal/engine"
	"github.com/velaire/ecommerce/cart/pkg/request"
	"github.com/velaire/ecommerce/cart/pkg/response"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

// CartService owns one cart engine per authenticated user. Engines are
// created lazily and loaded from the store on first access; releasing the
// session drops the engine and its state.
type CartService struct {
	mu      sync.Mutex
	engines map[uuid.UUID]*engine.Engine

	store     engine.Store
	validator engine.CouponValidator
}

func NewCartService(store engine.Store, validator engine.CouponValidator) *CartService {
	return &CartService{
		engines:   map[uuid.UUID]*engine.Engine{},
		store:     store,
		validator: validator,
	}
}

func (s *CartService) engineFor(c context.Context, userId uuid.UUID) *engine.Engine {
	s.mu.Lock()
	e, ok := s.engines[userId]
	if !ok {
		e = engine.New(userId, s.store, s.validator)
		s.engines[userId] = e
		s.mu.Unlock()
		e.Load(c)
		return e
	}
	s.mu.Unlock()
	return e
}

func (s *CartService) FindCart(c context.Context, userId uuid.UUID) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService FindCart")
	defer span.End()
	return snapshot(s.engineFor(c, userId))
}

func (s *CartService) AddToCart(
	c context.Context,
	userId uuid.UUID,
	param request.AddCartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddToCart").
		Str(log.KeyProductID, param.ProductId.String()).
		Logger()
	c = logger.WithContext(c)

	e := s.engineFor(c, userId)
	err := e.AddToCart(c, engine.Product{
		ID:            param.ProductId,
		Name:          param.Name,
		Brand:         param.Brand,
		Price:         param.Price,
		OriginalPrice: param.OriginalPrice,
		StockQuantity: param.StockQuantity,
		ImageUrl:      param.ImageUrl,
		Size:          param.Size,
		Shade:         param.Shade,
	}, param.Quantity)
	if err != nil {
		return snapshot(e), err
	}
	return snapshot(e), nil
}

func (s *CartService) RemoveFromCart(
	c context.Context,
	userId uuid.UUID,
	productId uuid.UUID,
) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService RemoveFromCart")
	defer span.End()

	e := s.engineFor(c, userId)
	e.RemoveFromCart(c, productId)
	return snapshot(e)
}

func (s *CartService) UpdateQuantity(
	c context.Context,
	userId uuid.UUID,
	productId uuid.UUID,
	quantity int32,
) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity")
	defer span.End()

	e := s.engineFor(c, userId)
	e.UpdateQuantity(c, productId, quantity)
	return snapshot(e)
}

func (s *CartService) ClearCart(c context.Context, userId uuid.UUID) response.Cart {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	e := s.engineFor(c, userId)
	e.Clear(c)
	return snapshot(e)
}

func (s *CartService) ApplyCoupon(
	c context.Context,
	userId uuid.UUID,
	code string,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService ApplyCoupon")
	defer span.End()

	e := s.engineFor(c, userId)
	err := e.ApplyCoupon(c, code)
	return snapshot(e), err
}

func (s *CartService) RemoveCoupon(c context.Context, userId uuid.UUID) response.Cart {
	_, span := otel.Tracer.Start(c, "CartService RemoveCoupon")
	defer span.End()

	e := s.engineFor(c, userId)
	e.RemoveCoupon()
	return snapshot(e)
}

// ReleaseSession drops the user's engine; the identity is gone, so the local
// cart and any applied coupon go with it.
func (s *CartService) ReleaseSession(c context.Context, userId uuid.UUID) {
	_, span := otel.Tracer.Start(c, "CartService ReleaseSession")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ReleaseSession").
		Str(log.KeyUserID, userId.String()).
		Logger()

	s.mu.Lock()
	delete(s.engines, userId)
	s.mu.Unlock()
	logger.Info().Msg("released cart session")
}

func snapshot(e *engine.Engine) response.Cart {
	items := e.Items()
	respItems := make([]response.CartItem, len(items))
	for i, item := range items {
		respItems[i] = response.CartItem{
			ProductId:     item.ProductID,
			Name:          item.Name,
			Brand:         item.Brand,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			Quantity:      item.Quantity,
			StockCeiling:  item.StockCeiling,
			Image:         item.Image,
			Size:          item.Size,
			Shade:         item.Shade,
		}
	}

	subtotal := e.Subtotal()
	discount := e.DiscountAmount()
	finalTotal := e.FinalTotal()
	payable := finalTotal
	if payable.IsNegative() {
		payable = decimal.Zero
	}

	resp := response.Cart{
		Items:          respItems,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		FinalTotal:     finalTotal,
		PayableTotal:   payable,
		CouponError:    e.CouponError(),
		IsOpen:         e.IsOpen(),
	}
	if coupon, ok := e.AppliedCoupon(); ok {
		resp.AppliedCoupon = &response.Coupon{
			Code:          coupon.Code,
			DiscountType:  coupon.DiscountType,
			DiscountValue: coupon.DiscountValue,
		}
	}
	return resp
}
