package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	inErrors "github.com/velaire/ecommerce/internal/errors"
	"github.com/velaire/ecommerce/internal/log"
)

// Store is the remote persistence collaborator. ReplaceCart receives a full
// snapshot of the cart; the engine never issues partial updates.
type Store interface {
	GetCart(c context.Context, userId uuid.UUID) ([]LineItem, error)
	ReplaceCart(c context.Context, userId uuid.UUID, items []LineItem) error
}

// CouponValidator is the remote coupon collaborator. A rejected code is
// reported as a *CouponRejectedError carrying the user-visible reason.
type CouponValidator interface {
	Validate(c context.Context, code string, subtotal decimal.Decimal) (Coupon, error)
}

// Engine owns the cart state for a single user. Mutations run to completion
// under the mutex before the persistence snapshot is dispatched; persistence
// itself is fire-and-forget and never rolls back local state.
type Engine struct {
	mu sync.Mutex

	userId    uuid.UUID
	items     []LineItem
	coupon    *Coupon
	couponErr string
	open      bool
	version   uint64

	store     Store
	validator CouponValidator
}

func New(userId uuid.UUID, store Store, validator CouponValidator) *Engine {
	return &Engine{userId: userId, store: store, validator: validator}
}

// Load replaces the local cart wholesale with the persisted one. Without an
// identity, or when the fetch fails, the cart resets to empty; fetch failures
// are logged, not surfaced.
func (e *Engine) Load(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine Load").
		Str(log.KeyUserID, e.userId.String()).
		Logger()

	if e.userId == uuid.Nil {
		e.mu.Lock()
		e.resetLocked()
		e.mu.Unlock()
		return
	}

	items, err := e.store.GetCart(c, e.userId)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed loading cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		e.resetLocked()
		return
	}
	e.items = items
	logger.Info().Int(log.KeyCartItems, len(items)).Msg("loaded cart")
}

func (e *Engine) AddToCart(c context.Context, product Product, quantity int32) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine AddToCart").
		Str(log.KeyProductID, product.ID.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	e.mu.Lock()
	defer e.mu.Unlock()

	if product.StockQuantity <= 0 {
		logger.Info().Err(inErrors.ErrOutOfStock).Msg("rejected add to cart")
		return inErrors.ErrOutOfStock
	}

	idx := e.indexOfLocked(product.ID)
	if idx < 0 {
		capped := min(quantity, product.StockQuantity)
		if capped <= 0 {
			logger.Info().Err(inErrors.ErrInvalidQuantity).Msg("rejected add to cart")
			return inErrors.ErrInvalidQuantity
		}
		e.items = append(e.items, product.LineItem(capped))
	} else {
		item := &e.items[idx]
		if item.Quantity >= item.StockCeiling {
			logger.Info().Err(inErrors.ErrStockLimitReached).Msg("rejected add to cart")
			return inErrors.ErrStockLimitReached
		}
		next := min(item.Quantity+quantity, item.StockCeiling)
		if next == item.Quantity {
			logger.Info().Err(inErrors.ErrStockLimitReached).Msg("rejected add to cart")
			return inErrors.ErrStockLimitReached
		}
		if next < 1 {
			logger.Info().Err(inErrors.ErrInvalidQuantity).Msg("rejected add to cart")
			return inErrors.ErrInvalidQuantity
		}
		item.Quantity = next
	}

	e.open = true
	e.persistLocked(c)
	logger.Info().Msg("added to cart")
	return nil
}

// RemoveFromCart removes the line item with the given key; absent keys are a
// no-op. Emptying the cart through removal also clears the open flag and any
// applied coupon.
func (e *Engine) RemoveFromCart(c context.Context, productId uuid.UUID) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine RemoveFromCart").
		Str(log.KeyProductID, productId.String()).
		Logger()

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(productId)
	if idx < 0 {
		return
	}
	e.items = append(e.items[:idx], e.items[idx+1:]...)
	if len(e.items) == 0 {
		e.open = false
		e.coupon = nil
		e.couponErr = ""
	}
	e.persistLocked(c)
	logger.Info().Msg("removed from cart")
}

func (e *Engine) UpdateQuantity(c context.Context, productId uuid.UUID, quantity int32) {
	if quantity < 1 {
		e.RemoveFromCart(c, productId)
		return
	}

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine UpdateQuantity").
		Str(log.KeyProductID, productId.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(productId)
	if idx < 0 {
		return
	}
	item := &e.items[idx]
	item.Quantity = min(quantity, item.StockCeiling)
	e.persistLocked(c)
	logger.Info().Int32(log.KeyQuantity, item.Quantity).Msg("updated quantity")
}

func (e *Engine) Clear(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine Clear").
		Logger()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = nil
	e.open = false
	e.coupon = nil
	e.couponErr = ""
	e.persistLocked(c)
	logger.Info().Msg("cleared cart")
}

// ApplyCoupon validates the code against the current subtotal. On rejection
// the discount resets to zero and the reason is retained for display. A new
// accepted coupon replaces any previously applied one.
func (e *Engine) ApplyCoupon(c context.Context, code string) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine ApplyCoupon").
		Str(log.KeyCouponCode, code).
		Logger()

	subtotal := e.Subtotal()
	coupon, err := e.validator.Validate(c, code, subtotal)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("failed applying coupon=%s with error=%w", code, err)
		logger.Info().Err(err).Msg(err.Error())
		e.coupon = nil
		e.couponErr = rejectionMessage(err)
		return err
	}
	e.coupon = &coupon
	e.couponErr = ""
	logger.Info().
		Str(log.KeySubtotal, subtotal.String()).
		Any(log.KeyCoupon, coupon).
		Msg("applied coupon")
	return nil
}

func (e *Engine) RemoveCoupon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.coupon = nil
	e.couponErr = ""
}

// Subtotal is the sum of unit price times quantity over all line items,
// recomputed on every read.
func (e *Engine) Subtotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtotalLocked()
}

// DiscountAmount derives the discount from the applied coupon against the
// current subtotal: percentage discounts scale with the subtotal, fixed
// amounts do not.
func (e *Engine) DiscountAmount() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.discountLocked()
}

// FinalTotal is strict arithmetic: a fixed-amount discount larger than the
// subtotal yields a negative total. Clamping is left to the caller.
func (e *Engine) FinalTotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subtotalLocked().Sub(e.discountLocked())
}

func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	items := make([]LineItem, len(e.items))
	copy(items, e.items)
	return items
}

func (e *Engine) AppliedCoupon() (Coupon, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.coupon == nil {
		return Coupon{}, false
	}
	return *e.coupon, true
}

func (e *Engine) CouponError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.couponErr
}

func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

func (e *Engine) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range e.items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return subtotal
}

func (e *Engine) discountLocked() decimal.Decimal {
	if e.coupon == nil {
		return decimal.Zero
	}
	return e.coupon.DiscountAmount(e.subtotalLocked())
}

func (e *Engine) indexOfLocked(productId uuid.UUID) int {
	for i, item := range e.items {
		if item.ProductID == productId {
			return i
		}
	}
	return -1
}

func (e *Engine) resetLocked() {
	e.items = nil
	e.coupon = nil
	e.couponErr = ""
	e.open = false
}

// persistLocked snapshots the cart and pushes it to the store without
// awaiting the result. A stale write completing after a newer one can win;
// the version only makes that visible in the logs.
func (e *Engine) persistLocked(c context.Context) {
	if e.userId == uuid.Nil {
		return
	}

	snapshot := make([]LineItem, len(e.items))
	copy(snapshot, e.items)
	e.version++
	version := e.version

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEngine persist").
		Str(log.KeyUserID, e.userId.String()).
		Uint64(log.KeyCartVersion, version).
		Logger()

	c = context.WithoutCancel(c)
	go func() {
		if err := e.store.ReplaceCart(c, e.userId, snapshot); err != nil {
			err = fmt.Errorf("failed persisting cart with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Debug().Msg("persisted cart")
	}()
}
