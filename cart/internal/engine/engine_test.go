package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	inErrors "github.com/velaire/ecommerce/internal/errors"
)

type fakeStore struct {
	mu       sync.Mutex
	carts    map[uuid.UUID][]LineItem
	getErr   error
	replaced int
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: map[uuid.UUID][]LineItem{}}
}

func (s *fakeStore) GetCart(_ context.Context, userId uuid.UUID) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.carts[userId], nil
}

func (s *fakeStore) ReplaceCart(_ context.Context, userId uuid.UUID, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userId] = items
	s.replaced++
	return nil
}

func (s *fakeStore) replacedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaced
}

func (s *fakeStore) storedItems(userId uuid.UUID) []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userId]
}

type fakeValidator struct {
	coupon Coupon
	err    error
}

func (v *fakeValidator) Validate(
	_ context.Context,
	_ string,
	_ decimal.Decimal,
) (Coupon, error) {
	if v.err != nil {
		return Coupon{}, v.err
	}
	return v.coupon, nil
}

func testProduct(stock int32, price string) Product {
	return Product{
		ID:            uuid.New(),
		Name:          "Velvet Matte Lipstick",
		Brand:         "Velaire",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func TestAddToCart(t *testing.T) {
	tests := []struct {
		name         string
		stock        int32
		addQuantity  []int32
		expectedErr  []error
		expectedQty  int32
		expectedOpen bool
	}{
		{
			name:         "given quantity below stock should add full quantity",
			stock:        10,
			addQuantity:  []int32{3},
			expectedErr:  []error{nil},
			expectedQty:  3,
			expectedOpen: true,
		},
		{
			name:         "given quantity above stock should cap at stock ceiling",
			stock:        5,
			addQuantity:  []int32{8},
			expectedErr:  []error{nil},
			expectedQty:  5,
			expectedOpen: true,
		},
		{
			name:         "given repeated adds should accumulate up to stock ceiling",
			stock:        5,
			addQuantity:  []int32{3, 3},
			expectedErr:  []error{nil, nil},
			expectedQty:  5,
			expectedOpen: true,
		},
		{
			name:         "given add at stock ceiling should reject with stock limit reached",
			stock:        2,
			addQuantity:  []int32{2, 1},
			expectedErr:  []error{nil, inErrors.ErrStockLimitReached},
			expectedQty:  2,
			expectedOpen: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := context.Background()
			e := New(uuid.New(), newFakeStore(), &fakeValidator{})

			product := testProduct(tt.stock, "10.00")
			for i, quantity := range tt.addQuantity {
				err := e.AddToCart(c, product, quantity)
				assert.ErrorIs(t, err, tt.expectedErr[i])
			}

			items := e.Items()
			assert.Len(t, items, 1)
			assert.Equal(t, tt.expectedQty, items[0].Quantity)
			assert.Equal(t, tt.stock, items[0].StockCeiling)
			assert.Equal(t, tt.expectedOpen, e.IsOpen())
		})
	}
}

func TestAddToCartOutOfStock(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{})

	err := e.AddToCart(c, testProduct(0, "10.00"), 1)
	assert.ErrorIs(t, err, inErrors.ErrOutOfStock)
	assert.Empty(t, e.Items())
	assert.False(t, e.IsOpen())
}

func TestAddToCartCapturesPriceAtAddTime(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{})

	product := testProduct(10, "19.99")
	assert.NoError(t, e.AddToCart(c, product, 1))

	product.Price = decimal.RequireFromString("24.99")
	items := e.Items()
	assert.True(t, items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, items[0].OriginalPrice.Equal(decimal.RequireFromString("19.99")))
}

func TestRemoveFromCart(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	})

	first := testProduct(10, "10.00")
	second := testProduct(10, "20.00")
	assert.NoError(t, e.AddToCart(c, first, 1))
	assert.NoError(t, e.AddToCart(c, second, 1))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))

	e.RemoveFromCart(c, first.ID)
	assert.Len(t, e.Items(), 1)
	assert.True(t, e.IsOpen())
	_, applied := e.AppliedCoupon()
	assert.True(t, applied)

	// removing an absent key is a no-op
	e.RemoveFromCart(c, first.ID)
	assert.Len(t, e.Items(), 1)

	// emptying the cart closes it and drops the coupon
	e.RemoveFromCart(c, second.ID)
	assert.Empty(t, e.Items())
	assert.False(t, e.IsOpen())
	_, applied = e.AppliedCoupon()
	assert.False(t, applied)
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name        string
		stock       int32
		quantity    int32
		expectedQty int32
		removed     bool
	}{
		{
			name:        "given quantity within stock should update",
			stock:       10,
			quantity:    7,
			expectedQty: 7,
		},
		{
			name:        "given quantity above stock should clamp to stock ceiling",
			stock:       5,
			quantity:    9,
			expectedQty: 5,
		},
		{
			name:     "given quantity zero should remove line item",
			stock:    10,
			quantity: 0,
			removed:  true,
		},
		{
			name:     "given negative quantity should remove line item",
			stock:    10,
			quantity: -3,
			removed:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := context.Background()
			e := New(uuid.New(), newFakeStore(), &fakeValidator{})

			product := testProduct(tt.stock, "10.00")
			assert.NoError(t, e.AddToCart(c, product, 1))

			e.UpdateQuantity(c, product.ID, tt.quantity)
			if tt.removed {
				assert.Empty(t, e.Items())
				return
			}
			items := e.Items()
			assert.Len(t, items, 1)
			assert.Equal(t, tt.expectedQty, items[0].Quantity)
		})
	}
}

func TestClear(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	})

	assert.NoError(t, e.AddToCart(c, testProduct(10, "10.00"), 2))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))

	e.Clear(c)
	assert.Empty(t, e.Items())
	assert.False(t, e.IsOpen())
	_, applied := e.AppliedCoupon()
	assert.False(t, applied)
	assert.True(t, e.Subtotal().IsZero())
}

func TestSubtotal(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{})

	assert.NoError(t, e.AddToCart(c, testProduct(10, "10.50"), 2))
	assert.NoError(t, e.AddToCart(c, testProduct(10, "5.25"), 3))

	assert.True(t, e.Subtotal().Equal(decimal.RequireFromString("36.75")))
}

func TestApplyCouponPercentageRecomputes(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	})

	product := testProduct(10, "100.00")
	assert.NoError(t, e.AddToCart(c, product, 1))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))
	assert.True(t, e.DiscountAmount().Equal(decimal.RequireFromString("10")))
	assert.True(t, e.FinalTotal().Equal(decimal.RequireFromString("90")))

	// percentage discount follows the subtotal without re-validation
	e.UpdateQuantity(c, product.ID, 2)
	assert.True(t, e.DiscountAmount().Equal(decimal.RequireFromString("20")))
	assert.True(t, e.FinalTotal().Equal(decimal.RequireFromString("180")))
}

func TestApplyCouponFixedAmountStaysConstant(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "MINUS20", DiscountType: DiscountTypeFixedAmount, DiscountValue: decimal.NewFromInt(20)},
	})

	product := testProduct(10, "50.00")
	assert.NoError(t, e.AddToCart(c, product, 2))
	assert.NoError(t, e.ApplyCoupon(c, "MINUS20"))
	assert.True(t, e.DiscountAmount().Equal(decimal.NewFromInt(20)))

	e.UpdateQuantity(c, product.ID, 4)
	assert.True(t, e.DiscountAmount().Equal(decimal.NewFromInt(20)))
	assert.True(t, e.FinalTotal().Equal(decimal.NewFromInt(180)))
}

func TestFinalTotalCanGoNegative(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "MINUS20", DiscountType: DiscountTypeFixedAmount, DiscountValue: decimal.NewFromInt(20)},
	})

	assert.NoError(t, e.AddToCart(c, testProduct(10, "5.00"), 1))
	assert.NoError(t, e.ApplyCoupon(c, "MINUS20"))

	assert.True(t, e.FinalTotal().Equal(decimal.NewFromInt(-15)))
}

func TestApplyCouponRejectionRetainsMessage(t *testing.T) {
	c := context.Background()
	validator := &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	}
	e := New(uuid.New(), newFakeStore(), validator)

	assert.NoError(t, e.AddToCart(c, testProduct(10, "10.00"), 1))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))

	validator.err = &CouponRejectedError{Message: "this coupon has expired"}
	err := e.ApplyCoupon(c, "EXPIRED")
	assert.Error(t, err)

	// rejection drops the previous coupon but keeps the reason for display
	_, applied := e.AppliedCoupon()
	assert.False(t, applied)
	assert.Equal(t, "this coupon has expired", e.CouponError())
	assert.True(t, e.DiscountAmount().IsZero())
}

func TestApplyCouponReplacesPrevious(t *testing.T) {
	c := context.Background()
	validator := &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	}
	e := New(uuid.New(), newFakeStore(), validator)

	assert.NoError(t, e.AddToCart(c, testProduct(10, "100.00"), 1))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))

	validator.coupon = Coupon{Code: "SAVE25", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(25)}
	assert.NoError(t, e.ApplyCoupon(c, "SAVE25"))

	coupon, applied := e.AppliedCoupon()
	assert.True(t, applied)
	assert.Equal(t, "SAVE25", coupon.Code)
	assert.True(t, e.DiscountAmount().Equal(decimal.NewFromInt(25)))
}

func TestRemoveCoupon(t *testing.T) {
	c := context.Background()
	e := New(uuid.New(), newFakeStore(), &fakeValidator{
		coupon: Coupon{Code: "SAVE10", DiscountType: DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)},
	})

	assert.NoError(t, e.AddToCart(c, testProduct(10, "100.00"), 1))
	assert.NoError(t, e.ApplyCoupon(c, "SAVE10"))

	e.RemoveCoupon()
	_, applied := e.AppliedCoupon()
	assert.False(t, applied)
	assert.True(t, e.DiscountAmount().IsZero())
	assert.True(t, e.FinalTotal().Equal(decimal.NewFromInt(100)))
}

func TestLoadReplacesLocalCart(t *testing.T) {
	c := context.Background()
	userId := uuid.New()
	store := newFakeStore()
	persisted := []LineItem{
		testProduct(10, "10.00").LineItem(2),
		testProduct(5, "3.00").LineItem(1),
	}
	store.carts[userId] = persisted

	e := New(userId, store, &fakeValidator{})
	e.Load(c)

	items := e.Items()
	assert.Len(t, items, 2)
	assert.True(t, e.Subtotal().Equal(decimal.RequireFromString("23")))
}

func TestLoadWithFetchErrorResetsCart(t *testing.T) {
	c := context.Background()
	store := newFakeStore()
	store.getErr = context.DeadlineExceeded

	e := New(uuid.New(), store, &fakeValidator{})
	e.Load(c)
	assert.Empty(t, e.Items())
	assert.False(t, e.IsOpen())
}

func TestMutationsPersistSnapshot(t *testing.T) {
	c := context.Background()
	userId := uuid.New()
	store := newFakeStore()
	e := New(userId, store, &fakeValidator{})

	product := testProduct(10, "10.00")
	assert.NoError(t, e.AddToCart(c, product, 2))

	assert.Eventually(t, func() bool {
		items := store.storedItems(userId)
		return len(items) == 1 && items[0].Quantity == 2
	}, time.Second, 10*time.Millisecond)

	e.RemoveFromCart(c, product.ID)
	assert.Eventually(t, func() bool {
		return len(store.storedItems(userId)) == 0 && store.replacedCount() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestNoPersistenceWithoutIdentity(t *testing.T) {
	c := context.Background()
	store := newFakeStore()
	e := New(uuid.Nil, store, &fakeValidator{})

	assert.NoError(t, e.AddToCart(c, testProduct(10, "10.00"), 1))
	assert.Len(t, e.Items(), 1)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, store.replacedCount())
}
