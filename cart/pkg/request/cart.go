package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddCartItem struct {
	ProductId     uuid.UUID       `validate:"required,uuid"  json:"product_id"`
	Name          string          `validate:"required"       json:"name"`
	Brand         string          `                          json:"brand"`
	Price         decimal.Decimal `validate:"required"       json:"price"`
	OriginalPrice decimal.Decimal `                          json:"original_price"`
	Quantity      int32           `validate:"required,gte=1" json:"quantity"`
	StockQuantity int32           `validate:"required"       json:"stock_quantity"`
	ImageUrl      string          `                          json:"image_url"`
	Size          string          `                          json:"size"`
	Shade         string          `                          json:"shade"`
}

type UpdateCartItem struct {
	Quantity int32 `validate:"required" json:"quantity"`
}

type ApplyCoupon struct {
	Code string `validate:"required" json:"code"`
}
