package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/velaire/ecommerce/cart/internal/engine"
)

// CartItemRow is the storage shape of a persisted line item.
type CartItemRow struct {
	ProductID     uuid.UUID
	Name          string
	Brand         string
	UnitPrice     pgtype.Numeric
	OriginalPrice pgtype.Numeric
	Quantity      int32
	StockCeiling  int32
	ImageUrl      string
	Size          string
	Shade         string
}

// LineItem normalizes the storage row into the engine's line-item shape,
// defaulting a missing original price to the unit price.
func (r CartItemRow) LineItem() engine.LineItem {
	unitPrice := decimal.NewFromBigInt(r.UnitPrice.Int, r.UnitPrice.Exp)
	originalPrice := unitPrice
	if r.OriginalPrice.Valid {
		originalPrice = decimal.NewFromBigInt(r.OriginalPrice.Int, r.OriginalPrice.Exp)
	}
	return engine.LineItem{
		ProductID:     r.ProductID,
		Name:          r.Name,
		Brand:         r.Brand,
		UnitPrice:     unitPrice,
		OriginalPrice: originalPrice,
		Quantity:      r.Quantity,
		StockCeiling:  r.StockCeiling,
		Image:         r.ImageUrl,
		Size:          r.Size,
		Shade:         r.Shade,
	}
}
