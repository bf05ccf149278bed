package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/velaire/ecommerce/cart/internal/engine"
	inErrors "github.com/velaire/ecommerce/internal/errors"
	"github.com/velaire/ecommerce/internal/log"
	"github.com/velaire/ecommerce/internal/otel"
)

// CartRepository persists full cart snapshots keyed by user id. It implements
// engine.Store.
type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

const findCartByUserId = `
SELECT product_id, name, brand, unit_price, original_price, quantity, stock_ceiling, image_url, size, shade
FROM user_carts
WHERE user_id = $1
ORDER BY position
`

const deleteRemovedCartItems = `
DELETE FROM user_carts
WHERE user_id = $1 AND NOT (product_id = ANY($2))
`

const upsertCartItem = `
INSERT INTO user_carts (user_id, product_id, name, brand, unit_price, original_price, quantity, stock_ceiling, image_url, size, shade, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (user_id, product_id) DO UPDATE
SET name = EXCLUDED.name,
    brand = EXCLUDED.brand,
    unit_price = EXCLUDED.unit_price,
    original_price = EXCLUDED.original_price,
    quantity = EXCLUDED.quantity,
    stock_ceiling = EXCLUDED.stock_ceiling,
    image_url = EXCLUDED.image_url,
    size = EXCLUDED.size,
    shade = EXCLUDED.shade,
    position = EXCLUDED.position,
    updated_at = now()
`

func (r *CartRepository) GetCart(c context.Context, userId uuid.UUID) ([]engine.LineItem, error) {
	c, span := otel.Tracer.Start(c, "CartRepository GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository GetCart").
		Str(log.KeyUserID, userId.String()).
		Logger()

	rows, err := r.pool.Query(c, findCartByUserId, userId)
	if err != nil {
		err = fmt.Errorf("failed finding cart by userId=%s with error=%w", userId.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	defer rows.Close()

	items := []engine.LineItem{}
	for rows.Next() {
		row := CartItemRow{}
		err = rows.Scan(
			&row.ProductID,
			&row.Name,
			&row.Brand,
			&row.UnitPrice,
			&row.OriginalPrice,
			&row.Quantity,
			&row.StockCeiling,
			&row.ImageUrl,
			&row.Size,
			&row.Shade,
		)
		if err != nil {
			err = fmt.Errorf("failed scanning cart row with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		items = append(items, row.LineItem())
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed iterating cart rows with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	logger.Info().Int(log.KeyCartItems, len(items)).Msg("found cart")
	return items, nil
}

func (r *CartRepository) ReplaceCart(
	c context.Context,
	userId uuid.UUID,
	items []engine.LineItem,
) error {
	c, span := otel.Tracer.Start(c, "CartRepository ReplaceCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRepository ReplaceCart").
		Str(log.KeyUserID, userId.String()).
		Int(log.KeyCartItems, len(items)).
		Logger()

	tx, err := r.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed initializing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	productIds := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIds[i] = item.ProductID
	}
	_, err = tx.Exec(c, deleteRemovedCartItems, userId, productIds)
	if err != nil {
		err = fmt.Errorf("failed deleting removed cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(
			upsertCartItem,
			userId,
			item.ProductID,
			item.Name,
			item.Brand,
			numericFromDecimal(item.UnitPrice),
			numericFromDecimal(item.OriginalPrice),
			item.Quantity,
			item.StockCeiling,
			item.Image,
			item.Size,
			item.Shade,
			i,
		)
	}
	err = tx.SendBatch(c, batch).Close()
	if err != nil {
		err = fmt.Errorf("failed upserting cart items with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	err = tx.Commit(c)
	if err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Info().Msg("replaced cart")
	return nil
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
