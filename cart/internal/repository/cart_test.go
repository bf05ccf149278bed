package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/velaire/ecommerce/cart/internal/engine"
)

func setupRepository(t *testing.T, c context.Context) *CartRepository {
	t.Helper()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_PORT":     "5432",
			"POSTGRES_USER":     "postgres",
		}),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join("..", "..", "..", "migrations", "20250116083000_create_table_user_carts.up.sql"),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	pgConnStr, err := pgContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pool, err := pgxpool.New(c, pgConnStr)
	if err != nil {
		t.Fatalf("failed initializing postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)

	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}

	return NewCartRepository(pool)
}

func lineItem(name, price string, quantity, stock int32) engine.LineItem {
	return engine.LineItem{
		ProductID:     uuid.New(),
		Name:          name,
		Brand:         "Velaire",
		UnitPrice:     decimal.RequireFromString(price),
		OriginalPrice: decimal.RequireFromString(price),
		Quantity:      quantity,
		StockCeiling:  stock,
		Image:         "https://cdn.example.com/" + name + ".jpg",
		Size:          "30ml",
	}
}

func TestCartRoundTrip(t *testing.T) {
	c := context.Background()
	repository := setupRepository(t, c)
	userId := uuid.New()

	items := []engine.LineItem{
		lineItem("hydrating-serum", "42.50", 2, 10),
		lineItem("night-cream", "19.99", 1, 5),
		lineItem("cleansing-oil", "12.00", 3, 3),
	}
	assert.NoError(t, repository.ReplaceCart(c, userId, items))

	got, err := repository.GetCart(c, userId)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	for i := range items {
		assert.Equal(t, items[i].ProductID, got[i].ProductID)
		assert.Equal(t, items[i].Name, got[i].Name)
		assert.Equal(t, items[i].Quantity, got[i].Quantity)
		assert.Equal(t, items[i].StockCeiling, got[i].StockCeiling)
		assert.True(t, items[i].UnitPrice.Equal(got[i].UnitPrice))
		assert.True(t, items[i].OriginalPrice.Equal(got[i].OriginalPrice))
	}
}

func TestReplaceCartRemovesStaleRows(t *testing.T) {
	c := context.Background()
	repository := setupRepository(t, c)
	userId := uuid.New()

	first := lineItem("hydrating-serum", "42.50", 2, 10)
	second := lineItem("night-cream", "19.99", 1, 5)
	assert.NoError(t, repository.ReplaceCart(c, userId, []engine.LineItem{first, second}))

	first.Quantity = 5
	assert.NoError(t, repository.ReplaceCart(c, userId, []engine.LineItem{first}))

	got, err := repository.GetCart(c, userId)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, first.ProductID, got[0].ProductID)
	assert.Equal(t, int32(5), got[0].Quantity)
}

func TestReplaceCartWithEmptySnapshotClearsCart(t *testing.T) {
	c := context.Background()
	repository := setupRepository(t, c)
	userId := uuid.New()

	assert.NoError(
		t,
		repository.ReplaceCart(c, userId, []engine.LineItem{lineItem("night-cream", "19.99", 1, 5)}),
	)
	assert.NoError(t, repository.ReplaceCart(c, userId, nil))

	got, err := repository.GetCart(c, userId)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceCartPreservesInsertionOrder(t *testing.T) {
	c := context.Background()
	repository := setupRepository(t, c)
	userId := uuid.New()

	items := []engine.LineItem{
		lineItem("cleansing-oil", "12.00", 1, 3),
		lineItem("hydrating-serum", "42.50", 1, 10),
		lineItem("night-cream", "19.99", 1, 5),
	}
	assert.NoError(t, repository.ReplaceCart(c, userId, items))

	// reorder by moving the first item to the back
	reordered := append(items[1:], items[0])
	assert.NoError(t, repository.ReplaceCart(c, userId, reordered))

	got, err := repository.GetCart(c, userId)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	for i := range reordered {
		assert.Equal(t, reordered[i].ProductID, got[i].ProductID)
	}
}

func TestGetCartForUnknownUserReturnsEmpty(t *testing.T) {
	c := context.Background()
	repository := setupRepository(t, c)

	got, err := repository.GetCart(c, uuid.New())
	assert.NoError(t, err)
	assert.Empty(t, got)
}
