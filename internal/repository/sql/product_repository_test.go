package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "name", "description", "images", "sizes", "colors", "price",
	"product_info", "shipping_and_returns", "created_at", "updated_at",
}

func TestProductRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("returns the stored row", func(t *testing.T) {
		product := &model.Product{
			Name:               "Linen Shirt",
			Description:        "Breathable summer shirt",
			Images:             []string{"uploads/a.png", "uploads/b.png"},
			Sizes:              []string{"S", "M"},
			Colors:             []string{"white"},
			Price:              49.5,
			ProductInfo:        map[string]any{"material": "linen"},
			ShippingAndReturns: "30 days",
		}
		storedID := uuid.New()
		storedAt := time.Date(2026, 10, 15, 9, 30, 12, 298804000, time.UTC)

		rows := sqlmock.NewRows(productRowColumns).
			AddRow(storedID.String(), "Linen Shirt", "Breathable summer shirt", "{uploads/a.png,uploads/b.png}", "{S,M}", "{white}", 49.5,
				[]byte(`{"material":"linen"}`), "30 days", storedAt, storedAt)

		mock.ExpectPrepare("INSERT INTO products (.+) RETURNING").
			ExpectQuery().
			WithArgs(sqlmock.AnyArg(), product.Name, product.Description,
				pq.Array([]string{"uploads/a.png", "uploads/b.png"}), pq.Array([]string{"S", "M"}), pq.Array([]string{"white"}),
				product.Price, []byte(`{"material":"linen"}`), product.ShippingAndReturns,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(rows)

		created, err := repo.Create(ctx, product)
		require.NoError(t, err)

		assert.Equal(t, storedID, created.ID)
		assert.Equal(t, storedAt, created.CreatedAt)
		assert.Equal(t, storedAt, created.UpdatedAt)
		assert.Equal(t, []string{"uploads/a.png", "uploads/b.png"}, created.Images)
		assert.Equal(t, map[string]any{"material": "linen"}, created.ProductInfo)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigns id and microsecond timestamps before insert", func(t *testing.T) {
		product := &model.Product{Name: "Cap", Description: "Plain cap", Price: 10}
		now := time.Now()

		mock.ExpectPrepare("INSERT INTO products").
			ExpectQuery().
			WithArgs(sqlmock.AnyArg(), "Cap", "Plain cap",
				pq.Array([]string{}), pq.Array([]string{}), pq.Array([]string{}),
				10.0, []byte(`{}`), "",
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(productRowColumns).
				AddRow(uuid.New().String(), "Cap", "Plain cap", "{}", "{}", "{}", 10.0, []byte(`{}`), "", now, now))

		created, err := repo.Create(ctx, product)
		require.NoError(t, err)
		assert.Equal(t, []string{}, created.Images)
		assert.Equal(t, map[string]any{}, created.ProductInfo)

		assert.NotEqual(t, uuid.Nil, product.ID)
		assert.Equal(t, product.CreatedAt, product.CreatedAt.Truncate(time.Microsecond))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		mock.ExpectPrepare("INSERT INTO products").
			ExpectQuery().
			WillReturnError(errors.New("connection reset"))

		created, err := repo.Create(ctx, &model.Product{Name: "X"})
		require.Error(t, err)
		assert.Nil(t, created)
		assert.Contains(t, err.Error(), "failed to insert product")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful find", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(productRowColumns).
			AddRow(id.String(), "Linen Shirt", "Breathable", "{uploads/a.png,uploads/b.png}", "{S,M}", "{white}", 49.5,
				[]byte(`{"material":"linen"}`), "30 days", now, now)

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(rows)

		found, err := repo.FindByID(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Linen Shirt", found.Name)
		assert.Equal(t, []string{"uploads/a.png", "uploads/b.png"}, found.Images)
		assert.Equal(t, []string{"S", "M"}, found.Sizes)
		assert.Equal(t, []string{"white"}, found.Colors)
		assert.Equal(t, 49.5, found.Price)
		assert.Equal(t, map[string]any{"material": "linen"}, found.ProductInfo)
		assert.Equal(t, "30 days", found.ShippingAndReturns)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1").
			ExpectQuery().
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		found, err := repo.FindByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, found)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("list all", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(productRowColumns).
			AddRow(uuid.New().String(), "Product 1", "Description 1", "{}", "{}", "{}", 9.99, []byte(`{}`), "", now, now).
			AddRow(uuid.New().String(), "Product 2", "Description 2", "{p.png}", "{L}", "{red}", 19.99, []byte(`{"fit":"slim"}`), "", now, now)

		mock.ExpectPrepare("SELECT (.+) FROM products ORDER BY created_at ASC, id ASC").
			ExpectQuery().
			WillReturnRows(rows)

		products, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Product 1", products[0].Name)
		assert.Equal(t, []string{}, products[0].Images)
		assert.Equal(t, []string{"p.png"}, products[1].Images)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table returns empty slice", func(t *testing.T) {
		mock.ExpectPrepare("SELECT (.+) FROM products").
			ExpectQuery().
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		products, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("updates only present fields", func(t *testing.T) {
		id := uuid.New()
		price := 42.0
		now := time.Now()

		rows := sqlmock.NewRows(productRowColumns).
			AddRow(id.String(), "Linen Shirt", "Breathable", "{a.png}", "{S}", "{white}", 42.0, []byte(`{}`), "", now, now)

		mock.ExpectPrepare("UPDATE products SET price = \\$1, updated_at = \\$2 WHERE id = \\$3 RETURNING").
			ExpectQuery().
			WithArgs(price, sqlmock.AnyArg(), id).
			WillReturnRows(rows)

		updated, err := repo.Update(ctx, id, model.ProductPatch{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, 42.0, updated.Price)
		assert.Equal(t, "Linen Shirt", updated.Name)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replaces images wholesale", func(t *testing.T) {
		id := uuid.New()
		images := []string{"f1.png", "f2.png"}
		now := time.Now()

		rows := sqlmock.NewRows(productRowColumns).
			AddRow(id.String(), "Linen Shirt", "Breathable", "{f1.png,f2.png}", "{}", "{}", 10.0, []byte(`{}`), "", now, now)

		mock.ExpectPrepare("UPDATE products SET images = \\$1, updated_at = \\$2 WHERE id = \\$3").
			ExpectQuery().
			WithArgs(pq.Array(images), sqlmock.AnyArg(), id).
			WillReturnRows(rows)

		updated, err := repo.Update(ctx, id, model.ProductPatch{Images: &images})
		require.NoError(t, err)
		assert.Equal(t, images, updated.Images)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()
		name := "Renamed"

		mock.ExpectPrepare("UPDATE products SET name = \\$1, updated_at = \\$2 WHERE id = \\$3").
			ExpectQuery().
			WithArgs(name, sqlmock.AnyArg(), id).
			WillReturnError(sql.ErrNoRows)

		updated, err := repo.Update(ctx, id, model.ProductPatch{Name: &name})
		require.Error(t, err)
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(productRowColumns).
			AddRow(id.String(), "Cap", "Plain cap", "{}", "{}", "{}", 10.0, []byte(`{}`), "", now, now)

		mock.ExpectPrepare("DELETE FROM products WHERE id = \\$1 RETURNING").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(rows)

		deleted, err := repo.DeleteByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, deleted.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("DELETE FROM products WHERE id").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		deleted, err := repo.DeleteByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, deleted)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
