package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pqUniqueViolationErrCode = "23505" // PostgreSQL unique violation error code. See https://www.postgresql.org/docs/14/errcodes-appendix.html

	productColumns = "id, name, description, images, sizes, colors, price, product_info, shipping_and_returns, created_at, updated_at"
)

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	db dbExecutor
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		product     model.Product
		productInfo []byte
	)
	err := row.Scan(
		&product.ID, &product.Name, &product.Description,
		pq.Array(&product.Images), pq.Array(&product.Sizes), pq.Array(&product.Colors),
		&product.Price, &productInfo, &product.ShippingAndReturns,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(productInfo) > 0 {
		if err := json.Unmarshal(productInfo, &product.ProductInfo); err != nil {
			return nil, fmt.Errorf("failed to decode product_info: %w", err)
		}
	}
	normalize(&product)

	return &product, nil
}

// normalize replaces nil collections so they serialize as [] and {} instead of null.
func normalize(product *model.Product) {
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Sizes == nil {
		product.Sizes = []string{}
	}
	if product.Colors == nil {
		product.Colors = []string{}
	}
	if product.ProductInfo == nil {
		product.ProductInfo = map[string]any{}
	}
}

// Create inserts a new product and returns the row as stored.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	// Only initialize metadata if not already set
	if product.ID == uuid.Nil {
		product.InitMeta()
	}
	normalize(product)

	productInfo, err := json.Marshal(product.ProductInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product_info: %w", err)
	}

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING ` + productColumns

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	created, err := scanProduct(stmt.QueryRowContext(ctx,
		product.ID, product.Name, product.Description,
		pq.Array(product.Images), pq.Array(product.Sizes), pq.Array(product.Colors),
		product.Price, productInfo, product.ShippingAndReturns,
		product.CreatedAt, product.UpdatedAt,
	))
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return created, nil
}

// List retrieves all products in creation order.
func (r *ProductRepository) List(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at ASC, id ASC`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

// FindByID retrieves a single product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return r.queryOne(ctx, query, "select", id)
}

// Update applies the present fields of patch to the product in a single statement
// and returns the product as stored after the update.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, patch model.ProductPatch) (*model.Product, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Images != nil {
		set("images", pq.Array(nonNil(*patch.Images)))
	}
	if patch.Sizes != nil {
		set("sizes", pq.Array(nonNil(*patch.Sizes)))
	}
	if patch.Colors != nil {
		set("colors", pq.Array(nonNil(*patch.Colors)))
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.ProductInfo != nil {
		info := *patch.ProductInfo
		if info == nil {
			info = map[string]any{}
		}
		data, err := json.Marshal(info)
		if err != nil {
			return nil, fmt.Errorf("failed to encode product_info: %w", err)
		}
		set("product_info", data)
	}
	if patch.ShippingAndReturns != nil {
		set("shipping_and_returns", *patch.ShippingAndReturns)
	}
	set("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), productColumns)

	return r.queryOne(ctx, query, "update", args...)
}

// DeleteByID deletes a product by ID and returns the deleted row.
func (r *ProductRepository) DeleteByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	return r.queryOne(ctx, query, "delete", id)
}

func (r *ProductRepository) queryOne(ctx context.Context, query, op string, args ...interface{}) (*model.Product, error) {
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s statement: %w", op, err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to %s product: %w", op, err)
	}

	return product, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
