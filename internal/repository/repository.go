package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/model"
)

var (
	// ErrNotFound is returned when no product matches the requested ID.
	ErrNotFound = errors.New("resource not found")
)

// ProductRepository defines the storage operations available for products.
// Each method is a single atomic call against the store.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	List(ctx context.Context) ([]*model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// Update applies the present fields of patch and returns the updated product.
	Update(ctx context.Context, id uuid.UUID, patch model.ProductPatch) (*model.Product, error)
	// DeleteByID removes the product and returns it as it was before deletion.
	DeleteByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// UniqueConstraintError represents a database unique constraint violation error.
type UniqueConstraintError struct {
	Detail string
}

func (u *UniqueConstraintError) Error() string {
	return "resource must be unique: " + u.Detail
}
