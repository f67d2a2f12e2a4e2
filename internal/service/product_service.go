package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/metrics"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/sqs"
)

// Publisher sends product change notifications.
type Publisher interface {
	PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error
}

// CreateProductInput carries the body fields of a create request. Sizes, Colors
// and ProductInfo hold JSON-encoded values as sent in multipart forms.
type CreateProductInput struct {
	Name               string   `json:"name" validate:"required"`
	Description        string   `json:"description" validate:"required"`
	Sizes              string   `json:"sizes" validate:"required"`
	Colors             string   `json:"colors" validate:"required"`
	Price              *float64 `json:"price" validate:"required,gte=0"`
	ProductInfo        string   `json:"productInfo" validate:"required"`
	ShippingAndReturns string   `json:"shippingAndReturns"`
}

// ProductService implements product operations on top of a ProductRepository.
type ProductService struct {
	repo      repository.ProductRepository
	publisher Publisher
	validate  *validator.Validate
}

// NewProductService creates a ProductService. publisher may be nil, in which
// case no notifications are sent.
func NewProductService(repo repository.ProductRepository, publisher Publisher) *ProductService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ProductService{
		repo:      repo,
		publisher: publisher,
		validate:  validate,
	}
}

// ParseJSONField decodes a JSON-encoded form value into dst.
func ParseJSONField(field, raw string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &MalformedInputError{Field: field, Err: err}
	}
	return nil
}

// ParsePrice decodes a price sent as a form value. Empty and non-finite values
// are malformed.
func ParsePrice(raw string) (*float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, &MalformedInputError{Field: "price", Err: err}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, &MalformedInputError{Field: "price", Err: errors.New("price must be a finite number")}
	}
	return &price, nil
}

// CreateProduct validates and decodes input, then stores a new product whose
// images are the storage paths of files, in upload order.
func (ps *ProductService) CreateProduct(ctx context.Context, input CreateProductInput, files []model.UploadedFile) (*model.Product, error) {
	if err := ps.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return nil, &MalformedInputError{Field: validationErrs[0].Field(), Err: validationErrs[0]}
		}
		return nil, &MalformedInputError{Field: "body", Err: err}
	}

	product := &model.Product{
		Name:               input.Name,
		Description:        input.Description,
		Images:             make([]string, 0, len(files)),
		Price:              *input.Price,
		ShippingAndReturns: input.ShippingAndReturns,
	}
	for _, file := range files {
		product.Images = append(product.Images, file.Path)
	}
	if err := ParseJSONField("sizes", input.Sizes, &product.Sizes); err != nil {
		return nil, err
	}
	if err := ParseJSONField("colors", input.Colors, &product.Colors); err != nil {
		return nil, err
	}
	if err := ParseJSONField("productInfo", input.ProductInfo, &product.ProductInfo); err != nil {
		return nil, err
	}

	created, err := ps.repo.Create(ctx, product)
	if err != nil {
		return nil, storageErr("create", err)
	}

	metrics.ProductsCreated.Inc()
	ps.publish(ctx, sqs.ActionCreated, created)

	return created, nil
}

// ListProducts returns every product in store order.
func (ps *ProductService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	products, err := ps.repo.List(ctx)
	if err != nil {
		return nil, storageErr("list", err)
	}
	return products, nil
}

// GetProduct returns the product with the given ID or ErrNotFound.
func (ps *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := ps.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("find", err)
	}
	return product, nil
}

// GetProductImages returns only the images of the product with the given ID.
func (ps *ProductService) GetProductImages(ctx context.Context, id uuid.UUID) ([]string, error) {
	product, err := ps.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return product.Images, nil
}

// UpdateProduct applies patch to the product. When files are present they
// replace the images entirely, stored by file name.
func (ps *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, patch model.ProductPatch, files []model.UploadedFile) (*model.Product, error) {
	if len(files) > 0 {
		images := make([]string, 0, len(files))
		for _, file := range files {
			images = append(images, file.Filename)
		}
		patch.Images = &images
	}

	updated, err := ps.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, storageErr("update", err)
	}

	metrics.ProductsUpdated.Inc()
	ps.publish(ctx, sqs.ActionUpdated, updated)

	return updated, nil
}

// DeleteProduct removes the product with the given ID or returns ErrNotFound.
func (ps *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := ps.repo.DeleteByID(ctx, id)
	if err != nil {
		return storageErr("delete", err)
	}

	metrics.ProductsDeleted.Inc()
	ps.publish(ctx, sqs.ActionDeleted, deleted)

	return nil
}

func (ps *ProductService) publish(ctx context.Context, action string, product *model.Product) {
	if ps.publisher == nil {
		return
	}
	msg := sqs.ProductMessage{
		Action:    action,
		ProductID: product.ID.String(),
		Name:      product.Name,
		Price:     product.Price,
		Images:    len(product.Images),
	}
	if err := ps.publisher.PublishProductMessage(ctx, msg); err != nil {
		// Log error but don't fail the request
		slog.Error("Failed to send SQS message", slog.Any("err", err), slog.String("action", action), slog.String("product_id", msg.ProductID))
	}
}
