package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/product-catalog/internal/http/middleware"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/service"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// CreateProductRequest represents the form fields of a create request.
// Sizes, Colors and ProductInfo are JSON-encoded strings. Price is kept raw so
// an empty value is not mistaken for zero.
type CreateProductRequest struct {
	Name               string  `form:"name"`
	Description        string  `form:"description"`
	Sizes              string  `form:"sizes"`
	Colors             string  `form:"colors"`
	Price              *string `form:"price"`
	ProductInfo        string  `form:"productInfo"`
	ShippingAndReturns string  `form:"shippingAndReturns"`
}

// UpdateProductForm represents the form fields of a multipart update request.
// Absent fields are left untouched.
type UpdateProductForm struct {
	Name               *string `form:"name"`
	Description        *string `form:"description"`
	Sizes              *string `form:"sizes"`
	Colors             *string `form:"colors"`
	Price              *string `form:"price"`
	ProductInfo        *string `form:"productInfo"`
	ShippingAndReturns *string `form:"shippingAndReturns"`
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product data", "error": err.Error()})
		return
	}

	input := service.CreateProductInput{
		Name:               req.Name,
		Description:        req.Description,
		Sizes:              req.Sizes,
		Colors:             req.Colors,
		ProductInfo:        req.ProductInfo,
		ShippingAndReturns: req.ShippingAndReturns,
	}
	if req.Price != nil {
		price, err := service.ParsePrice(*req.Price)
		if err != nil {
			respondError(c, "Error adding product", err)
			return
		}
		input.Price = price
	}

	product, err := pc.productService.CreateProduct(c.Request.Context(), input, middleware.UploadedFiles(c))
	if err != nil {
		respondError(c, "Error adding product", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product added successfully!",
		"product": product,
	})
}

// ListProducts handles the HTTP GET request for listing all products.
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.productService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, "Error fetching products", err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct handles the HTTP GET request for a single product by ID.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := pc.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Error fetching product", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT and PATCH requests. The body is either JSON or a
// multipart form; images uploaded with the form replace the stored images.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var (
		patch model.ProductPatch
		err   error
	)
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm, gin.MIMEPOSTForm:
		patch, err = bindUpdateForm(c)
	default:
		err = c.ShouldBindJSON(&patch)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		var malformed *service.MalformedInputError
		if !errors.As(err, &malformed) {
			err = &service.MalformedInputError{Field: "body", Err: err}
		}
		respondError(c, "Error updating product", err)
		return
	}

	product, err := pc.productService.UpdateProduct(c.Request.Context(), id, patch, middleware.UploadedFiles(c))
	if err != nil {
		respondError(c, "Error updating product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := pc.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, "Error deleting product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetProductImages handles the HTTP GET request for the images of a product.
func (pc *ProductController) GetProductImages(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	images, err := pc.productService.GetProductImages(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Error fetching product images", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"images": images})
}

func bindUpdateForm(c *gin.Context) (model.ProductPatch, error) {
	var (
		form  UpdateProductForm
		patch model.ProductPatch
	)
	if err := c.ShouldBind(&form); err != nil {
		return patch, err
	}

	patch.Name = form.Name
	patch.Description = form.Description
	patch.ShippingAndReturns = form.ShippingAndReturns

	if form.Price != nil {
		price, err := service.ParsePrice(*form.Price)
		if err != nil {
			return patch, err
		}
		patch.Price = price
	}

	if form.Sizes != nil {
		var sizes []string
		if err := service.ParseJSONField("sizes", *form.Sizes, &sizes); err != nil {
			return patch, err
		}
		patch.Sizes = &sizes
	}
	if form.Colors != nil {
		var colors []string
		if err := service.ParseJSONField("colors", *form.Colors, &colors); err != nil {
			return patch, err
		}
		patch.Colors = &colors
	}
	if form.ProductInfo != nil {
		var info map[string]any
		if err := service.ParseJSONField("productInfo", *form.ProductInfo, &info); err != nil {
			return patch, err
		}
		patch.ProductInfo = &info
	}

	return patch, nil
}

// productID parses the :id path parameter. An id that cannot name a product
// is answered as not found.
func productID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, message string, err error) {
	var malformed *service.MalformedInputError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product data", "error": err.Error()})
	default:
		slog.Error(message, slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": message, "error": err.Error()})
	}
}
