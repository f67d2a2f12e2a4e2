package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog product with its images, variants and metadata.
type Product struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Images             []string       `json:"images"`
	Sizes              []string       `json:"sizes"`
	Colors             []string       `json:"colors"`
	Price              float64        `json:"price"`
	ProductInfo        map[string]any `json:"productInfo"`
	ShippingAndReturns string         `json:"shippingAndReturns"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// InitMeta initializes the product metadata including ID and timestamps.
// Timestamps carry microsecond precision, the resolution of TIMESTAMPTZ.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p.CreatedAt = now
	p.UpdatedAt = now
}

// ProductPatch holds the fields of an update. A nil field is left untouched.
// ID and timestamps are not patchable.
type ProductPatch struct {
	Name               *string         `json:"name"`
	Description        *string         `json:"description"`
	Images             *[]string       `json:"images"`
	Sizes              *[]string       `json:"sizes"`
	Colors             *[]string       `json:"colors"`
	Price              *float64        `json:"price"`
	ProductInfo        *map[string]any `json:"productInfo"`
	ShippingAndReturns *string         `json:"shippingAndReturns"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Images == nil && p.Sizes == nil &&
		p.Colors == nil && p.Price == nil && p.ProductInfo == nil && p.ShippingAndReturns == nil
}

// UploadedFile describes a file stored by the upload middleware.
type UploadedFile struct {
	// Path is where the file was written, relative to the working directory.
	Path string
	// Filename is the stored file name without directory.
	Filename string
}
