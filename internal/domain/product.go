package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType is the category of a product.
// The catalog accepts the enumerated values below or free text.
type ProductType string

const (
	ProductTypeProduct     ProductType = "Product"
	ProductTypeBook        ProductType = "Book"
	ProductTypeElectronics ProductType = "Electronics"
	ProductTypeGrocery     ProductType = "Grocery"
	ProductTypeOther       ProductType = "Other"
)

// ProductTypes lists the enumerated types in the order a picker shows them.
func ProductTypes() []ProductType {
	return []ProductType{
		ProductTypeProduct,
		ProductTypeBook,
		ProductTypeElectronics,
		ProductTypeGrocery,
		ProductTypeOther,
	}
}

// Product represents one catalog item as this client knows it.
// ID is generated on the client when the product is decoded or built, so it never
// matches a server identifier. IsFavorite is session state and is never sent back.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"product_name"`
	Type       ProductType     `json:"product_type"`
	Price      decimal.Decimal `json:"price"`
	Tax        decimal.Decimal `json:"tax"` // percentage
	ImageURL   *string         `json:"image,omitempty"`
	IsFavorite bool            `json:"is_favorite"`
}

// AddProductResult is the server acknowledgement of a submission.
type AddProductResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Product   *Product `json:"product_details,omitempty"`
	ProductID int64    `json:"product_id"`
}

// Image is an encoded image buffer with its declared MIME type.
type Image struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type,omitempty"`
}

// LocalProductRecord is one row of the on-device product store.
// ID is the storage-native identity assigned on Create. ProductID optionally links
// the row to the client id a submission was sent with.
type LocalProductRecord struct {
	ID        int64           `json:"id"`
	ProductID *string         `json:"product_id,omitempty"`
	Name      string          `json:"product_name"`
	Type      ProductType     `json:"product_type"`
	Price     decimal.Decimal `json:"price"`
	Tax       decimal.Decimal `json:"tax"`
	Image     []byte          `json:"image,omitempty"`
	ImageType string          `json:"image_type,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
