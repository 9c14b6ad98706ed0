package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Draft is user-entered product data that has not been submitted yet.
// Price and Tax stay as the raw text the user typed until validation parses them.
type Draft struct {
	Name  string      `json:"product_name" validate:"required"`
	Type  ProductType `json:"product_type"`
	Price string      `json:"price" validate:"required,decimal_gte0"`
	Tax   string      `json:"tax" validate:"required,decimal_gte0"`
	Image *Image      `json:"image,omitempty"`
}

// NewDraft returns an empty draft with the default product type.
func NewDraft() Draft {
	return Draft{Type: ProductTypeProduct}
}

// ProductType returns the draft's type, falling back to Product when unset.
func (d Draft) ProductType() ProductType {
	if strings.TrimSpace(string(d.Type)) == "" {
		return ProductTypeProduct
	}
	return d.Type
}

// ParsedPrice parses Price. Callers validate first.
func (d Draft) ParsedPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(d.Price)
}

// ParsedTax parses Tax. Callers validate first.
func (d Draft) ParsedTax() (decimal.Decimal, error) {
	return decimal.NewFromString(d.Tax)
}
