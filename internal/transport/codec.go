package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	"product-catalog-client/internal/domain"
	"product-catalog-client/internal/id"
)

// Multipart layout expected by the add endpoint.
const (
	imageFieldName   = "files[]"
	imageFileName    = "image.jpg"
	defaultImageType = "image/jpeg"
)

// Raw API response types. Pointers distinguish "missing" from zero values so
// schema checks can reject incomplete objects.

type rawProduct struct {
	Image       *string          `json:"image"`
	Price       *decimal.Decimal `json:"price"`
	ProductName *string          `json:"product_name"`
	ProductType *string          `json:"product_type"`
	Tax         *decimal.Decimal `json:"tax"`
}

type rawAddResult struct {
	Message        *string     `json:"message"`
	ProductDetails *rawProduct `json:"product_details"`
	ProductID      *int64      `json:"product_id"`
	Success        *bool       `json:"success"`
}

var errMissingField = errors.New("missing required field")

func (r *rawProduct) toDomain() (domain.Product, error) {
	switch {
	case r.ProductName == nil:
		return domain.Product{}, fmt.Errorf("product_name: %w", errMissingField)
	case r.ProductType == nil:
		return domain.Product{}, fmt.Errorf("product_type: %w", errMissingField)
	case r.Price == nil:
		return domain.Product{}, fmt.Errorf("price: %w", errMissingField)
	case r.Tax == nil:
		return domain.Product{}, fmt.Errorf("tax: %w", errMissingField)
	}

	p := domain.Product{
		ID:    id.NewProductID(),
		Name:  *r.ProductName,
		Type:  domain.ProductType(*r.ProductType),
		Price: *r.Price,
		Tax:   *r.Tax,
	}
	if r.Image != nil && *r.Image != "" {
		img := *r.Image
		p.ImageURL = &img
	}
	return p, nil
}

// decodeProductList decodes the body of GET /get.
func decodeProductList(body []byte) ([]domain.Product, error) {
	var raws []rawProduct
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("parse product list: %w", err)
	}
	if raws == nil {
		return nil, errors.New("parse product list: expected a JSON array")
	}

	products := make([]domain.Product, 0, len(raws))
	for i := range raws {
		p, err := raws[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// decodeAddResult decodes the body of POST /add.
func decodeAddResult(body []byte) (*domain.AddProductResult, error) {
	var raw rawAddResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse add result: %w", err)
	}
	switch {
	case raw.Message == nil:
		return nil, fmt.Errorf("message: %w", errMissingField)
	case raw.ProductID == nil:
		return nil, fmt.Errorf("product_id: %w", errMissingField)
	case raw.Success == nil:
		return nil, fmt.Errorf("success: %w", errMissingField)
	}

	result := &domain.AddProductResult{
		Success:   *raw.Success,
		Message:   *raw.Message,
		ProductID: *raw.ProductID,
	}
	if raw.ProductDetails != nil {
		p, err := raw.ProductDetails.toDomain()
		if err != nil {
			return nil, fmt.Errorf("product_details: %w", err)
		}
		result.Product = &p
	}
	return result, nil
}

// encodeSubmission builds the multipart body for POST /add and returns it with its Content-Type.
func encodeSubmission(sr SubmitRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"product_name", sr.Name},
		{"product_type", string(sr.Type)},
		{"price", sr.Price},
		{"tax", sr.Tax},
		{"id", sr.ID},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if sr.Image != nil && len(sr.Image.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imageFieldName, imageFileName))
		h.Set("Content-Type", ImageContentType(sr.Image))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(sr.Image.Data); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// ImageContentType returns the declared MIME type of img, sniffing the bytes when
// none was declared. Anything that does not look like an image is sent as JPEG.
func ImageContentType(img *domain.Image) string {
	if img == nil {
		return defaultImageType
	}
	if img.MIMEType != "" {
		return img.MIMEType
	}
	detected := mimetype.Detect(img.Data).String()
	if strings.HasPrefix(detected, "image/") {
		return detected
	}
	return defaultImageType
}
