package catalog

import (
	"slices"

	"product-catalog-client/internal/domain"
)

// Status is the lifecycle of the product list.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
)

// State is the observable state presented to the UI.
// Products is the visible projection, not the authoritative list.
type State struct {
	Version        uint64           `json:"version"`
	Status         Status           `json:"status"`
	Products       []domain.Product `json:"products"`
	SearchText     string           `json:"search_text"`
	IsLoading      bool             `json:"is_loading"`
	IsSubmitting   bool             `json:"is_submitting"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	SuccessMessage string           `json:"success_message,omitempty"`
	Draft          domain.Draft     `json:"draft"`
}

func (s State) clone() State {
	out := s
	out.Products = slices.Clone(s.Products)
	if out.Products == nil {
		out.Products = []domain.Product{}
	}
	if s.Draft.Image != nil {
		img := *s.Draft.Image
		img.Data = slices.Clone(img.Data)
		out.Draft.Image = &img
	}
	return out
}
