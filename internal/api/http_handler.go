package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"product-catalog-client/internal/catalog"
	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

// Catalog is what the presentation bridge drives. *catalog.Coordinator implements it.
type Catalog interface {
	Snapshot() catalog.State
	Refresh(ctx context.Context)
	SetSearchText(text string)
	ToggleFavorite(productID string) bool
	ProductTypes() []domain.ProductType
	UpdateDraft(d domain.Draft)
	SubmitNewProduct(ctx context.Context, d domain.Draft) error
	SaveLocal(ctx context.Context, d domain.Draft) (*domain.LocalProductRecord, error)
	LocalRecords(ctx context.Context) ([]domain.LocalProductRecord, error)
	DeleteLocal(ctx context.Context, recordID int64) error
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalog  Catalog
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(c Catalog, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		catalog:  c,
		validate: validator.New(),
		logger:   logger.Named("api"),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    domainerrors.Code `json:"code,omitempty"`
	Details any               `json:"details,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithDomainError answers with the status and body derived from err's code.
func (h *HTTPHandler) respondWithDomainError(w http.ResponseWriter, err error) {
	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		h.logger.Error("unexpected error", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if domainErr.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Warn("request failed", zap.Error(err))
	}
	respondWithJSON(w, domainErr.HTTPStatus(), ErrorResponse{
		Error:   domainerrors.UserMessage(err),
		Code:    domainErr.Code,
		Details: domainErr.Details,
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			// Headers are already written; the client sees a truncated body.
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// decodeAndValidate decodes the JSON body into dst and checks its validate tags.
// It writes the 400 response itself and reports whether handling may continue.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// --- Catalog Handlers ---

func (h *HTTPHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Snapshot())
}

func (h *HTTPHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	// The fetch outlives this request.
	h.catalog.Refresh(context.WithoutCancel(r.Context()))
	respondWithJSON(w, http.StatusAccepted, h.catalog.Snapshot())
}

// SearchInput defines the expected input for changing the search text.
type SearchInput struct {
	Text string `json:"text" validate:"max=200"`
}

func (h *HTTPHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var input SearchInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	h.catalog.SetSearchText(input.Text)
	respondWithJSON(w, http.StatusOK, h.catalog.Snapshot())
}

func (h *HTTPHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if !h.catalog.ToggleFavorite(productID) {
		h.respondWithDomainError(w, domainerrors.NotFoundf("product %q not found", productID))
		return
	}
	respondWithJSON(w, http.StatusOK, h.catalog.Snapshot())
}

func (h *HTTPHandler) ListProductTypes(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.ProductTypes())
}

// DraftInput is a product draft as the presentation layer sends it.
// Required-field checks belong to the catalog so that they surface as its error message.
type DraftInput struct {
	Name  string        `json:"product_name" validate:"max=255"`
	Type  string        `json:"product_type" validate:"max=64"`
	Price string        `json:"price" validate:"max=32"`
	Tax   string        `json:"tax" validate:"max=32"`
	Image *domain.Image `json:"image,omitempty"`
}

func (in DraftInput) toDomain() domain.Draft {
	d := domain.Draft{
		Name:  in.Name,
		Type:  domain.ProductType(in.Type),
		Price: in.Price,
		Tax:   in.Tax,
	}
	if in.Image != nil && len(in.Image.Data) > 0 {
		d.Image = in.Image
	}
	return d
}

func (h *HTTPHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var input DraftInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	h.catalog.UpdateDraft(input.toDomain())
	respondWithJSON(w, http.StatusOK, h.catalog.Snapshot())
}

func (h *HTTPHandler) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	var input DraftInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.catalog.SubmitNewProduct(context.WithoutCancel(r.Context()), input.toDomain()); err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, h.catalog.Snapshot())
}

// --- Local Product Handlers ---

func (h *HTTPHandler) ListLocalProducts(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.LocalRecords(r.Context())
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.LocalProductRecord{}
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *HTTPHandler) CreateLocalProduct(w http.ResponseWriter, r *http.Request) {
	var input DraftInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	rec, err := h.catalog.SaveLocal(r.Context(), input.toDomain())
	if err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rec)
}

func (h *HTTPHandler) DeleteLocalProduct(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "recordId")
	recordID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || recordID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid record ID format")
		return
	}

	if err := h.catalog.DeleteLocal(r.Context(), recordID); err != nil {
		h.respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes of the presentation bridge.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Post("/refresh", h.RefreshCatalog)
		r.Put("/search", h.SetSearch)
		r.Get("/product-types", h.ListProductTypes)
		r.Post("/products/{productId}/favorite", h.ToggleFavorite)
		r.Put("/draft", h.UpdateDraft)
		r.Post("/submissions", h.SubmitProduct)
	})

	r.Route("/api/v1/local-products", func(r chi.Router) {
		r.Get("/", h.ListLocalProducts)
		r.Post("/", h.CreateLocalProduct)
		r.Delete("/{recordId}", h.DeleteLocalProduct)
	})
}
