package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"product-catalog-client/internal/catalog"
	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

// MockCatalog is a mock implementation of Catalog.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Snapshot() catalog.State {
	args := m.Called()
	return args.Get(0).(catalog.State)
}

func (m *MockCatalog) Refresh(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockCatalog) SetSearchText(text string) {
	m.Called(text)
}

func (m *MockCatalog) ToggleFavorite(productID string) bool {
	args := m.Called(productID)
	return args.Bool(0)
}

func (m *MockCatalog) ProductTypes() []domain.ProductType {
	args := m.Called()
	return args.Get(0).([]domain.ProductType)
}

func (m *MockCatalog) UpdateDraft(d domain.Draft) {
	m.Called(d)
}

func (m *MockCatalog) SubmitNewProduct(ctx context.Context, d domain.Draft) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockCatalog) SaveLocal(ctx context.Context, d domain.Draft) (*domain.LocalProductRecord, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocalProductRecord), args.Error(1)
}

func (m *MockCatalog) LocalRecords(ctx context.Context) ([]domain.LocalProductRecord, error) {
	args := m.Called(ctx)
	var records []domain.LocalProductRecord
	if arg0 := args.Get(0); arg0 != nil {
		records = arg0.([]domain.LocalProductRecord)
	}
	return records, args.Error(1)
}

func (m *MockCatalog) DeleteLocal(ctx context.Context, recordID int64) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

// Helper for setting up tests with the bridge router
func setupTestChiServer(t *testing.T, c Catalog) *httptest.Server {
	t.Helper()
	handler := NewHTTPHandler(c, nil)
	server := httptest.NewServer(NewRouter(handler, []string{"*"}, 5*time.Second))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func loadedState() catalog.State {
	return catalog.State{
		Version: 3,
		Status:  catalog.StatusLoaded,
		Products: []domain.Product{
			{ID: "prd-banana", Name: "Banana", Type: domain.ProductTypeGrocery, Price: decimal.NewFromInt(5), Tax: decimal.NewFromInt(2), IsFavorite: true},
			{ID: "prd-apple", Name: "Apple", Type: domain.ProductTypeGrocery, Price: decimal.NewFromInt(10), Tax: decimal.NewFromInt(5)},
		},
		Draft: domain.NewDraft(),
	}
}

func TestHTTPHandler_GetCatalog(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)
	mockCatalog.On("Snapshot").Return(loadedState()).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var st catalog.State
	require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
	assert.Equal(t, catalog.StatusLoaded, st.Status)
	require.Len(t, st.Products, 2)
	assert.Equal(t, "Banana", st.Products[0].Name)
	assert.True(t, st.Products[0].IsFavorite)
	assert.True(t, st.Products[1].Price.Equal(decimal.NewFromInt(10)))

	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_RefreshCatalog(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	loading := catalog.State{Status: catalog.StatusLoading, IsLoading: true, Products: []domain.Product{}}
	mockCatalog.On("Refresh", mock.Anything).Once()
	mockCatalog.On("Snapshot").Return(loading).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/refresh", nil)
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	var st catalog.State
	require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
	assert.True(t, st.IsLoading)

	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_SetSearch(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	mockCatalog.On("SetSearchText", "ban").Once()
	mockCatalog.On("Snapshot").Return(loadedState()).Once()

	res := doJSON(t, http.MethodPut, server.URL+"/api/v1/catalog/search", SearchInput{Text: "ban"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_SetSearch_InvalidPayload(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	res, err := http.Post(server.URL+"/api/v1/catalog/search", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res = doJSON(t, http.MethodPut, server.URL+"/api/v1/catalog/search", "{")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mockCatalog.AssertNotCalled(t, "SetSearchText", mock.Anything)
}

func TestHTTPHandler_ToggleFavorite(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	mockCatalog.On("ToggleFavorite", "prd-banana").Return(true).Once()
	mockCatalog.On("ToggleFavorite", "prd-missing").Return(false).Once()
	mockCatalog.On("Snapshot").Return(loadedState()).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/products/prd-banana/favorite", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/products/prd-missing/favorite", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, domainerrors.CodeNotFound, errResp.Code)
	assert.Contains(t, errResp.Error, "prd-missing")

	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_ListProductTypes(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)
	mockCatalog.On("ProductTypes").Return(domain.ProductTypes()).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/v1/catalog/product-types", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var types []domain.ProductType
	require.NoError(t, json.NewDecoder(res.Body).Decode(&types))
	assert.Equal(t, domain.ProductTypes(), types)
}

func TestHTTPHandler_UpdateDraft(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	mockCatalog.On("UpdateDraft", domain.Draft{Name: "Pe", Type: domain.ProductTypeBook}).Once()
	mockCatalog.On("Snapshot").Return(loadedState()).Once()

	res := doJSON(t, http.MethodPut, server.URL+"/api/v1/catalog/draft", DraftInput{Name: "Pe", Type: "Book"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_SubmitProduct(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	mockCatalog.On("SubmitNewProduct", mock.Anything, mock.MatchedBy(func(d domain.Draft) bool {
		return d.Name == "Pen" && d.Price == "10" && d.Tax == "5" &&
			d.Image != nil && bytes.Equal(d.Image.Data, jpeg) && d.Image.MIMEType == "image/jpeg"
	})).Return(nil).Once()
	mockCatalog.On("Snapshot").Return(catalog.State{IsSubmitting: true, Products: []domain.Product{}}).Once()

	input := DraftInput{Name: "Pen", Type: "Product", Price: "10", Tax: "5", Image: &domain.Image{Data: jpeg, MIMEType: "image/jpeg"}}
	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/submissions", input)
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	var st catalog.State
	require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
	assert.True(t, st.IsSubmitting)
	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_SubmitProduct_ValidationError(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	validationErr := domainerrors.ValidationWithDetails(
		"Please fill all required fields with valid values",
		map[string]string{"product_name": "is required"},
	)
	mockCatalog.On("SubmitNewProduct", mock.Anything, mock.Anything).Return(validationErr).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/submissions", DraftInput{Price: "10", Tax: "5"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	var errResp struct {
		Error   string            `json:"error"`
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "Please fill all required fields with valid values", errResp.Error)
	assert.Equal(t, "VALIDATION", errResp.Code)
	assert.Equal(t, "is required", errResp.Details["product_name"])
}

func TestHTTPHandler_SubmitProduct_TooLongName(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	long := string(bytes.Repeat([]byte("x"), 256))
	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/catalog/submissions", DraftInput{Name: long, Price: "1", Tax: "1"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	mockCatalog.AssertNotCalled(t, "SubmitNewProduct", mock.Anything, mock.Anything)
}

func TestHTTPHandler_LocalProducts(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	saved := &domain.LocalProductRecord{ID: 4, Name: "Pen", Type: domain.ProductTypeProduct, Price: decimal.NewFromInt(10), Tax: decimal.NewFromInt(5)}
	mockCatalog.On("SaveLocal", mock.Anything, domain.Draft{Name: "Pen", Type: "Product", Price: "10", Tax: "5"}).Return(saved, nil).Once()
	mockCatalog.On("LocalRecords", mock.Anything).Return([]domain.LocalProductRecord{*saved}, nil).Once()
	mockCatalog.On("DeleteLocal", mock.Anything, int64(4)).Return(nil).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/local-products", DraftInput{Name: "Pen", Type: "Product", Price: "10", Tax: "5"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var created domain.LocalProductRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, int64(4), created.ID)

	res = doJSON(t, http.MethodGet, server.URL+"/api/v1/local-products", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var records []domain.LocalProductRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Pen", records[0].Name)

	res = doJSON(t, http.MethodDelete, server.URL+"/api/v1/local-products/4", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodDelete, server.URL+"/api/v1/local-products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	mockCatalog.AssertExpectations(t)
}

func TestHTTPHandler_LocalProducts_StorageError(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)

	mockCatalog.On("LocalRecords", mock.Anything).
		Return([]domain.LocalProductRecord{}, domainerrors.Storage("store: ListAll failed to read records", nil)).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/v1/local-products", nil)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, domainerrors.CodeStorage, errResp.Code)
}

func TestHTTPHandler_Healthz(t *testing.T) {
	mockCatalog := new(MockCatalog)
	server := setupTestChiServer(t, mockCatalog)
	mockCatalog.On("Snapshot").Return(catalog.State{Status: catalog.StatusFailed}).Once()

	res := doJSON(t, http.MethodGet, server.URL+"/api/v1/healthz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "unhealthy", body["catalog"])
	assert.Equal(t, "failed", body["catalogStatus"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	handler := NewHTTPHandler(new(MockCatalog), nil)
	server := httptest.NewServer(NewRouter(handler, []string{"http://localhost:3000"}, 0))
	defer server.Close()

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/catalog/search", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
}
