// Package transport talks to the remote product catalog API.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"product-catalog-client/internal/domain"
	domainerrors "product-catalog-client/internal/errors"
)

const (
	listPath = "/get"
	addPath  = "/add"

	defaultTimeout = 30 * time.Second
	userAgent      = "ProductCatalogClient/1.0"

	// Bodies are small JSON documents; anything larger is treated as garbage.
	maxResponseBytes = 8 << 20
)

// Options configures a Client. Zero values mean "use the default".
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
	HTTPClient        *http.Client // overrides Timeout when set
}

// Client is a stateless catalog API client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a client for the catalog rooted at baseURL (e.g. https://host/api/public).
// A malformed base URL is not rejected here; every call reports it as an invalid endpoint.
func New(baseURL string, opts Options, logger *zap.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: limiter,
		logger:  logger.Named("transport"),
	}
}

// BaseURL returns the catalog root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint joins the base URL and path, failing when the result is not an absolute http(s) URL.
func (c *Client) endpoint(path string) (string, error) {
	raw := c.baseURL + path
	u, err := url.Parse(raw)
	if err != nil {
		return "", domainerrors.InvalidEndpoint(raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", domainerrors.InvalidEndpoint(raw, nil)
	}
	return u.String(), nil
}

// do executes req with pacing and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, domainerrors.NoResponse(fmt.Errorf("rate limit wait: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("catalog request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domainerrors.NoResponse(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domainerrors.NoResponse(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog returned non-2xx status",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
		)
		return nil, domainerrors.ServerError(resp.Status)
	}
	return body, nil
}

// ListProducts fetches the whole catalog.
// Every decoded product gets a fresh client-side ID and starts as not favorite.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	endpoint, err := c.endpoint(listPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domainerrors.InvalidEndpoint(endpoint, err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	products, err := decodeProductList(body)
	if err != nil {
		return nil, domainerrors.DecodingFailure(err)
	}

	c.logger.Debug("catalog listed", zap.Int("count", len(products)))
	return products, nil
}

// SubmitRequest carries the fields of one add-product call.
type SubmitRequest struct {
	ID    string // client identifier sent in the "id" field
	Name  string
	Type  domain.ProductType
	Price string // decimal-formatted text
	Tax   string
	Image *domain.Image
}

// SubmitProduct posts a new product as multipart/form-data.
func (c *Client) SubmitProduct(ctx context.Context, sr SubmitRequest) (*domain.AddProductResult, error) {
	endpoint, err := c.endpoint(addPath)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeSubmission(sr)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to build submission body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, domainerrors.InvalidEndpoint(endpoint, err)
	}
	req.Header.Set("Content-Type", contentType)

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	result, err := decodeAddResult(respBody)
	if err != nil {
		return nil, domainerrors.DecodingFailure(err)
	}

	c.logger.Info("product submitted",
		zap.String("name", sr.Name),
		zap.Int64("product_id", result.ProductID),
		zap.Bool("success", result.Success),
	)
	return result, nil
}
