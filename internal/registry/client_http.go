package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"rolesync/pkg/platform/sentinel"
)

// HTTPClient talks to the purchase registry's REST API:
// GET {base}/products and GET {base}/products/{id}, bearer-authenticated.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient constructs a registry client. httpClient may be nil, in which
// case a client with a 10s timeout is used.
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{baseURL: baseURL, http: httpClient}
}

func (c *HTTPClient) Product(ctx context.Context, token, id string) (Product, error) {
	var body struct {
		Product Product `json:"product"`
	}
	path := "/products/" + url.PathEscape(id)
	if err := c.get(ctx, token, path, &body); err != nil {
		return Product{}, err
	}
	return body.Product, nil
}

func (c *HTTPClient) Products(ctx context.Context, token string) ([]Product, error) {
	var body struct {
		Products []Product `json:"products"`
	}
	if err := c.get(ctx, token, "/products", &body); err != nil {
		return nil, err
	}
	return body.Products, nil
}

func (c *HTTPClient) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build registry request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("registry request %s: %w", path, sentinel.ErrNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("registry request %s: status %d: %w", path, resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response %s: %w", path, err)
	}
	return nil
}
