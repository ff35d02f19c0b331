// Package client is a Go client for the MotoMar API. It keeps the signed-in
// session in a SessionStore and attaches the bearer token to every request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL  string
	client   *http.Client
	sessions SessionStore
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.client = httpClient
	}
}

func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.sessions = store
	}
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: defaultTimeout},
		sessions: NewMemorySessionStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the stored session, or nil when signed out.
func (c *Client) Session() (*Session, error) {
	return c.sessions.Load()
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if err := c.saveSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if err := c.saveSession(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the API and drops the local session even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	callErr := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err := c.sessions.Clear(); err != nil {
		return err
	}
	if callErr != nil && !IsUnauthorized(callErr) {
		return callErr
	}
	return nil
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListListings searches active listings. query takes the same parameters as
// GET /api/motos (brand, price_min, order_by, page, limit, ...).
func (c *Client) ListListings(ctx context.Context, query url.Values) (*ListingPage, error) {
	path := "/api/motos"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page ListingPage
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (*ListingDetail, error) {
	var detail ListingDetail
	if err := c.doJSON(ctx, http.MethodGet, "/api/motos/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

type listingEnvelope struct {
	Message string  `json:"message"`
	Listing Listing `json:"listing"`
}

func (c *Client) CreateListing(ctx context.Context, input ListingInput) (*Listing, error) {
	var resp listingEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/motos", input, &resp); err != nil {
		return nil, err
	}
	return &resp.Listing, nil
}

func (c *Client) UpdateListing(ctx context.Context, id string, input ListingInput) (*Listing, error) {
	var resp listingEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/api/motos/"+url.PathEscape(id), input, &resp); err != nil {
		return nil, err
	}
	return &resp.Listing, nil
}

func (c *Client) DeleteListing(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/motos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ToggleFavorite(ctx context.Context, listingID string) (*ToggleResult, error) {
	var result ToggleResult
	path := "/api/motos/" + url.PathEscape(listingID) + "/favorito"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MyListings returns the caller's listings. status is "", "active", "sold" or "inactive".
func (c *Client) MyListings(ctx context.Context, status string) (*MyListings, error) {
	path := "/api/motos/me/all"
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}

	var mine MyListings
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &mine); err != nil {
		return nil, err
	}
	return &mine, nil
}

func (c *Client) Favorites(ctx context.Context) (*FavoriteList, error) {
	var list FavoriteList
	if err := c.doJSON(ctx, http.MethodGet, "/api/motos/me/favoritos", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UploadImages sends files as the multipart field "images".
func (c *Client) UploadImages(ctx context.Context, listingID string, files []ImageFile) ([]ListingImage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, file := range files {
		part, err := writer.CreateFormFile("images", file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp struct {
		Images []ListingImage `json:"images"`
	}
	path := "/api/motos/" + url.PathEscape(listingID) + "/imagenes"
	if err := c.do(ctx, http.MethodPost, path, &buf, writer.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}

func (c *Client) Brands(ctx context.Context) ([]BrandCount, error) {
	var resp struct {
		Brands []BrandCount `json:"brands"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/motos/search/marcas", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Brands, nil
}

func (c *Client) Stats(ctx context.Context) (*MarketStats, error) {
	var stats MarketStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/motos/search/estadisticas", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) saveSession(resp *AuthResponse) error {
	if resp.Token == "" {
		return fmt.Errorf("auth response carried no token")
	}
	return c.sessions.Save(&Session{Token: resp.Token, Account: resp.Account})
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	if body == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	session, err := c.sessions.Load()
	if err != nil {
		return err
	}
	if session != nil && session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized {
			if err := c.sessions.Clear(); err != nil {
				return err
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	apiErr.Status = resp.StatusCode
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
