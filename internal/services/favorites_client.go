package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/playdeck/internal/shared"
)

// FavoritesClient implements [FavoritesService] against a remote playdeck server.
type FavoritesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFavoritesClient creates a client for the server at baseURL.
func NewFavoritesClient(baseURL string, client *http.Client) *FavoritesClient {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &FavoritesClient{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	SongID     string `json:"songId"`
	IsFavorite bool   `json:"isFavorite"`
}

// FavoritesResponse is the body of GET /api/favorites.
type FavoritesResponse struct {
	Favorites []string `json:"favorites"`
}

// APIResponse is a raw response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (c *FavoritesClient) SetFavorite(ctx context.Context, trackID string, favorite bool) error {
	data, err := json.Marshal(FavoriteRequest{SongID: trackID, IsFavorite: favorite})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/favorites", data)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: POST /api/favorites returned %d: %s", shared.ErrAPIRequest, resp.StatusCode, bytes.TrimSpace(resp.Body))
	}
	return nil
}

func (c *FavoritesClient) Favorites(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/favorites", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: GET /api/favorites returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var body FavoritesResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}
	if body.Favorites == nil {
		body.Favorites = []string{}
	}
	return body.Favorites, nil
}

// do performs a request against the server and returns the raw response.
func (c *FavoritesClient) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: raw}, nil
}
