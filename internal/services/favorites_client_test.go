package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/playdeck/internal/shared"
	tu "github.com/desertthunder/playdeck/internal/testing"
)

func TestFavoritesClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewFavoritesClient("", nil)

			if c.baseURL != "http://localhost:3000" {
				t.Errorf("expected default baseURL, got %s", c.baseURL)
			}
			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			c := NewFavoritesClient("http://example.com/", &http.Client{})
			if c.baseURL != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", c.baseURL)
			}
		})
	})

	t.Run("SetFavorite", func(t *testing.T) {
		t.Run("Posts Song Id", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/favorites" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
				}

				var body FavoriteRequest
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode body: %v", err)
				}
				if body.SongID != "t1" || !body.IsFavorite {
					t.Errorf("unexpected body %+v", body)
				}

				json.NewEncoder(w).Encode(map[string]bool{"success": true})
			}))
			defer server.Close()

			c := NewFavoritesClient(server.URL, nil)
			if err := c.SetFavorite(context.Background(), "t1", true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"Song ID is required"}`, http.StatusBadRequest)
			}))
			defer server.Close()

			c := NewFavoritesClient(server.URL, nil)
			err := c.SetFavorite(context.Background(), "", true)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}

			c := NewFavoritesClient("http://example.com", client)
			err := c.SetFavorite(context.Background(), "t1", false)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}

			c := NewFavoritesClient("http://example.com", client)
			err := c.SetFavorite(context.Background(), "t1", true)
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			c := NewFavoritesClient("http://example.com\x00", nil)
			err := c.SetFavorite(context.Background(), "t1", true)
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})
	})

	t.Run("Favorites", func(t *testing.T) {
		t.Run("Decodes List", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", r.Method)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"favorites":["a","b"]}`))
			}))
			defer server.Close()

			ids, err := NewFavoritesClient(server.URL, nil).Favorites(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(ids) != 2 || ids[0] != "a" {
				t.Errorf("unexpected favorites %v", ids)
			}
		})

		t.Run("Empty List Is Not Nil", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			ids, err := NewFavoritesClient(server.URL, nil).Favorites(context.Background())
			if err != nil || ids == nil {
				t.Errorf("expected empty non-nil slice, got %v (%v)", ids, err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			if _, err := NewFavoritesClient(server.URL, nil).Favorites(context.Background()); err == nil {
				t.Error("expected decode error")
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewFavoritesClient(server.URL, nil).Favorites(ctx); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})
}
