package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/services"
	tu "github.com/desertthunder/playdeck/internal/testing"
)

func newTestServer(t *testing.T, favorites services.FavoritesService) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	srv := New(Options{
		TracksDir:  dir,
		UploadsDir: dir,
		Favorites:  favorites,
		Logger:     log.New(io.Discard),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, dir
}

func TestAudioHandler(t *testing.T) {
	ts, dir := newTestServer(t, nil)
	payload := []byte("ID3 fake mp3 payload")
	if err := os.WriteFile(filepath.Join(dir, "My Song.mp3"), payload, 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("Serves File", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/audio/My%20Song.mp3")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("expected audio/mpeg, got %q", ct)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != string(payload) {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("Range Request", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/audio/My%20Song.mp3", nil)
		req.Header.Set("Range", "bytes=0-2")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusPartialContent {
			t.Fatalf("expected 206, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "ID3" {
			t.Errorf("expected first three bytes, got %q", body)
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		tc := []string{"/api/audio/missing.mp3", "/api/audio/..%2Fsecret.mp3"}
		for _, path := range tc {
			resp, err := http.Get(ts.URL + path)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
			}
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/audio/My%20Song.mp3", "text/plain", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})
}

func TestFavoritesHandler(t *testing.T) {
	t.Run("Set And List", func(t *testing.T) {
		favorites := tu.NewMockFavoritesService()
		ts, _ := newTestServer(t, favorites)

		resp, err := http.Post(ts.URL+"/api/favorites", "application/json", strings.NewReader(`{"songId":"t1","isFavorite":true}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		resp, err = http.Get(ts.URL + "/api/favorites")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var body services.FavoritesResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if !slices.Equal(body.Favorites, []string{"t1"}) {
			t.Errorf("expected [t1], got %v", body.Favorites)
		}
	})

	t.Run("Empty List Is Array", func(t *testing.T) {
		ts, _ := newTestServer(t, tu.NewMockFavoritesService())

		resp, err := http.Get(ts.URL + "/api/favorites")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), `"favorites":[]`) {
			t.Errorf("expected empty array, got %s", body)
		}
	})

	t.Run("Bad Requests", func(t *testing.T) {
		ts, _ := newTestServer(t, tu.NewMockFavoritesService())

		tc := []struct {
			name string
			body string
		}{
			{name: "missing song id", body: `{"isFavorite":true}`},
			{name: "invalid json", body: `{`},
		}
		for _, tt := range tc {
			resp, err := http.Post(ts.URL+"/api/favorites", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", tt.name, resp.StatusCode)
			}
		}
	})

	t.Run("Service Failure", func(t *testing.T) {
		favorites := tu.NewMockFavoritesService()
		favorites.Err = errors.New("db closed")
		ts, _ := newTestServer(t, favorites)

		resp, err := http.Post(ts.URL+"/api/favorites", "application/json", strings.NewReader(`{"songId":"t1","isFavorite":true}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})

	t.Run("Client Round Trip", func(t *testing.T) {
		favorites := tu.NewMockFavoritesService("t9")
		ts, _ := newTestServer(t, favorites)
		client := services.NewFavoritesClient(ts.URL, ts.Client())

		if err := client.SetFavorite(t.Context(), "t1", true); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		ids, err := client.Favorites(t.Context())
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !slices.Equal(ids, []string{"t1", "t9"}) {
			t.Errorf("expected [t1 t9], got %v", ids)
		}
	})
}

func TestServerRoutes(t *testing.T) {
	ts, dir := newTestServer(t, nil)

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
			t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
		}
	})

	t.Run("Uploads", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Join(dir, "covers"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "covers", "c.png"), []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}

		resp, err := http.Get(ts.URL + "/uploads/covers/c.png")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Favorites Disabled", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/favorites")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 without a favorites service, got %d", resp.StatusCode)
		}
	})
}

func TestMiddleware(t *testing.T) {
	r := NewBasicRouter()
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}
	r.Use(RecoverMiddleware(log.New(io.Discard)), mark("first"), mark("second"))
	r.Handle(http.MethodGet, "/panic", http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", rec.Code)
	}
	if !slices.Equal(order, []string{"first", "second"}) {
		t.Errorf("middleware should run in the order added, got %v", order)
	}
}
