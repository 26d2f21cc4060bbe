package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playdeck/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// AudioHandler streams files from a single directory.
type AudioHandler struct {
	dir    string
	logger *log.Logger
}

func NewAudioHandler(dir string, logger *log.Logger) *AudioHandler {
	return &AudioHandler{dir: dir, logger: logger}
}

func (h *AudioHandler) Routes() []string {
	return []string{"GET /api/audio/{filename}"}
}

// ServeHTTP serves the named file. Only the base name is used, so requests cannot leave dir.
func (h *AudioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("filename"))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(filepath.Join(h.dir, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.logger.Warn("failed to open audio file", "name", name, "err", err)
		}
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	ct := mime.TypeByExtension(filepath.Ext(name))
	if ct == "" {
		ct = "audio/mpeg"
	}
	w.Header().Set("Content-Type", ct)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// FavoritesHandler exposes a [services.FavoritesService] over JSON.
type FavoritesHandler struct {
	svc    services.FavoritesService
	logger *log.Logger
}

func NewFavoritesHandler(svc services.FavoritesService, logger *log.Logger) *FavoritesHandler {
	return &FavoritesHandler{svc: svc, logger: logger}
}

func (h *FavoritesHandler) Routes() []string {
	return []string{"GET /api/favorites", "POST /api/favorites"}
}

func (h *FavoritesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.set(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	}
}

func (h *FavoritesHandler) list(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Favorites(r.Context())
	if err != nil {
		h.logger.Error("failed to list favorites", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, services.FavoritesResponse{Favorites: ids})
}

func (h *FavoritesHandler) set(w http.ResponseWriter, r *http.Request) {
	var req services.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON"})
		return
	}
	if req.SongID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing songId"})
		return
	}

	if err := h.svc.SetFavorite(r.Context(), req.SongID, req.IsFavorite); err != nil {
		h.logger.Error("failed to toggle favorite", "song", req.SongID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
