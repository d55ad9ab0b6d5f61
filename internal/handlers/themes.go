// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the theme-submission
// API. Handlers receive their dependencies through the API struct; there
// are no package-level singletons.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"themedrop/internal/cache"
	"themedrop/internal/ingest"
	"themedrop/internal/models"
	"themedrop/internal/store"
)

const (
	// maxUploadSize is the maximum allowed theme package size (50 MB).
	maxUploadSize = 50 << 20

	// defaultListLimit is the page size when the client sends none.
	defaultListLimit = 20

	// maxListLimit caps a single listing page.
	maxListLimit = 100
)

// Notifier deletes the Discord announcement message for a removed theme.
// Satisfied by the Discord bot; nil when the bot is not configured.
type Notifier interface {
	DeleteMessage(messageID string)
}

// API groups the theme endpoints and their dependencies.
type API struct {
	themes   *store.ThemeStore
	ingest   *ingest.Service
	notifier Notifier
	listing  *cache.ListingCache
	cacheDir string
}

// NewAPI creates the handler group. notifier and listing may be nil.
func NewAPI(themes *store.ThemeStore, ingestSvc *ingest.Service, notifier Notifier, listing *cache.ListingCache, cacheDir string) *API {
	return &API{
		themes:   themes,
		ingest:   ingestSvc,
		notifier: notifier,
		listing:  listing,
		cacheDir: cacheDir,
	}
}

// Upload accepts a multipart theme package, stores it in the cache
// directory under a time-ordered identifier, and responds immediately.
// Ingestion runs in the background; its outcome is never reported to the
// uploader, only logged and emitted on the ingest results channel.
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, "File too large. Maximum size is 50 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if ext != ".zip" {
		writeError(w, "Only .zip files are allowed", http.StatusBadRequest)
		return
	}

	// UUIDv7 keeps stored packages collision-free and time-ordered.
	id, err := uuid.NewV7()
	if err != nil {
		slog.Error("upload id generation failed", "error", err)
		writeError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	fileName := id.String() + ext

	if err := saveUpload(file, filepath.Join(a.cacheDir, fileName)); err != nil {
		slog.Error("upload save failed", "file", fileName, "error", err)
		writeError(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "File uploaded successfully"})

	a.ingest.Enqueue(fileName)
}

// List returns a page of accepted themes. The order is storage order:
// nothing beyond the insertion sequence is guaranteed.
func (a *API) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	ctx := r.Context()
	if a.listing != nil {
		if body, ok := a.listing.Get(ctx, limit, offset); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	themes, err := a.themes.List(ctx, limit, offset, models.StateAccepted)
	if err != nil {
		slog.Error("theme listing failed", "error", err)
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if themes == nil {
		themes = []models.Theme{}
	}

	body, err := json.Marshal(themes)
	if err != nil {
		slog.Error("theme listing encode failed", "error", err)
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if a.listing != nil {
		a.listing.Set(ctx, limit, offset, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Get returns a single theme by file_id. A miss serializes as a JSON null
// with status 200; only store failures produce a 500. The null-on-miss
// shape is part of the public contract.
func (a *API) Get(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	theme, err := a.themes.FindByFileID(r.Context(), fileID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		slog.Error("theme lookup failed", "file_id", fileID, "error", err)
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, theme)
}

// Status returns only the approval state of a theme, 404 when absent.
func (a *API) Status(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	state, err := a.themes.Status(r.Context(), fileID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "Theme not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("theme status failed", "file_id", fileID, "error", err)
		writeError(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]models.ApprovalState{"status": state})
}

// Delete removes a theme by file_id. When the caller supplies a
// message_id query parameter, the Discord announcement is deleted as well,
// best-effort. Deleting an already-absent record still reports success,
// matching the endpoint's 200/500 binary contract.
func (a *API) Delete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	if messageID := r.URL.Query().Get("message_id"); messageID != "" && a.notifier != nil {
		go a.notifier.DeleteMessage(messageID)
	}

	err := a.themes.DeleteByFileID(r.Context(), fileID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("theme delete failed", "file_id", fileID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	a.invalidateListing(r.Context())
	w.WriteHeader(http.StatusOK)
}

// Update applies a partial patch to a theme. Malformed bodies and invalid
// approval states are 400; a missing row is treated as a successful no-op
// to keep the endpoint's 200/500 contract.
func (a *API) Update(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "id")

	var patch models.ThemeUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if patch.ApprovalState != nil && !models.ApprovalState(*patch.ApprovalState).Valid() {
		writeError(w, fmt.Sprintf("Unknown approval state %q", *patch.ApprovalState), http.StatusBadRequest)
		return
	}

	err := a.themes.UpdateByFileID(r.Context(), fileID, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		slog.Debug("update of missing theme ignored", "file_id", fileID)
	case errors.Is(err, store.ErrDuplicate):
		slog.Warn("theme update unique collision", "file_id", fileID)
		w.WriteHeader(http.StatusInternalServerError)
		return
	case err != nil:
		slog.Error("theme update failed", "file_id", fileID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	a.invalidateListing(r.Context())
	w.WriteHeader(http.StatusOK)
}

// invalidateListing drops cached listing pages after a mutation.
func (a *API) invalidateListing(ctx context.Context) {
	if a.listing != nil {
		a.listing.Invalidate(ctx)
	}
}

// saveUpload writes the multipart file to its cache path.
func saveUpload(src io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return fmt.Errorf("write upload file: %w", err)
	}
	return nil
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
