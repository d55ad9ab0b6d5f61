// Package ingest turns uploaded theme archives into persisted theme
// records. The HTTP surface hands over only the stored file name and
// returns immediately; ingestion runs in the background and reports its
// outcome through structured logs and an observable results channel
// instead of discarding it.
package ingest

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"themedrop/internal/models"
	"themedrop/internal/storage"
	"themedrop/internal/store"
)

// manifestName is the metadata file every theme package must carry.
const manifestName = "theme.json"

// processTimeout bounds a single ingestion run.
const processTimeout = 2 * time.Minute

// Announcer posts a submission announcement and returns the message ID,
// and removes stale announcements when a package is re-ingested.
// Satisfied by the Discord bot; nil when the bot is not configured.
type Announcer interface {
	Announce(theme *models.Theme) (string, error)
	DeleteMessage(messageID string)
}

// Invalidator drops cached listing pages after the store changes.
// Satisfied by the Valkey listing cache; nil when caching is disabled.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Result is the outcome of one ingestion attempt.
type Result struct {
	FileID   string
	FileName string
	Err      error
}

// manifest is the metadata shape embedded in a theme package.
type manifest struct {
	Name        string       `json:"name"`
	Author      string       `json:"author"`
	Description string       `json:"description"`
	Color       models.Color `json:"color"`
	Icon        string       `json:"icon"`
	Thumbnails  []string     `json:"thumbnails"`
}

// Service ingests uploaded archives from the cache directory.
type Service struct {
	cacheDir  string
	themes    *store.ThemeStore
	announcer Announcer
	archive   *storage.Client
	listing   Invalidator
	results   chan Result
}

// New creates an ingestion service. announcer, archive, and listing may be
// nil; the corresponding steps are skipped.
func New(cacheDir string, themes *store.ThemeStore, announcer Announcer, archive *storage.Client, listing Invalidator) *Service {
	return &Service{
		cacheDir:  cacheDir,
		themes:    themes,
		announcer: announcer,
		archive:   archive,
		listing:   listing,
		results:   make(chan Result, 16),
	}
}

// Results exposes ingestion outcomes. The channel is never closed; sends
// are non-blocking so an absent consumer cannot stall ingestion.
func (s *Service) Results() <-chan Result {
	return s.results
}

// Enqueue starts background ingestion of a stored upload and returns
// immediately. The uploading client has already received its response.
func (s *Service) Enqueue(fileName string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		fileID := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		err := s.Process(ctx, fileName)
		if err != nil {
			slog.Error("theme ingestion failed", "file", fileName, "error", err)
		} else {
			slog.Info("theme ingested", "file", fileName, "file_id", fileID)
		}
		s.emit(Result{FileID: fileID, FileName: fileName, Err: err})
	}()
}

// Process ingests one archive from the cache directory: verifies it is a
// real ZIP, reads the embedded manifest, persists the record, mirrors the
// package to object storage when configured, and announces it on Discord.
// A file_id that already exists is treated as a re-ingestion: the row is
// refreshed and the stale announcement replaced.
func (s *Service) Process(ctx context.Context, fileName string) error {
	path := filepath.Join(s.cacheDir, fileName)

	if err := verifyZip(path); err != nil {
		return err
	}

	m, err := readManifest(path)
	if err != nil {
		return err
	}

	fileID := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	theme := &models.Theme{
		FileName:         fileName,
		FileID:           fileID,
		ThemeName:        m.Name,
		ThemeAuthor:      m.Author,
		ThemeDescription: m.Description,
		ApprovalState:    models.StatePending,
		Color:            m.Color,
		Icon:             m.Icon,
		ThumbnailURLs:    m.Thumbnails,
	}
	if theme.ThemeName == "" {
		theme.ThemeName = fileID
	}

	// Mirror the package to object storage for a durable attachment URL.
	// Without storage the record points at the local cache path.
	theme.AttachmentURL = "file://" + path
	if s.archive != nil {
		key := "themes/" + fileName
		if err := s.uploadArchive(ctx, path, key); err != nil {
			slog.Warn("theme package mirror failed", "file", fileName, "error", err)
		} else {
			theme.AttachmentURL = s.archive.FileURL(key)
		}
	}

	err = s.themes.Create(ctx, theme)
	if errors.Is(err, store.ErrDuplicate) {
		// Re-ingestion of a known file_id: refresh the row in place and
		// take down the previous announcement before posting a new one.
		prior, uerr := s.themes.UpsertByFileID(ctx, theme)
		if uerr != nil {
			return fmt.Errorf("refresh theme: %w", uerr)
		}
		if prior != nil && s.announcer != nil {
			s.announcer.DeleteMessage(*prior)
		}
	} else if err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	if s.listing != nil {
		s.listing.Invalidate(ctx)
	}

	// Announce on Discord and correlate the record to the message.
	if s.announcer != nil {
		messageID, err := s.announcer.Announce(theme)
		if err != nil {
			slog.Warn("theme announcement failed", "file_id", fileID, "error", err)
			return nil
		}
		patch := models.ThemeUpdate{MessageID: &messageID}
		if err := s.themes.UpdateByFileID(ctx, fileID, patch); err != nil {
			slog.Warn("message correlation failed", "file_id", fileID, "error", err)
		}
	}

	return nil
}

// emit delivers a result without ever blocking ingestion.
func (s *Service) emit(r Result) {
	select {
	case s.results <- r:
	default:
		slog.Debug("ingest result dropped, no consumer", "file", r.FileName)
	}
}

// verifyZip sniffs the file header to confirm the payload really is a ZIP
// archive, regardless of its extension.
func verifyZip(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	head := make([]byte, 261)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read upload header: %w", err)
	}

	if !filetype.Is(head[:n], "zip") {
		return fmt.Errorf("upload %s is not a zip archive", filepath.Base(path))
	}
	return nil
}

// readManifest extracts and decodes theme.json from the archive root.
func readManifest(path string) (*manifest, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != manifestName {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		defer rc.Close()

		var m manifest
		if err := json.NewDecoder(rc).Decode(&m); err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		return &m, nil
	}

	return nil, fmt.Errorf("archive has no %s", manifestName)
}

// uploadArchive streams the package file into object storage.
func (s *Service) uploadArchive(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open package: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat package: %w", err)
	}

	return s.archive.Upload(ctx, key, "application/zip", f, info.Size())
}
