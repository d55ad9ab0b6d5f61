// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains the persistence gateway between in-memory theme
// records and their flattened rows in PostgreSQL. Every operation targets
// the single themes table keyed by file_id, with a secondary unique key on
// message_id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"themedrop/internal/models"
)

// ThemeStore handles all theme-related database operations.
type ThemeStore struct {
	db *sql.DB
}

// NewThemeStore creates a new ThemeStore with the given database connection.
func NewThemeStore(db *sql.DB) *ThemeStore {
	return &ThemeStore{db: db}
}

// themeColumns lists the columns selected in theme queries.
const themeColumns = `file_name, file_id, theme_name, theme_author,
	theme_description, message_id, attachment_url, approval_state,
	color, alpha, icon, thumbnail_urls`

// scanTheme scans a flat theme row from the result set and rebuilds the
// nested record.
func scanTheme(scanner interface{ Scan(...any) error }) (*models.Theme, error) {
	var row models.ThemeRow
	err := scanner.Scan(
		&row.FileName, &row.FileID, &row.ThemeName, &row.ThemeAuthor,
		&row.ThemeDescription, &row.MessageID, &row.AttachmentURL,
		&row.ApprovalState, &row.Color, &row.Alpha, &row.Icon,
		&row.ThumbnailURLs,
	)
	if err != nil {
		return nil, err
	}
	return models.FromRow(row), nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new theme row. Returns ErrDuplicate when file_id or
// message_id collides with an existing record.
func (s *ThemeStore) Create(ctx context.Context, t *models.Theme) error {
	row := t.ToRow()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO themes (file_name, file_id, theme_name, theme_author,
			theme_description, message_id, attachment_url, approval_state,
			color, alpha, icon, thumbnail_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		row.FileName, row.FileID, row.ThemeName, row.ThemeAuthor,
		row.ThemeDescription, row.MessageID, row.AttachmentURL,
		row.ApprovalState, row.Color, row.Alpha, row.Icon, row.ThumbnailURLs,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("create theme %s: %w", t.FileID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create theme: %w", err)
	}
	return nil
}

// UpsertByFileID updates every mutable column of an existing row and
// returns the message_id the row held BEFORE the update. It deliberately
// performs no insert when the file_id is unknown — creation goes through
// Create as a separate step — and returns ErrNotFound instead.
func (s *ThemeStore) UpsertByFileID(ctx context.Context, t *models.Theme) (*string, error) {
	existing, err := s.FindByFileID(ctx, t.FileID)
	if err != nil {
		return nil, err
	}

	row := t.ToRow()
	_, err = s.db.ExecContext(ctx, `
		UPDATE themes SET
			file_name = $1, theme_name = $2, theme_author = $3,
			theme_description = $4, message_id = $5, attachment_url = $6,
			approval_state = $7, color = $8, alpha = $9, icon = $10,
			thumbnail_urls = $11, updated_at = now()
		WHERE file_id = $12`,
		row.FileName, row.ThemeName, row.ThemeAuthor, row.ThemeDescription,
		row.MessageID, row.AttachmentURL, row.ApprovalState, row.Color,
		row.Alpha, row.Icon, row.ThumbnailURLs, t.FileID,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("upsert theme %s: %w", t.FileID, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert theme: %w", err)
	}
	return existing.MessageID, nil
}

// List returns a page of themes. No ORDER BY is applied, so rows come
// back in whatever order PostgreSQL yields them. An empty status lists
// every record; otherwise only rows in that approval state are returned.
func (s *ThemeStore) List(ctx context.Context, limit, offset int, status models.ApprovalState) ([]models.Theme, error) {
	query := `SELECT ` + themeColumns + ` FROM themes`
	args := []any{}
	if status != "" {
		query += ` WHERE approval_state = $1`
		args = append(args, string(status))
	}
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	defer rows.Close()

	var themes []models.Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, fmt.Errorf("scan theme: %w", err)
		}
		themes = append(themes, *t)
	}
	return themes, rows.Err()
}

// FindByFileID retrieves a single theme by its natural key. Returns
// ErrNotFound when no row matches.
func (s *ThemeStore) FindByFileID(ctx context.Context, fileID string) (*models.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE file_id = $1`, fileID)
	t, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("theme %s: %w", fileID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by file_id: %w", err)
	}
	return t, nil
}

// FindByMessageID retrieves a single theme by the Discord message that
// announced it. Returns ErrNotFound when no row matches.
func (s *ThemeStore) FindByMessageID(ctx context.Context, messageID string) (*models.Theme, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+themeColumns+` FROM themes WHERE message_id = $1`, messageID)
	t, err := scanTheme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("theme message %s: %w", messageID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find theme by message_id: %w", err)
	}
	return t, nil
}

// Status projects the approval state of the theme with the given file_id.
func (s *ThemeStore) Status(ctx context.Context, fileID string) (models.ApprovalState, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT approval_state FROM themes WHERE file_id = $1`, fileID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("theme %s: %w", fileID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("theme status: %w", err)
	}
	return models.ApprovalState(state), nil
}

// DeleteByFileID removes the theme row with the given file_id. Returns
// ErrNotFound when nothing was deleted.
func (s *ThemeStore) DeleteByFileID(ctx context.Context, fileID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM themes WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete theme: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete theme rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("theme %s: %w", fileID, ErrNotFound)
	}
	return nil
}

// UpdateByFileID applies a partial column update to the theme with the
// given file_id. Nil patch fields are left untouched; an empty patch is a
// no-op. Returns ErrNotFound when the row does not exist.
func (s *ThemeStore) UpdateByFileID(ctx context.Context, fileID string, patch models.ThemeUpdate) error {
	sets, args := buildPatch(patch)
	if len(sets) == 0 {
		// Nothing to update; still distinguish a missing row.
		_, err := s.FindByFileID(ctx, fileID)
		return err
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, fileID)
	query := fmt.Sprintf(`UPDATE themes SET %s WHERE file_id = $%d`,
		strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("update theme %s: %w", fileID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update theme: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update theme rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("theme %s: %w", fileID, ErrNotFound)
	}
	return nil
}

// buildPatch converts the non-nil fields of a ThemeUpdate into SET clauses
// and positional arguments.
func buildPatch(patch models.ThemeUpdate) ([]string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FileName != nil {
		add("file_name", *patch.FileName)
	}
	if patch.ThemeName != nil {
		add("theme_name", *patch.ThemeName)
	}
	if patch.ThemeAuthor != nil {
		add("theme_author", *patch.ThemeAuthor)
	}
	if patch.ThemeDescription != nil {
		add("theme_description", *patch.ThemeDescription)
	}
	if patch.MessageID != nil {
		add("message_id", *patch.MessageID)
	}
	if patch.AttachmentURL != nil {
		add("attachment_url", *patch.AttachmentURL)
	}
	if patch.ApprovalState != nil {
		add("approval_state", *patch.ApprovalState)
	}
	if patch.Color != nil {
		add("color", *patch.Color)
	}
	if patch.Alpha != nil {
		add("alpha", *patch.Alpha)
	}
	if patch.Icon != nil {
		add("icon", *patch.Icon)
	}
	if patch.ThumbnailURLs != nil {
		add("thumbnail_urls", *patch.ThumbnailURLs)
	}

	return sets, args
}
