// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "strings"

// ApprovalState is the moderation status of a submitted theme.
type ApprovalState string

const (
	StatePending  ApprovalState = "pending"
	StateAccepted ApprovalState = "accepted"
	StateRejected ApprovalState = "rejected"
)

// Valid reports whether s is a member of the closed approval-state set.
func (s ApprovalState) Valid() bool {
	switch s {
	case StatePending, StateAccepted, StateRejected:
		return true
	}
	return false
}

// Color is the accent color a theme declares for its listing card.
type Color struct {
	Hex   string  `json:"hex"`
	Alpha float64 `json:"alpha"`
}

// Theme is the canonical in-memory shape of a submitted theme's metadata.
// FileID is the natural key; MessageID correlates the record to the Discord
// message that announced the submission and is nil until the announcement
// has been posted.
type Theme struct {
	FileName         string        `json:"file_name"`
	FileID           string        `json:"file_id"`
	ThemeName        string        `json:"theme_name"`
	ThemeAuthor      string        `json:"theme_author"`
	ThemeDescription string        `json:"theme_description"`
	MessageID        *string       `json:"message_id,omitempty"`
	AttachmentURL    string        `json:"attachment_url"`
	ApprovalState    ApprovalState `json:"approval_state"`
	Color            Color         `json:"color"`
	Icon             string        `json:"icon"`
	ThumbnailURLs    []string      `json:"thumbnails_urls,omitempty"`
}

// ThemeRow is the flattened row representation persisted in the themes
// table: the color composite becomes two scalar columns and the thumbnail
// list is joined into a single comma-delimited column. The join is lossy if
// a URL ever contains a comma; the column format is kept for compatibility
// with existing databases.
type ThemeRow struct {
	FileName         string
	FileID           string
	ThemeName        string
	ThemeAuthor      string
	ThemeDescription string
	MessageID        *string
	AttachmentURL    string
	ApprovalState    string
	Color            string
	Alpha            float64
	Icon             string
	ThumbnailURLs    string
}

// ToRow flattens a Theme into its persisted row shape. Pure transform.
func (t *Theme) ToRow() ThemeRow {
	return ThemeRow{
		FileName:         t.FileName,
		FileID:           t.FileID,
		ThemeName:        t.ThemeName,
		ThemeAuthor:      t.ThemeAuthor,
		ThemeDescription: t.ThemeDescription,
		MessageID:        t.MessageID,
		AttachmentURL:    t.AttachmentURL,
		ApprovalState:    string(t.ApprovalState),
		Color:            t.Color.Hex,
		Alpha:            t.Color.Alpha,
		Icon:             t.Icon,
		ThumbnailURLs:    strings.Join(t.ThumbnailURLs, ","),
	}
}

// FromRow reconstructs the nested Theme from a flat row. An empty thumbnail
// column maps to a nil slice, not a one-element slice holding "".
func FromRow(row ThemeRow) *Theme {
	return &Theme{
		FileName:         row.FileName,
		FileID:           row.FileID,
		ThemeName:        row.ThemeName,
		ThemeAuthor:      row.ThemeAuthor,
		ThemeDescription: row.ThemeDescription,
		MessageID:        row.MessageID,
		AttachmentURL:    row.AttachmentURL,
		ApprovalState:    ApprovalState(row.ApprovalState),
		Color: Color{
			Hex:   row.Color,
			Alpha: row.Alpha,
		},
		Icon:          row.Icon,
		ThumbnailURLs: SplitThumbnails(row.ThumbnailURLs),
	}
}

// SplitThumbnails splits the comma-delimited thumbnail column back into a
// slice. strings.Split("", ",") would yield [""], so the empty column is
// special-cased to nil.
func SplitThumbnails(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// ThemeUpdate is a partial patch against a persisted theme row. Field names
// mirror the flat column names accepted by the PUT endpoint; nil fields are
// left untouched.
type ThemeUpdate struct {
	FileName         *string  `json:"file_name,omitempty"`
	ThemeName        *string  `json:"theme_name,omitempty"`
	ThemeAuthor      *string  `json:"theme_author,omitempty"`
	ThemeDescription *string  `json:"theme_description,omitempty"`
	MessageID        *string  `json:"message_id,omitempty"`
	AttachmentURL    *string  `json:"attachment_url,omitempty"`
	ApprovalState    *string  `json:"approval_state,omitempty"`
	Color            *string  `json:"color,omitempty"`
	Alpha            *float64 `json:"alpha,omitempty"`
	Icon             *string  `json:"icon,omitempty"`
	ThumbnailURLs    *string  `json:"thumbnail_urls,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (u *ThemeUpdate) IsEmpty() bool {
	return u.FileName == nil && u.ThemeName == nil && u.ThemeAuthor == nil &&
		u.ThemeDescription == nil && u.MessageID == nil && u.AttachmentURL == nil &&
		u.ApprovalState == nil && u.Color == nil && u.Alpha == nil &&
		u.Icon == nil && u.ThumbnailURLs == nil
}
