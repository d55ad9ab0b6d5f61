package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data.
// It inserts a sample pending theme if the table is empty, so the
// moderation endpoints have something to show in a fresh dev setup.
func Seed(db *sql.DB) error {
	// Check if any themes exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM themes").Scan(&count); err != nil {
		return fmt.Errorf("seed check themes: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO themes (file_name, file_id, theme_name, theme_author,
			theme_description, approval_state, color, alpha, icon, thumbnail_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, "sample.zip", "sample-theme", "Sample Theme", "ThemeDrop",
		"A placeholder submission for local development.", "pending",
		"#1e1e2e", 1.0, "", "")
	if err != nil {
		return fmt.Errorf("seed insert theme: %w", err)
	}

	slog.Info("database seeded with sample theme", "file_id", "sample-theme")

	return nil
}
