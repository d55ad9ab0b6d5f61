package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"themedrop/internal/models"
)

// testTheme builds a distinct theme record for one test.
func testTheme(prefix string) *models.Theme {
	fileID := prefix + "-" + uuid.NewString()[:8]
	return &models.Theme{
		FileName:         fileID + ".zip",
		FileID:           fileID,
		ThemeName:        "Test Theme",
		ThemeAuthor:      "tester",
		ThemeDescription: "A theme for store tests.",
		AttachmentURL:    "https://cdn.example.com/" + fileID + ".zip",
		ApprovalState:    models.StatePending,
		Color:            models.Color{Hex: "#112233", Alpha: 0.5},
		Icon:             "https://cdn.example.com/" + fileID + ".png",
		ThumbnailURLs:    []string{"https://cdn.example.com/t1.png", "https://cdn.example.com/t2.png"},
	}
}

func TestThemeStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("create")
	t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := s.FindByFileID(ctx, theme.FileID)
	if err != nil {
		t.Fatalf("FindByFileID: %v", err)
	}
	if found.ThemeName != theme.ThemeName {
		t.Errorf("theme_name: got %q, want %q", found.ThemeName, theme.ThemeName)
	}
	if found.Color != theme.Color {
		t.Errorf("color: got %+v, want %+v", found.Color, theme.Color)
	}
	if len(found.ThumbnailURLs) != 2 {
		t.Errorf("thumbnails: got %d, want 2", len(found.ThumbnailURLs))
	}
	if found.MessageID != nil {
		t.Errorf("message_id: got %v, want nil", *found.MessageID)
	}

	// Not found.
	_, err = s.FindByFileID(ctx, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByFileID miss: got %v, want ErrNotFound", err)
	}
}

func TestThemeStoreCreateDuplicate(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("dup")
	t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Second insert with the same file_id fails and leaves the row alone.
	clone := *theme
	clone.ThemeName = "Imposter"
	err := s.Create(ctx, &clone)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate Create: got %v, want ErrDuplicate", err)
	}

	found, err := s.FindByFileID(ctx, theme.FileID)
	if err != nil {
		t.Fatalf("FindByFileID: %v", err)
	}
	if found.ThemeName != "Test Theme" {
		t.Errorf("store changed by failed insert: theme_name = %q", found.ThemeName)
	}
}

func TestThemeStoreUpsertByFileID(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	t.Run("missing row returns ErrNotFound and writes nothing", func(t *testing.T) {
		theme := testTheme("upsert-miss")
		_, err := s.UpsertByFileID(ctx, theme)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("upsert miss: got %v, want ErrNotFound", err)
		}

		_, err = s.FindByFileID(ctx, theme.FileID)
		if !errors.Is(err, ErrNotFound) {
			t.Error("upsert on missing file_id must not insert")
		}
	})

	t.Run("existing row updates and returns prior message_id", func(t *testing.T) {
		theme := testTheme("upsert-hit")
		priorMsg := "8890001112223334445"
		theme.MessageID = &priorMsg
		t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

		if err := s.Create(ctx, theme); err != nil {
			t.Fatalf("Create: %v", err)
		}

		updated := *theme
		updated.ThemeName = "Renamed"
		newMsg := "9990001112223334445"
		updated.MessageID = &newMsg

		got, err := s.UpsertByFileID(ctx, &updated)
		if err != nil {
			t.Fatalf("UpsertByFileID: %v", err)
		}
		if got == nil || *got != priorMsg {
			t.Errorf("returned message_id: got %v, want %q", got, priorMsg)
		}

		found, err := s.FindByFileID(ctx, theme.FileID)
		if err != nil {
			t.Fatalf("FindByFileID: %v", err)
		}
		if found.ThemeName != "Renamed" {
			t.Errorf("theme_name after upsert: got %q, want %q", found.ThemeName, "Renamed")
		}
		if found.MessageID == nil || *found.MessageID != newMsg {
			t.Errorf("message_id after upsert: got %v, want %q", found.MessageID, newMsg)
		}
	})
}

func TestThemeStoreFindByMessageID(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("bymsg")
	msgID := "7770001112223334445"
	theme.MessageID = &msgID
	t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := s.FindByMessageID(ctx, msgID)
	if err != nil {
		t.Fatalf("FindByMessageID: %v", err)
	}
	if found.FileID != theme.FileID {
		t.Errorf("file_id: got %q, want %q", found.FileID, theme.FileID)
	}

	_, err = s.FindByMessageID(ctx, "0000000000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByMessageID miss: got %v, want ErrNotFound", err)
	}
}

func TestThemeStoreListStatusFilter(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	pending := testTheme("list-pending")
	accepted := testTheme("list-accepted")
	accepted.ApprovalState = models.StateAccepted
	rejected := testTheme("list-rejected")
	rejected.ApprovalState = models.StateRejected
	t.Cleanup(func() { cleanThemes(t, db, pending.FileID, accepted.FileID, rejected.FileID) })

	for _, theme := range []*models.Theme{pending, accepted, rejected} {
		if err := s.Create(ctx, theme); err != nil {
			t.Fatalf("Create %s: %v", theme.FileID, err)
		}
	}

	// Filtered listing never leaks other approval states.
	themes, err := s.List(ctx, 1000, 0, models.StateAccepted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var sawAccepted bool
	for _, theme := range themes {
		if theme.ApprovalState != models.StateAccepted {
			t.Errorf("accepted listing leaked %q in state %q", theme.FileID, theme.ApprovalState)
		}
		if theme.FileID == accepted.FileID {
			sawAccepted = true
		}
	}
	if !sawAccepted {
		t.Error("accepted theme missing from filtered listing")
	}

	// Pagination: limit 1.
	themes, err = s.List(ctx, 1, 0, "")
	if err != nil {
		t.Fatalf("List(1,0): %v", err)
	}
	if len(themes) != 1 {
		t.Errorf("expected 1 theme with limit=1, got %d", len(themes))
	}
}

func TestThemeStoreStatus(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("status")
	theme.ApprovalState = models.StateRejected
	t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	state, err := s.Status(ctx, theme.FileID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if state != models.StateRejected {
		t.Errorf("status: got %q, want %q", state, models.StateRejected)
	}

	_, err = s.Status(ctx, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Status miss: got %v, want ErrNotFound", err)
	}
}

func TestThemeStoreDeleteByFileID(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("delete")
	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.DeleteByFileID(ctx, theme.FileID); err != nil {
		t.Fatalf("DeleteByFileID: %v", err)
	}

	_, err := s.FindByFileID(ctx, theme.FileID)
	if !errors.Is(err, ErrNotFound) {
		t.Error("theme still present after delete")
	}

	// Deleting again reports not found.
	err = s.DeleteByFileID(ctx, theme.FileID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestThemeStoreUpdateByFileID(t *testing.T) {
	db := testDB(t)
	s := NewThemeStore(db)
	ctx := context.Background()

	theme := testTheme("update")
	t.Cleanup(func() { cleanThemes(t, db, theme.FileID) })

	if err := s.Create(ctx, theme); err != nil {
		t.Fatalf("Create: %v", err)
	}

	state := string(models.StateAccepted)
	if err := s.UpdateByFileID(ctx, theme.FileID, models.ThemeUpdate{ApprovalState: &state}); err != nil {
		t.Fatalf("UpdateByFileID: %v", err)
	}

	found, err := s.FindByFileID(ctx, theme.FileID)
	if err != nil {
		t.Fatalf("FindByFileID: %v", err)
	}
	if found.ApprovalState != models.StateAccepted {
		t.Errorf("approval_state: got %q, want %q", found.ApprovalState, models.StateAccepted)
	}
	// Everything else is untouched.
	if found.ThemeName != theme.ThemeName {
		t.Errorf("theme_name changed by partial update: got %q", found.ThemeName)
	}
	if found.Color != theme.Color {
		t.Errorf("color changed by partial update: got %+v", found.Color)
	}

	// Missing row.
	err = s.UpdateByFileID(ctx, "no-such-id", models.ThemeUpdate{ApprovalState: &state})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("update miss: got %v, want ErrNotFound", err)
	}

	// Empty patch on an existing row is a no-op, not an error.
	if err := s.UpdateByFileID(ctx, theme.FileID, models.ThemeUpdate{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}
}
