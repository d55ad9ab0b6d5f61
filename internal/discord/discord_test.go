package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"themedrop/internal/models"
)

func TestNewDisabledWithoutConfig(t *testing.T) {
	for _, tc := range []struct {
		name    string
		token   string
		channel string
	}{
		{"no token", "", "123"},
		{"no channel", "bot-token", ""},
		{"neither", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bot, err := New(tc.token, "app", "guild", tc.channel, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if bot != nil {
				t.Error("expected a nil bot when discord is not configured")
			}
		})
	}
}

// TestCommandShape pins the registered command tree: one /theme command
// with approve, reject, and status subcommands, each requiring file_id.
func TestCommandShape(t *testing.T) {
	if len(commands) != 1 || commands[0].Name != "theme" {
		t.Fatalf("expected a single /theme command, got %+v", commands)
	}

	want := map[string]bool{"approve": false, "reject": false, "status": false}
	for _, sub := range commands[0].Options {
		if sub.Type != discordgo.ApplicationCommandOptionSubCommand {
			t.Errorf("option %s is not a subcommand", sub.Name)
		}
		if _, ok := want[sub.Name]; !ok {
			t.Errorf("unexpected subcommand %s", sub.Name)
			continue
		}
		want[sub.Name] = true

		if len(sub.Options) != 1 || sub.Options[0].Name != "file_id" || !sub.Options[0].Required {
			t.Errorf("subcommand %s must take a required file_id option", sub.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing subcommand %s", name)
		}
	}
}

func TestAnnounceEmbed(t *testing.T) {
	msgID := "112233445566778899"
	theme := &models.Theme{
		FileID:           "abc123",
		ThemeName:        "Aurora",
		ThemeAuthor:      "nova",
		ThemeDescription: "Shifting greens.",
		MessageID:        &msgID,
		AttachmentURL:    "https://cdn.example.com/abc123.zip",
		Icon:             "https://cdn.example.com/abc123.png",
		ThumbnailURLs:    []string{"https://cdn.example.com/t1.png", "https://cdn.example.com/t2.png"},
	}

	embed := announceEmbed(theme)
	if embed.Title != "Aurora" || embed.URL != theme.AttachmentURL {
		t.Errorf("embed header: %+v", embed)
	}
	if embed.Footer == nil || embed.Footer.Text != "file_id: abc123" {
		t.Errorf("embed footer: %+v", embed.Footer)
	}
	if embed.Author == nil || embed.Author.Name != "nova" {
		t.Errorf("embed author: %+v", embed.Author)
	}
	if embed.Image == nil || embed.Image.URL != theme.ThumbnailURLs[0] {
		t.Errorf("embed image: %+v", embed.Image)
	}

	// Optional fields fall away instead of rendering empty.
	bare := announceEmbed(&models.Theme{FileID: "bare", ThemeName: "Bare"})
	if bare.Author != nil || bare.Thumbnail != nil || bare.Image != nil {
		t.Errorf("bare embed carries empty optional fields: %+v", bare)
	}
}
