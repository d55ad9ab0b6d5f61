// Package discord runs the companion bot for the theme-submission service.
// It announces ingested themes in the submissions channel and exposes a
// small set of moderation slash commands that drive the same theme store
// the HTTP surface uses.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"themedrop/internal/models"
	"themedrop/internal/store"
)

// Bot wraps a discordgo session bound to one guild and one submissions
// channel.
type Bot struct {
	s          *discordgo.Session
	appID      string
	guildID    string
	channelID  string
	themes     *store.ThemeStore
	registered []*discordgo.ApplicationCommand
}

// New creates the bot but does not open the gateway connection yet.
// Returns (nil, nil) when token or channel are empty, allowing the service
// to run headless without Discord.
func New(token, appID, guildID, channelID string, themes *store.ThemeStore) (*Bot, error) {
	if token == "" || channelID == "" {
		return nil, nil
	}

	session, err := discordgo.New(fmt.Sprintf("Bot %s", token))
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}

	return &Bot{
		s:         session,
		appID:     appID,
		guildID:   guildID,
		channelID: channelID,
		themes:    themes,
	}, nil
}

// commands describes the moderation slash commands registered on Open.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "theme",
		Description: "Moderate submitted themes",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "approve",
				Description: "Mark a theme as accepted",
				Options:     []*discordgo.ApplicationCommandOption{fileIDOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reject",
				Description: "Mark a theme as rejected",
				Options:     []*discordgo.ApplicationCommandOption{fileIDOption()},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show the approval state of a theme",
				Options:     []*discordgo.ApplicationCommandOption{fileIDOption()},
			},
		},
	},
}

func fileIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "file_id",
		Description: "The theme's file identifier",
		Required:    true,
	}
}

// Open connects to the gateway, registers the slash commands, and installs
// the interaction handler.
func (b *Bot) Open() error {
	b.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord session ready", "user", r.User.Username)
	})
	b.s.AddHandler(b.handleInteraction)

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}

	for _, cmd := range commands {
		created, err := b.s.ApplicationCommandCreate(b.appID, b.guildID, cmd)
		if err != nil {
			slog.Error("discord command registration failed", "command", cmd.Name, "error", err)
			continue
		}
		b.registered = append(b.registered, created)
	}

	return nil
}

// Close unregisters the slash commands and shuts the session down.
func (b *Bot) Close() {
	for _, cmd := range b.registered {
		if err := b.s.ApplicationCommandDelete(b.appID, b.guildID, cmd.ID); err != nil {
			slog.Warn("discord command cleanup failed", "command", cmd.Name, "error", err)
		}
	}
	b.s.Close()
}

// announceEmbed builds the submission announcement for a theme. Optional
// fields are omitted rather than rendered empty.
func announceEmbed(theme *models.Theme) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       theme.ThemeName,
		Description: theme.ThemeDescription,
		URL:         theme.AttachmentURL,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "file_id: " + theme.FileID,
		},
	}
	if theme.ThemeAuthor != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: theme.ThemeAuthor}
	}
	if theme.Icon != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: theme.Icon}
	}
	if len(theme.ThumbnailURLs) > 0 {
		embed.Image = &discordgo.MessageEmbedImage{URL: theme.ThumbnailURLs[0]}
	}
	return embed
}

// Announce posts an embed for a freshly ingested theme in the submissions
// channel and returns the message ID so the store can correlate the record.
func (b *Bot) Announce(theme *models.Theme) (string, error) {
	msg, err := b.s.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{announceEmbed(theme)},
	})
	if err != nil {
		return "", fmt.Errorf("discord announce: %w", err)
	}
	return msg.ID, nil
}

// DeleteMessage removes the announcement message for a deleted theme.
// Best-effort: failures are logged, never propagated.
func (b *Bot) DeleteMessage(messageID string) {
	if err := b.s.ChannelMessageDelete(b.channelID, messageID); err != nil {
		slog.Warn("discord message delete failed", "message_id", messageID, "error", err)
	}
}

// handleInteraction dispatches the /theme subcommands.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if data.Name != "theme" || len(data.Options) == 0 {
		return
	}

	sub := data.Options[0]
	var fileID string
	for _, opt := range sub.Options {
		if opt.Name == "file_id" {
			fileID = opt.StringValue()
		}
	}

	ctx := context.Background()
	var content string
	switch sub.Name {
	case "approve":
		content = b.moderate(ctx, fileID, models.StateAccepted)
	case "reject":
		content = b.moderate(ctx, fileID, models.StateRejected)
	case "status":
		state, err := b.themes.Status(ctx, fileID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			content = fmt.Sprintf("No theme with file_id `%s`", fileID)
		case err != nil:
			slog.Error("theme status lookup failed", "file_id", fileID, "error", err)
			content = "Something went wrong looking that theme up."
		default:
			content = fmt.Sprintf("Theme `%s` is **%s**", fileID, state)
		}
	default:
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Warn("discord interaction respond failed", "error", err)
	}
}

// moderate flips a theme's approval state and reports the outcome.
func (b *Bot) moderate(ctx context.Context, fileID string, state models.ApprovalState) string {
	s := string(state)
	err := b.themes.UpdateByFileID(ctx, fileID, models.ThemeUpdate{ApprovalState: &s})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Sprintf("No theme with file_id `%s`", fileID)
	case err != nil:
		slog.Error("theme moderation failed", "file_id", fileID, "state", state, "error", err)
		return "Something went wrong updating that theme."
	}
	return fmt.Sprintf("Theme `%s` is now **%s**", fileID, state)
}
