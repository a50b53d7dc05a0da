package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func nameOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: "Name of the entry.",
		Required:    true,
	}
}

// SlashCommands returns the slash command set the bot serves.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "info",
			Description: "View info about a CDN entry.",
			Options:     []*discordgo.ApplicationCommandOption{nameOption()},
		},
		{
			Name:        "delete",
			Description: "Delete a CDN entry.",
			Options:     []*discordgo.ApplicationCommandOption{nameOption()},
		},
		{
			Name:        "short",
			Description: "Shorten a URL.",
			Options: []*discordgo.ApplicationCommandOption{
				nameOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "URL to shorten.",
					Required:    true,
				},
			},
		},
		{
			Name:        "upload",
			Description: "Upload a file to CDN.",
			Options: []*discordgo.ApplicationCommandOption{
				nameOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "URL of the file.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ext",
					Description: "Optional extension.",
				},
			},
		},
	}
}

// CommandRegistry is the part of the Discord REST API that manages
// application commands. *discordgo.Session implements it.
type CommandRegistry interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(
		appID, guildID string,
		commands []*discordgo.ApplicationCommand,
		options ...discordgo.RequestOption,
	) ([]*discordgo.ApplicationCommand, error)
}

// SyncCommands overwrites the registered global commands when their count
// differs from the local definitions. It reports whether it wrote.
func SyncCommands(ctx context.Context, registry CommandRegistry, appID string, logger *zap.Logger) (bool, error) {
	local := SlashCommands()

	registered, err := registry.ApplicationCommands(appID, "", discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("list commands: %w", err)
	}

	if len(registered) == len(local) {
		logger.Debug("slash commands up to date", zap.Int("count", len(local)))

		return false, nil
	}

	if _, err := registry.ApplicationCommandBulkOverwrite(appID, "", local, discordgo.WithContext(ctx)); err != nil {
		return false, fmt.Errorf("overwrite commands: %w", err)
	}

	logger.Info("slash commands registered",
		zap.Int("registered", len(registered)),
		zap.Int("local", len(local)),
	)

	return true, nil
}
