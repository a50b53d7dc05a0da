package container

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do"
	"github.com/serroba/namecdn/internal/bot"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	botCommandsPerMinute = 20
	botSyncTimeout       = 15 * time.Second
)

var errBotDisabled = errors.New("discord bot is not configured")

// DiscordSession owns the REST session used to edit deferred replies.
type DiscordSession struct {
	*discordgo.Session
}

func (s *DiscordSession) Shutdown() error {
	return s.Close()
}

// BotPackage provides the Discord interactions *bot.Handler. Invoking it
// without a public key fails with errBotDisabled.
func BotPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*DiscordSession, error) {
		opts := do.MustInvoke[*Options](i)

		session, err := discordgo.New("Bot " + opts.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("create discord session: %w", err)
		}

		return &DiscordSession{Session: session}, nil
	})

	do.Provide(injector, func(i *do.Injector) (*bot.Handler, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.DiscordPublicKey == "" {
			return nil, errBotDisabled
		}

		key, err := hex.DecodeString(opts.DiscordPublicKey)
		if err != nil || len(key) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid discord public key")
		}

		logger := do.MustInvoke[*zap.Logger](i).Named("bot")
		session := do.MustInvoke[*DiscordSession](i)

		if opts.DiscordToken != "" && opts.DiscordAppID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), botSyncTimeout)
			_, err := bot.SyncCommands(ctx, session.Session, opts.DiscordAppID, logger)
			cancel()

			if err != nil {
				logger.Warn("slash command sync failed", zap.Error(err))
			}
		}

		limiter := ratelimit.NewSlidingWindowLimiter(do.MustInvoke[ratelimit.Store](i), botCommandsPerMinute, time.Minute)

		return bot.NewHandler(bot.Config{
			PublicKey:    ed25519.PublicKey(key),
			AllowedUsers: opts.AllowedUsers(),
			BaseURL:      opts.PublicBaseURL(),
		}, do.MustInvoke[*cdn.Service](i), session.Session, logger, bot.WithLimiter(limiter)), nil
	})
}
