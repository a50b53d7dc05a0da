package bot

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/serroba/namecdn/internal/analytics"
	"github.com/serroba/namecdn/internal/cdn"
	"github.com/serroba/namecdn/internal/entry"
	"github.com/serroba/namecdn/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	embedColor           = 0x43ae7d
	defaultUploadTimeout = 2 * time.Minute

	replyForbidden    = "You're not allowed to use this command."
	replyThrottled    = "You're doing that too often, try again in a bit."
	replyUnhandled    = "Unhandled command."
	replyNotFound     = "Entry not found."
	replyExists       = "Entry already exists."
	replyFetchFailed  = "Failed to fetch URL."
	replyDeleted      = "Deleted entry."
	replyDeleteFailed = "Failed to delete: entry not found."
	replyUploadFailed = "Failed to upload file."
)

// Commands is the management command surface the bot drives.
type Commands interface {
	CreateURL(ctx context.Context, name, url string) (*entry.Entry, error)
	Inspect(ctx context.Context, name string) (*entry.Entry, error)
	Remove(ctx context.Context, name string) error
	UploadFromURL(ctx context.Context, name, sourceURL, ext string) (*entry.Entry, error)
}

// Responder edits a deferred interaction response. *discordgo.Session
// implements it.
type Responder interface {
	InteractionResponseEdit(
		interaction *discordgo.Interaction,
		edit *discordgo.WebhookEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// Config configures a Handler.
type Config struct {
	PublicKey     ed25519.PublicKey
	AllowedUsers  []string
	BaseURL       string
	UploadTimeout time.Duration
}

// Handler serves Discord HTTP interactions.
type Handler struct {
	publicKey     ed25519.PublicKey
	allowed       map[string]struct{}
	baseURL       string
	uploadTimeout time.Duration
	commands      Commands
	responder     Responder
	limiter       ratelimit.Limiter
	logger        *zap.Logger
	inflight      sync.WaitGroup
}

// Option configures optional Handler collaborators.
type Option func(*Handler)

// WithLimiter throttles commands per Discord user.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// NewHandler creates an interactions handler.
func NewHandler(cfg Config, commands Commands, responder Responder, logger *zap.Logger, opts ...Option) *Handler {
	allowed := make(map[string]struct{}, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		allowed[id] = struct{}{}
	}

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}

	h := &Handler{
		publicKey:     cfg.PublicKey,
		allowed:       allowed,
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		uploadTimeout: timeout,
		commands:      commands,
		responder:     responder,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, h.publicKey) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)

		return
	}

	var interaction discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		http.Error(w, "malformed interaction", http.StatusBadRequest)

		return
	}

	resp := h.handle(r.Context(), &interaction)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write interaction response", zap.Error(err))
	}
}

// Shutdown waits for deferred uploads to finish.
func (h *Handler) Shutdown() error {
	h.inflight.Wait()

	return nil
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}

	if i.User != nil {
		return i.User.ID
	}

	return ""
}

func option(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}

	return ""
}

func message(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func (h *Handler) handle(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	switch i.Type {
	case discordgo.InteractionPing:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
	case discordgo.InteractionApplicationCommand:
	default:
		return ephemeral(replyUnhandled)
	}

	data := i.ApplicationCommandData()
	user := userID(i)
	log := h.logger.With(zap.String("command", data.Name), zap.String("user", user))

	if _, ok := h.allowed[user]; !ok {
		log.Warn("command from user outside the allow-list")

		return message(replyForbidden)
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(ctx, "bot:"+user)
		if err != nil {
			log.Error("bot rate limit check failed", zap.Error(err))
		} else if !allowed {
			return ephemeral(replyThrottled)
		}
	}

	ctx = cdn.WithSource(ctx, analytics.SourceBot)
	name := option(data, "name")

	switch data.Name {
	case "info":
		return h.info(ctx, log, name)
	case "delete":
		return h.remove(ctx, log, name)
	case "short":
		return h.short(ctx, log, name, option(data, "url"))
	case "upload":
		h.startUpload(i, log, name, option(data, "url"), option(data, "ext"))

		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	default:
		return ephemeral(replyUnhandled)
	}
}

func (h *Handler) link(name string) string {
	return h.baseURL + "/" + name
}

func (h *Handler) info(ctx context.Context, log *zap.Logger, name string) *discordgo.InteractionResponse {
	e, err := h.commands.Inspect(ctx, name)
	if err != nil {
		if !errors.Is(err, entry.ErrNotFound) {
			log.Error("failed to inspect entry", zap.Error(err))
		}

		return message(replyNotFound)
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title: "CDN - " + e.Name,
					URL:   h.link(e.Name),
					Color: embedColor,
					Fields: []*discordgo.MessageEmbedField{
						{Name: "Type", Value: e.Kind.String(), Inline: true},
						{Name: "Created At", Value: e.Created.UTC().Format("Mon Jan 02 2006"), Inline: true},
					},
				},
			},
		},
	}
}

func (h *Handler) remove(ctx context.Context, log *zap.Logger, name string) *discordgo.InteractionResponse {
	if err := h.commands.Remove(ctx, name); err != nil {
		if !errors.Is(err, entry.ErrNotFound) {
			log.Error("failed to delete entry", zap.Error(err))
		}

		return message(replyDeleteFailed)
	}

	return message(replyDeleted)
}

func (h *Handler) short(ctx context.Context, log *zap.Logger, name, url string) *discordgo.InteractionResponse {
	if _, err := h.commands.CreateURL(ctx, name, url); err != nil {
		if errors.Is(err, entry.ErrDuplicateName) {
			return message(replyExists)
		}

		log.Error("failed to shorten url", zap.Error(err))

		return message("Failed to shorten URL: " + err.Error())
	}

	return message("[Shortened URL.](" + h.link(name) + ")")
}

// startUpload runs the download after the deferred response has been
// written, on a context detached from the interaction request.
func (h *Handler) startUpload(i *discordgo.Interaction, log *zap.Logger, name, url, ext string) {
	h.inflight.Add(1)

	go func() {
		defer h.inflight.Done()

		ctx, cancel := context.WithTimeout(cdn.WithSource(context.Background(), analytics.SourceBot), h.uploadTimeout)
		defer cancel()

		content := h.upload(ctx, log, name, url, ext)

		if _, err := h.responder.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content},
			discordgo.WithContext(ctx)); err != nil {
			log.Error("failed to edit interaction response", zap.Error(err))
		}
	}()
}

func (h *Handler) upload(ctx context.Context, log *zap.Logger, name, url, ext string) string {
	_, err := h.commands.UploadFromURL(ctx, name, url, ext)

	switch {
	case err == nil:
		return "[Successfully uploaded file.](" + h.link(name) + ")"
	case errors.Is(err, cdn.ErrFetchFailed):
		log.Warn("upload fetch failed", zap.String("url", url), zap.Error(err))

		return replyFetchFailed
	case errors.Is(err, entry.ErrDuplicateName):
		return replyExists
	default:
		log.Error("upload failed", zap.Error(err))

		return replyUploadFailed
	}
}
