package container

import (
	"fmt"
	"strings"
)

// Options configures the server. humacli also reads every field from the
// matching SERVICE_* environment variable.
type Options struct {
	Port    int    `default:"8888"                 help:"Port to listen on"                                  short:"p"`
	BaseURL string `default:""                     help:"Public base URL for links (default http://localhost:<port>)"`
	HomeURL string `default:"https://owo.w69.wtf/" help:"Where GET / redirects"`

	LogFormat string `default:"json" enum:"json,console" help:"Log output format"`

	Storage       string `default:"memory" enum:"memory,remote,postgres" help:"Entry storage backend"`
	StorageServer string `default:""       help:"Remote storage service base URL"`
	StorageToken  string `default:""       help:"Remote storage service token"`
	DatabaseURL   string `default:"postgres://localhost:5432/namecdn?sslmode=disable" help:"PostgreSQL connection string"`
	APIToken      string `default:""       help:"Management API token (default: the storage token)"`

	RedisAddr       string `default:""    help:"Redis address; enables the entry cache, shared rate limits and analytics" short:"r"`
	CacheTTLSeconds int    `default:"300" help:"Entry cache TTL in seconds"`
	Analytics       bool   `default:"false" help:"Publish analytics events to Redis streams"`

	MaxUploadMB int `default:"64" help:"Largest accepted upload or fetched file in MiB"`

	DiscordPublicKey string `default:"" help:"Hex Ed25519 application public key; empty disables the bot"`
	DiscordToken     string `default:"" help:"Bot token used to edit deferred responses and register commands"`
	DiscordAppID     string `default:"" help:"Discord application id"`
	DiscordUsers     string `default:"" help:"Comma-separated user ids allowed to run bot commands"`
}

// PublicBaseURL is the base URL embedded in links and preview cards.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return strings.TrimSuffix(o.BaseURL, "/")
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// ManagementToken is the token the management API expects.
func (o *Options) ManagementToken() string {
	if o.APIToken != "" {
		return o.APIToken
	}

	return o.StorageToken
}

// AllowedUsers splits DiscordUsers.
func (o *Options) AllowedUsers() []string {
	var users []string

	for _, id := range strings.Split(o.DiscordUsers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			users = append(users, id)
		}
	}

	return users
}

func (o *Options) maxUploadBytes() int64 {
	if o.MaxUploadMB <= 0 {
		return 64 << 20
	}

	return int64(o.MaxUploadMB) << 20
}
