package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// AdminID may use admin-only commands such as /stats; 0 disables them.
	AdminID int64 `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateMedia identifies voice, audio, photo and document updates.
	UpdateMedia = "media"
)

// RateLimitConfig holds settings for per-user rate limiting.
// ExcludeUpdates accepts update kinds that bypass limiting: "message", "media".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// DatabaseConfig holds the optional dispatch journal connection settings.
// An empty Host disables the journal.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Enabled reports whether a journal database is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// CommandEntry maps a command literal to the provider service it invokes.
// Params, when set, turns the literal into a parameterized prefix that must be
// followed by exactly one of the listed single-digit values.
type CommandEntry struct {
	Literal string   `yaml:"literal"`
	Service string   `yaml:"service"`
	Params  []string `yaml:"params"`
}

// ImageOption is one row of the image-analysis menu.
type ImageOption struct {
	Key     string `yaml:"key"`
	Service string `yaml:"service"`
	Title   string `yaml:"title"`
}

// DispatchConfig is the static routing table consumed by the dispatcher.
type DispatchConfig struct {
	SessionTTLMinutes int            `yaml:"session_ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
	Namespace         string         `yaml:"namespace"`
	SelectionMarker   string         `yaml:"selection_marker"`
	ImageMarker       string         `yaml:"image_marker"`
	CancelKeywords    []string       `yaml:"cancel_keywords"`
	ClearAfterAnswer  bool           `yaml:"clear_after_answer" envconfig:"CLEAR_AFTER_ANSWER"`
	SweepSeconds      int            `yaml:"sweep_seconds"`
	Commands          []CommandEntry `yaml:"commands"`
	ImageMenu         []ImageOption  `yaml:"image_menu"`
	// ChatService and MultimodalServices name provider services for chat flows.
	ChatService        string            `yaml:"chat_service"`
	MultimodalServices map[string]string `yaml:"multimodal_services"`
}

// ProviderService describes how one provider endpoint is called and how its
// JSON response is mapped to a reply.
type ProviderService struct {
	URL string `yaml:"url"`
	// Encoding is one of "json", "form" or "multipart".
	Encoding  string `yaml:"encoding"`
	TextField string `yaml:"text_field"`
	FileField string `yaml:"file_field"`
	// ParamField receives a command parameter, e.g. the voice of "#vajatts:2".
	ParamField string `yaml:"param_field"`
	// SecondField, when set, splits the text on SplitOn (default "|"): the
	// left part goes to TextField, the right part to SecondField.
	SecondField string            `yaml:"second_field"`
	SplitOn     string            `yaml:"split_on"`
	Extra      map[string]string `yaml:"extra"`
	// Result paths are dotted JSON paths into the response body.
	TextPath     string `yaml:"text_path"`
	ImagePath    string `yaml:"image_path"`
	AudioPath    string `yaml:"audio_path"`
	DurationPath string `yaml:"duration_path"`
	// Render selects an optional post-processing step, e.g. "emoji".
	Render string `yaml:"render"`
}

// ProviderConfig configures the analysis provider client.
type ProviderConfig struct {
	APIKey         string                     `yaml:"api_key" envconfig:"AIFORTHAI_APIKEY"`
	TimeoutSeconds int                        `yaml:"timeout_seconds" envconfig:"PROVIDER_TIMEOUT_SECONDS"`
	Services       map[string]ProviderService `yaml:"services"`
}

// StorageConfig controls where downloaded artifacts are kept.
type StorageConfig struct {
	Dir          string `yaml:"dir" envconfig:"ARTIFACT_DIR"`
	MaxFileBytes int64  `yaml:"max_file_bytes" envconfig:"ARTIFACT_MAX_FILE_BYTES"`
}

// OpsConfig configures the health/stats HTTP server. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config aggregates the full bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Provider  ProviderConfig  `yaml:"provider"`
	Storage   StorageConfig   `yaml:"storage"`
	Ops       OpsConfig       `yaml:"ops"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateMessage: {},
		UpdateMedia:   {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: message, media", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	if cfg.Database.Enabled() {
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
		if cfg.Database.MigrationsDir == "" {
			cfg.Database.MigrationsDir = "migrations"
		}
	}

	if err := normalizeDispatch(&cfg.Dispatch); err != nil {
		return err
	}
	if err := normalizeProvider(&cfg.Provider); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Storage.Dir) == "" {
		cfg.Storage.Dir = filepath.Join(os.TempDir(), "aiftbot")
	}
	if cfg.Storage.MaxFileBytes <= 0 {
		cfg.Storage.MaxFileBytes = 20 << 20
	}
	return nil
}

func normalizeDispatch(d *DispatchConfig) error {
	def := DefaultDispatch()
	if d.SessionTTLMinutes < 0 {
		return fmt.Errorf("dispatch.session_ttl_minutes must be >= 0")
	}
	if d.SessionTTLMinutes == 0 {
		d.SessionTTLMinutes = def.SessionTTLMinutes
	}
	if d.SweepSeconds <= 0 {
		d.SweepSeconds = def.SweepSeconds
	}
	if strings.TrimSpace(d.Namespace) == "" {
		d.Namespace = def.Namespace
	}
	if strings.TrimSpace(d.SelectionMarker) == "" {
		d.SelectionMarker = def.SelectionMarker
	}
	if strings.TrimSpace(d.ImageMarker) == "" {
		d.ImageMarker = def.ImageMarker
	}
	if len(d.CancelKeywords) == 0 {
		d.CancelKeywords = def.CancelKeywords
	}
	if len(d.Commands) == 0 {
		d.Commands = def.Commands
	}
	if len(d.ImageMenu) == 0 {
		d.ImageMenu = def.ImageMenu
	}
	if d.ChatService == "" {
		d.ChatService = def.ChatService
	}
	if len(d.MultimodalServices) == 0 {
		d.MultimodalServices = def.MultimodalServices
	}

	seen := make(map[string]struct{}, len(d.Commands))
	for i, c := range d.Commands {
		lit := strings.TrimSpace(c.Literal)
		if lit == "" || c.Service == "" {
			return fmt.Errorf("dispatch.commands[%d]: literal and service are required", i)
		}
		if _, dup := seen[lit]; dup {
			return fmt.Errorf("dispatch.commands[%d]: duplicate literal %q", i, lit)
		}
		seen[lit] = struct{}{}
		for _, p := range c.Params {
			if len(p) != 1 || p[0] < '0' || p[0] > '9' {
				return fmt.Errorf("dispatch.commands[%d]: param %q must be a single digit", i, p)
			}
		}
		d.Commands[i].Literal = lit
	}

	keys := make(map[string]struct{}, len(d.ImageMenu))
	for i, o := range d.ImageMenu {
		key := strings.TrimSpace(o.Key)
		if key == "" || o.Service == "" {
			return fmt.Errorf("dispatch.image_menu[%d]: key and service are required", i)
		}
		if _, dup := keys[key]; dup {
			return fmt.Errorf("dispatch.image_menu[%d]: duplicate key %q", i, key)
		}
		keys[key] = struct{}{}
		d.ImageMenu[i].Key = key
		if d.ImageMenu[i].Title == "" {
			d.ImageMenu[i].Title = o.Service
		}
	}
	return nil
}

func normalizeProvider(p *ProviderConfig) error {
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 60
	}
	for name, svc := range p.Services {
		enc := strings.ToLower(strings.TrimSpace(svc.Encoding))
		if enc == "" {
			enc = "form"
		}
		switch enc {
		case "json", "form", "multipart":
		default:
			return fmt.Errorf("provider.services.%s: invalid encoding %q; allowed: json, form, multipart", name, svc.Encoding)
		}
		if strings.TrimSpace(svc.URL) == "" {
			return fmt.Errorf("provider.services.%s: url is required", name)
		}
		if svc.SecondField != "" {
			if svc.TextField == "" {
				return fmt.Errorf("provider.services.%s: second_field requires text_field", name)
			}
			if svc.SplitOn == "" {
				svc.SplitOn = "|"
			}
		}
		svc.Encoding = enc
		p.Services[name] = svc
	}
	return nil
}
