package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

/* Config is the settings snapshot consumed by every component.
 * It is a value type: callers receive a copy and never mutate shared state.
 */

// ErrInvalidConfig is returned by Validate when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

const envPrefix = "KINCORD"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Kintone     KintoneConfig     `mapstructure:"kintone"`
	Discord     DiscordConfig     `mapstructure:"discord"`
	App         AppConfig         `mapstructure:"app"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	AutoStart       bool          `mapstructure:"auto_start"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
}

// Addr returns the host:port the listener binds.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type KintoneConfig struct {
	// WebhookToken is the shared secret expected in X-Cybozu-Webhook-Token.
	// Empty disables token validation.
	WebhookToken string `mapstructure:"webhook_token"`
	Subdomain    string `mapstructure:"subdomain"`
}

type DiscordConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Username   string        `mapstructure:"username"`
	AvatarURL  string        `mapstructure:"avatar_url"`
	Locale     string        `mapstructure:"locale"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
}

type AppConfig struct {
	ShowNotifications bool `mapstructure:"show_notifications"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	HeartbeatTTL time.Duration `mapstructure:"heartbeat_ttl"`
}

type DiagnosticsConfig struct {
	// Schedule is a cron expression; empty disables scheduled diagnostics.
	Schedule string `mapstructure:"schedule"`
}

// Loader reads the config file and environment through its own viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader for the given file. An empty path searches
// ./kincord.yaml and /etc/kincord/kincord.yaml.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kincord")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kincord")
	}
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// GetConfig loads the config once.
func GetConfig(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Load reads the config file (a missing file is not an error) and decodes it.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &cfg, nil
}

// File returns the config file in use, or "" when running on defaults.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the config whenever the file changes and passes the result
// to onChange. It must be called after Load.
func (l *Loader) Watch(onChange func(*Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.auto_start", true)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("kintone.webhook_token", "")
	v.SetDefault("kintone.subdomain", "")

	v.SetDefault("discord.webhook_url", "")
	v.SetDefault("discord.username", "kintone Bot")
	v.SetDefault("discord.avatar_url", "")
	v.SetDefault("discord.locale", "en")
	v.SetDefault("discord.timeout", 10*time.Second)
	v.SetDefault("discord.rate_per_sec", 0)

	v.SetDefault("app.show_notifications", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.heartbeat_ttl", 60*time.Second)

	v.SetDefault("diagnostics.schedule", "")
}

// Validate checks the settings that would make the listener unusable.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Discord.RatePerSec < 0 {
		return fmt.Errorf("%w: discord.rate_per_sec must not be negative", ErrInvalidConfig)
	}
	switch c.Discord.Locale {
	case "", "en", "ja":
	default:
		return fmt.Errorf("%w: discord.locale %q is not supported", ErrInvalidConfig, c.Discord.Locale)
	}
	return nil
}

// Warnings lists settings that are accepted but probably not intended.
func (c Config) Warnings() []string {
	var w []string
	if c.Kintone.WebhookToken == "" {
		w = append(w, "kintone.webhook_token is empty: inbound requests are accepted without token validation")
	}
	if c.Discord.WebhookURL == "" {
		w = append(w, "discord.webhook_url is empty: events cannot be delivered")
	}
	return w
}
