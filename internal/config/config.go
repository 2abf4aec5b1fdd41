package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	PongWait   time.Duration `mapstructure:"pong_wait"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	InboxSize  int           `mapstructure:"inbox_size"`
	Undo       UndoConfig    `mapstructure:"undo"`
	Join       JoinConfig    `mapstructure:"join"`
}

type UndoConfig struct {
	Compress bool `mapstructure:"compress"`
	MaxDepth int  `mapstructure:"max_depth"`
}

// JoinConfig bounds create/join attempts per connection. MaxAttempts 0
// disables the limit. HashWorkers caps concurrent password hashing across
// all connections; 0 means one per CPU.
type JoinConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
	HashWorkers int           `mapstructure:"hash_workers"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, then SKETCH_* environment
// variables, then command-line flags from args.
func Load(args []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	setDefaults(v)

	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("sketch", pflag.ContinueOnError)
	fs.Int("port", v.GetInt("port"), "HTTP listen port")
	fs.String("mode", v.GetString("mode"), "gin mode: debug or release")
	fs.String("static-path", v.GetString("static_path"), "directory with the web client")
	fs.String("log-level", v.GetString("log_level"), "zerolog level")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"port":        "port",
		"mode":        "mode",
		"static_path": "static-path",
		"log_level":   "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "sketch-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("ping_period", "25s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("inbox_size", 1024)
	v.SetDefault("undo.compress", false)
	v.SetDefault("undo.max_depth", 0)
	v.SetDefault("join.max_attempts", 10)
	v.SetDefault("join.window", "1m")
	v.SetDefault("join.hash_workers", 0)
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	case c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait:
		return fmt.Errorf("%w: ping_period must be positive and below pong_wait", ErrInvalidConfig)
	case c.SendBuffer <= 0 || c.InboxSize <= 0:
		return fmt.Errorf("%w: send_buffer and inbox_size must be positive", ErrInvalidConfig)
	case c.Undo.MaxDepth < 0:
		return fmt.Errorf("%w: undo.max_depth must not be negative", ErrInvalidConfig)
	case c.Join.HashWorkers < 0:
		return fmt.Errorf("%w: join.hash_workers must not be negative", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Level returns the configured zerolog level, info when unset.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
