package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode             string        `mapstructure:"mode"`
	Port             int           `mapstructure:"port"`
	ChatPort         int           `mapstructure:"chat_port"`
	StaticPath       string        `mapstructure:"static_path"`
	Secret           string        `mapstructure:"secret"`
	RoomCapacity     int           `mapstructure:"room_capacity"`
	MailboxSize      int           `mapstructure:"mailbox_size"`
	AcceptBacklog    int           `mapstructure:"accept_backlog"`
	ReadLimit        int64         `mapstructure:"read_limit"`
	WriteWait        time.Duration `mapstructure:"write_wait"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	RouteTimeout     time.Duration `mapstructure:"route_timeout"`
	Backpressure     string        `mapstructure:"backpressure"`
	CreateLimit      int           `mapstructure:"create_limit"`
	CreateWindow     time.Duration `mapstructure:"create_window"`
	DBPath           string        `mapstructure:"db_path"`
	LogLevel         string        `mapstructure:"log_level"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, then CHAT_* environment
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
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("chat_port", 8081)
	v.SetDefault("static_path", "./static")
	v.SetDefault("secret", "change-me")
	v.SetDefault("room_capacity", 10)
	v.SetDefault("mailbox_size", 64)
	v.SetDefault("accept_backlog", 16)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("write_wait", "5s")
	v.SetDefault("handshake_timeout", "10s")
	v.SetDefault("route_timeout", "5s")
	v.SetDefault("backpressure", "kick")
	v.SetDefault("create_limit", 5)
	v.SetDefault("create_window", "1m")
	v.SetDefault("db_path", ":memory:")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	fs.Int("port", 8080, "HTTP API port")
	fs.Int("chat-port", 8081, "chat router port")
	fs.Int("room-capacity", 10, "maximum number of live rooms")
	fs.String("db-path", ":memory:", "SQLite database path")
	fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	for _, key := range []string{"port", "chat-port", "room-capacity", "db-path", "log-level"} {
		if err := v.BindPFlag(strings.ReplaceAll(key, "-", "_"), fs.Lookup(key)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.RoomCapacity <= 0 {
		return nil, fmt.Errorf("room_capacity must be positive, got %d", cfg.RoomCapacity)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Chat: %d | Rooms: %d\n", cfg.Mode, cfg.Port, cfg.ChatPort, cfg.RoomCapacity)
	return &cfg, nil
}
