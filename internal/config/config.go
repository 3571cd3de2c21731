package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/onemedia/broadcast-service/internal/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Admin     AdminConfig
	Hub       HubConfig
	Matches   MatchConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type AdminConfig struct {
	Password string
}

type HubConfig struct {
	Channels []string
}

type MatchConfig struct {
	Capacity int
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, rely on defaults and env vars.
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("hub.channels", defaultChannels())
	v.SetDefault("matches.capacity", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "broadcast-service")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("hub.channels", "CHANNELS")
	v.BindEnv("matches.capacity", "MATCH_CAPACITY")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)

	// CHANNELS from the environment arrives comma-separated; viper splits it
	// but keeps whitespace and empty entries.
	cfg.Hub.Channels = normalizeChannels(cfg.Hub.Channels)

	if cfg.Admin.Password == "" {
		return nil, fmt.Errorf("admin password is not configured (set ADMIN_PASSWORD or admin.password)")
	}
	if len(cfg.Hub.Channels) == 0 {
		return nil, fmt.Errorf("no channels configured")
	}
	if cfg.Matches.Capacity <= 0 {
		return nil, fmt.Errorf("matches.capacity must be positive, got %d", cfg.Matches.Capacity)
	}

	return &cfg, nil
}

func defaultChannels() []string {
	channels := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		channels = append(channels, fmt.Sprintf("oneevent%d", i))
	}
	return channels
}

func normalizeChannels(raw []string) []string {
	channels := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				channels = append(channels, p)
			}
		}
	}
	return channels
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
