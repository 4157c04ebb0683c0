package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the lobby bots. Values come from
// the environment; an optional YAML file referenced by CONFIG_FILE
// provides defaults which the environment overrides.
type Config struct {
	JID         string   `yaml:"jid"`
	Password    string   `yaml:"password"`
	Nick        string   `yaml:"nick"`
	Server      string   `yaml:"server"`
	Rooms       []string `yaml:"rooms"`
	CommandRoom string   `yaml:"command_room"`
	DatabaseURL string   `yaml:"database_url"`
	RedisAddr   string   `yaml:"redis_addr"`
	LogLevel    string   `yaml:"log_level"`
	NoVerifyTLS bool     `yaml:"no_verify_tls"`
}

func Load() (Config, error) {
	cfg := Config{
		Nick:     "ModBot",
		LogLevel: "info",
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.JID = getString("JID", cfg.JID)
	cfg.Password = getString("PASSWORD", cfg.Password)
	cfg.Nick = getString("NICK", cfg.Nick)
	cfg.Server = getString("SERVER", cfg.Server)
	cfg.CommandRoom = getString("COMMAND_ROOM", cfg.CommandRoom)
	cfg.DatabaseURL = getString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getString("REDIS_ADDR", cfg.RedisAddr)
	cfg.LogLevel = getString("LOG_LEVEL", cfg.LogLevel)

	if rooms := getString("ROOMS", ""); rooms != "" {
		cfg.Rooms = splitList(rooms)
	}

	noVerify, err := getBool("NO_VERIFY_TLS", cfg.NoVerifyTLS)
	if err != nil {
		return Config{}, err
	}
	cfg.NoVerifyTLS = noVerify

	if cfg.JID == "" {
		return Config{}, fmt.Errorf("JID is required")
	}
	if !strings.Contains(cfg.JID, "@") {
		return Config{}, fmt.Errorf("JID must contain a domain: %q", cfg.JID)
	}

	return cfg, nil
}

// Domain returns the XMPP domain part of the configured JID.
func (c Config) Domain() string {
	_, domain, _ := strings.Cut(c.JID, "@")
	return domain
}

// ConferenceDomain returns the domain hosting the MUC rooms.
func (c Config) ConferenceDomain() string {
	return "conference." + c.Domain()
}

// RoomJID expands a plain room name to its full room JID.
func (c Config) RoomJID(room string) string {
	if strings.Contains(room, "@") {
		return room
	}
	return room + "@" + c.ConferenceDomain()
}

// RoomJIDs returns the full JIDs of all monitored rooms.
func (c Config) RoomJIDs() []string {
	out := make([]string, 0, len(c.Rooms))
	for _, room := range c.Rooms {
		out = append(out, c.RoomJID(room))
	}
	return out
}

// CommandRoomJID returns the full JID of the moderator command room.
func (c Config) CommandRoomJID() string {
	if c.CommandRoom == "" {
		return ""
	}
	return c.RoomJID(c.CommandRoom)
}

func getString(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
