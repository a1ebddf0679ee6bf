package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	WSURL    string
	Username string
	Password string

	MaxReconnect   int
	ReconnectDelay time.Duration
	OutboundBuffer int
	DryRun         bool

	RedisURL    string
	DatabaseURL string
	JournalTTL  time.Duration

	StatusAddr string
	MsgcatDir  string

	UnderPromoteDefault bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		MaxReconnect:   5,
		ReconnectDelay: time.Second,
		OutboundBuffer: 64,
		JournalTTL:     24 * time.Hour,
	}

	cfg.WSURL = strings.TrimSpace(os.Getenv("BUGHOUSE_WS_URL"))
	cfg.Username = strings.TrimSpace(os.Getenv("BUGHOUSE_USERNAME"))
	cfg.Password = os.Getenv("BUGHOUSE_PASSWORD")

	if v := strings.TrimSpace(os.Getenv("WS_MAX_RECONNECT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxReconnect = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("WS_RECONNECT_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReconnectDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("OUTBOUND_BUFFER")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OutboundBuffer = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DRY_RUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DryRun = b
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("JOURNAL_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.JournalTTL = time.Duration(n) * time.Second
		}
	}

	cfg.StatusAddr = strings.TrimSpace(os.Getenv("STATUS_ADDR"))
	cfg.MsgcatDir = strings.TrimSpace(os.Getenv("MSGCAT_DIR"))

	if v := strings.TrimSpace(os.Getenv("UNDERPROMOTE_DEFAULT")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UnderPromoteDefault = b
		}
	}

	if cfg.WSURL == "" {
		return nil, errors.New("BUGHOUSE_WS_URL is required")
	}

	return cfg, nil
}
