package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded before reading OPSDESK_* variables. Variables already
// present in the process environment win over the file.
var envFile = ".env"

// parseEnv overlays Config with OPSDESK_* environment variables.
//
//	OPSDESK_API_BASE_URL          OPSDESK_CHAT_URL
//	OPSDESK_OPERATOR_ID           OPSDESK_RECONNECT_DELAY   (e.g. "5s")
//	OPSDESK_REQUEST_TIMEOUT       OPSDESK_SESSION_DB
//	OPSDESK_SESSION_MAX_AGE       OPSDESK_SEND_RATE_PER_MINUTE
//	OPSDESK_LOG_LEVEL             OPSDESK_LOG_FORMAT
//	OPSDESK_GATEWAY_ADDR          OPSDESK_DEV               (true/false)
//
// Malformed values panic, like malformed flags do.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString("OPSDESK_API_BASE_URL", &cfg.APIBaseURL)
	envString("OPSDESK_CHAT_URL", &cfg.ChatURL)
	envString("OPSDESK_OPERATOR_ID", &cfg.OperatorID)
	envDuration("OPSDESK_RECONNECT_DELAY", &cfg.ReconnectDelay)
	envDuration("OPSDESK_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	envString("OPSDESK_SESSION_DB", &cfg.SessionDB)
	envDuration("OPSDESK_SESSION_MAX_AGE", &cfg.SessionMaxAge)
	envInt("OPSDESK_SEND_RATE_PER_MINUTE", &cfg.SendRatePerMinute)
	envString("OPSDESK_LOG_LEVEL", &cfg.LogLevel)
	envString("OPSDESK_LOG_FORMAT", &cfg.LogFormat)
	envString("OPSDESK_GATEWAY_ADDR", &cfg.GatewayAddr)
	envBool("OPSDESK_DEV", &cfg.Dev)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func envInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}
