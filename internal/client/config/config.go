package config

import "time"

// Config holds runtime settings for the console and the gateway.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API, e.g. http://host:8080.
//   - ChatURL: WebSocket endpoint of the chat, e.g. ws://host:8080/ws/chat.
//   - OperatorID: operator identity used when the session token carries none.
//   - ReconnectDelay: fixed delay before re-dialing a dropped chat channel.
//   - RequestTimeout: per-request timeout for REST calls.
//   - SessionDB: SQLite file holding the persisted session.
//   - SessionMaxAge: maximum lifetime of a session from issuance.
//   - SendRatePerMinute: outbound chat messages allowed per minute.
//   - LogLevel, LogFormat: slog level name and "text" or "json".
//   - GatewayAddr: listen address of the HTTP gateway.
//   - Dev: local development mode (session cookie is not marked Secure).
type Config struct {
	APIBaseURL        string
	ChatURL           string
	OperatorID        string
	ReconnectDelay    time.Duration
	RequestTimeout    time.Duration
	SessionDB         string
	SessionMaxAge     time.Duration
	SendRatePerMinute int
	LogLevel          string
	LogFormat         string
	GatewayAddr       string
	Dev               bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.ChatURL = "ws://127.0.0.1:8080/ws/chat"
	c.OperatorID = ""
	c.ReconnectDelay = 5 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.SessionDB = "opsdesk.db"
	c.SessionMaxAge = 7 * 24 * time.Hour
	c.SendRatePerMinute = 30
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.GatewayAddr = ":3000"
	c.Dev = false
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (and a .env file), a JSON file and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
