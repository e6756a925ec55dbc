package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/opsdesk/internal/flagx"
	"github.com/dmitrijs2005/opsdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration, so "5s" and integer nanoseconds both work.
// Pointer fields tell "absent" apart from an explicit false.
type JsonConfig struct {
	APIBaseURL        string         `json:"api_base_url"`
	ChatURL           string         `json:"chat_url"`
	OperatorID        string         `json:"operator_id"`
	ReconnectDelay    timex.Duration `json:"reconnect_delay"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	SessionDB         string         `json:"session_db"`
	SessionMaxAge     timex.Duration `json:"session_max_age"`
	SendRatePerMinute int            `json:"send_rate_per_minute"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
	GatewayAddr       string         `json:"gateway_addr"`
	Dev               *bool          `json:"dev"`
}

// parseJson overlays Config with values from the JSON file selected by -c,
// -config or OPSDESK_CONFIG. Fields missing from the file keep their current
// value. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.ChatURL, jc.ChatURL)
	setString(&cfg.OperatorID, jc.OperatorID)
	setString(&cfg.SessionDB, jc.SessionDB)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.GatewayAddr, jc.GatewayAddr)

	if jc.ReconnectDelay.Duration > 0 {
		cfg.ReconnectDelay = jc.ReconnectDelay.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SessionMaxAge.Duration > 0 {
		cfg.SessionMaxAge = jc.SessionMaxAge.Duration
	}
	if jc.SendRatePerMinute > 0 {
		cfg.SendRatePerMinute = jc.SendRatePerMinute
	}
	if jc.Dev != nil {
		cfg.Dev = *jc.Dev
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
