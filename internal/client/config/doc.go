// Package config loads runtime configuration for the opsdesk console and
// gateway.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: a .env file (github.com/joho/godotenv) and OPSDESK_* variables.
//  3. Optional JSON file selected via -c, -config or OPSDESK_CONFIG.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "chat_url": "ws://127.0.0.1:8080/ws/chat",
//	  "reconnect_delay": "5s",
//	  "session_max_age": "168h",
//	  "send_rate_per_minute": 30,
//	  "dev": true
//	}
package config
