package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/opsdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend REST base URL
//	-w string   chat WebSocket URL
//	-o string   operator id
//	-r int      reconnect delay (seconds)
//	-d string   session database path
//	-l string   log level
//	-g string   gateway listen address
//	-dev        development mode
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and
// anything else is left for other loaders.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-w", "-o", "-r", "-d", "-l", "-g", "-dev"},
		"-dev")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend REST base URL")
	fs.StringVar(&cfg.ChatURL, "w", cfg.ChatURL, "chat websocket URL")
	fs.StringVar(&cfg.OperatorID, "o", cfg.OperatorID, "operator id (when the token carries none)")
	reconnectDelay := fs.Int("r", int(cfg.ReconnectDelay.Seconds()), "chat reconnect delay (in seconds)")
	fs.StringVar(&cfg.SessionDB, "d", cfg.SessionDB, "session database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.GatewayAddr, "g", cfg.GatewayAddr, "gateway listen address")
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev, "development mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ReconnectDelay = time.Duration(*reconnectDelay) * time.Second
}
