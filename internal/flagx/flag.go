// Package flagx lets several loaders pick their own flags out of os.Args
// without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigFileEnv names the environment variable consulted when neither -c nor
// -config is given on the command line.
const ConfigFileEnv = "OPSDESK_CONFIG"

// FilterArgs returns the subset of args that belong to allowedFlags, keeping
// values that follow them. Both "-a value" and "-a=value" forms are kept.
//
// Flags listed in boolFlags never consume the next argument, so "-dev -a x"
// keeps "-dev" on its own.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}
	standalone := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		standalone[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if _, ok := standalone[arg]; ok {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFileFlag returns the config file path given via -c or -config.
// When neither flag is present the value of ConfigFileEnv is returned, which
// may be empty.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	if config == "" {
		config = os.Getenv(ConfigFileEnv)
	}
	return config
}
