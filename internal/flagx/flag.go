// Package flagx helps several configuration layers share os.Args: each layer
// picks out only the flags it owns and parses them on a private FlagSet.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the members of args that belong to allowedFlags, together
// with their values. Both "-f value" and "-f=value" forms are recognized. A
// token that starts with "-" is never taken as a value, so values beginning
// with a dash have to be given as "-f=-value".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// ConfigPath extracts the config file path given with -c or -config. When
// neither is present it returns fallback; an explicit empty value disables
// the file layer entirely.
func ConfigPath(args []string, fallback string) string {
	path := fallback

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", fallback, "Path to config file")
	fs.StringVar(&path, "c", fallback, "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
