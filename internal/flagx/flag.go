// Package flagx lets several packages read their own flags from os.Args
// without tripping over each other's definitions.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags listed in allowed, together with their
// values. Both "-f value" and "-f=value" forms are recognized; a token that
// starts with '-' is never taken as a value.
//
//	FilterArgs([]string{"-c", "conf.json", "-a", "x"}, []string{"-c"}) // ["-c" "conf.json"]
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		keep[f] = true
	}

	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if keep[name] {
				out = append(out, arg)
			}
			continue
		}

		if !keep[arg] {
			continue
		}
		out = append(out, arg)

		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}

	return out
}

// ConfigFileFlag returns the path given with -c or -config, or "" when
// neither is present. When both are given the last one wins.
func ConfigFileFlag() string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	return path
}
