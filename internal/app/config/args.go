package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ghalamif/catalink/internal/app/pipeline"
)

// ScriptArgs is what the host passes on the pipeline script's command line.
type ScriptArgs struct {
	Channels    []string
	Extracts    bool
	ExtractsSet bool
}

// ParseScriptArgs understands --channel_names (space or comma separated)
// and --VTKextracts. Unknown flags are ignored so hosts can pass their own.
func ParseScriptArgs(args []string) (ScriptArgs, error) {
	fs := pflag.NewFlagSet("script", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	channels := fs.StringSlice("channel_names", nil, "channels to bind")
	extracts := fs.String("VTKextracts", "", "ON or OFF")

	if err := fs.Parse(normalizeNargs(args, "channel_names")); err != nil {
		return ScriptArgs{}, fmt.Errorf("%w: script args: %w", pipeline.ErrConfiguration, err)
	}

	var out ScriptArgs
	for _, c := range *channels {
		if c = strings.TrimSpace(c); c != "" {
			out.Channels = append(out.Channels, c)
		}
	}
	if fs.Changed("channel_names") && len(out.Channels) == 0 {
		return ScriptArgs{}, fmt.Errorf("%w: --channel_names needs at least one name", pipeline.ErrConfiguration)
	}
	if fs.Changed("VTKextracts") {
		on, err := parseSwitch(*extracts)
		if err != nil {
			return ScriptArgs{}, err
		}
		out.Extracts, out.ExtractsSet = on, true
	}
	return out, nil
}

// normalizeNargs folds "--name a b c" into "--name=a,b,c".
func normalizeNargs(args []string, name string) []string {
	flag := "--" + name
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] != flag {
			out = append(out, args[i])
			continue
		}
		var vals []string
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			vals = append(vals, args[i])
		}
		out = append(out, flag+"="+strings.Join(vals, ","))
	}
	return out
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "ON", "YES":
		return true, nil
	case "OFF", "NO":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: --VTKextracts %q", pipeline.ErrConfiguration, v)
	}
	return b, nil
}
