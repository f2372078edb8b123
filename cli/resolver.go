package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/ribosome/pkg"
)

// ErrConfig reports a configuration file that is not a flat YAML mapping.
var ErrConfig = pkg.NewError("invalid configuration file")

// resolve is a [kong.ConfigurationLoader] reading a flat YAML mapping of
// flag names to values, as written by the init command:
//
//	log-level: debug
//	log-format: text
//	log-pretty: false
//	tabsize: 4
//
// Keys may use underscores in place of hyphens. Command-line flags override
// configuration values.
func resolve(r io.Reader) (kong.Resolver, error) {
	var m map[string]any

	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return config{}, nil
		}

		return nil, ErrConfig.Wrap(err)
	}

	c := make(config, len(m))

	for k, v := range m {
		c[strings.ReplaceAll(k, "_", "-")] = flagValue(v)
	}

	return c, nil
}

// flagValue converts a decoded YAML value to a form kong can decode into a
// flag. Kong parses numbers from strings.
func flagValue(v any) any {
	switch v := v.(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		s := make([]string, len(v))
		for i, e := range v {
			s[i] = fmt.Sprint(flagValue(e))
		}

		return strings.Join(s, ",")
	}

	return v
}

// config implements [kong.Resolver] over a flat mapping of flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	return c[flag.Name], nil
}
