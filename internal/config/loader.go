package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong configuration loader for YAML settings files.
//
// Flags are looked up by name with dashes or underscores, and nested maps are
// walked along the dash-separated name, so --mail-transport resolves from any of:
//
//	mail-transport: ses
//	mail_transport: ses
//	mail:
//	  transport: ses
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := lookup(values, strings.Split(flag.Name, "-"))
		if !ok {
			return nil, nil
		}
		return flagValue(raw, flag), nil
	}

	return f, nil
}

// lookup finds the value for the name parts, trying the joined forms before
// descending into nested maps.
func lookup(values map[string]any, parts []string) (any, bool) {
	for i := len(parts); i > 0; i-- {
		for _, sep := range []string{"-", "_"} {
			v, ok := values[strings.Join(parts[:i], sep)]
			if !ok {
				continue
			}
			if i == len(parts) {
				return v, true
			}
			if nested, ok := v.(map[string]any); ok {
				if found, ok := lookup(nested, parts[i:]); ok {
					return found, true
				}
			}
		}
	}
	return nil, false
}

// flagValue renders a YAML value the way it would be typed on the command line.
func flagValue(raw any, flag *kong.Flag) string {
	list, ok := raw.([]any)
	if !ok {
		return fmt.Sprint(raw)
	}

	sep := ","
	if flag.Tag != nil && flag.Tag.Sep != 0 && flag.Tag.Sep != -1 {
		sep = string(flag.Tag.Sep)
	}

	items := make([]string, 0, len(list))
	for _, item := range list {
		items = append(items, fmt.Sprint(item))
	}
	return strings.Join(items, sep)
}
