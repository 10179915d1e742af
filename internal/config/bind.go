package config

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"mvdan.cc/sh/v3/shell"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// ApplyEnvironment removes the "environment" entry from settings and
// exports each of its variables. Values may reference other variables and
// are cleaned as paths. Variables are exported in name order.
func ApplyEnvironment(settings Settings) error {
	raw, ok := settings[EnvironmentKey]
	if !ok {
		return nil
	}
	delete(settings, EnvironmentKey)

	if nested, ok := raw.(Settings); ok {
		raw = map[string]any(nested)
	}
	env, err := cast.ToStringMapE(raw)
	if err != nil {
		return model.Wrap(model.ErrType, err, "%q must be a mapping of variable names to values", EnvironmentKey)
	}

	for _, name := range slices.Sorted(maps.Keys(env)) {
		value, err := cast.ToStringE(env[name])
		if err != nil {
			return model.Wrap(model.ErrType, err, "environment variable %s has a value of type %T", name, env[name])
		}

		expanded, err := shell.Expand(value, os.Getenv)
		if err != nil {
			return model.Wrap(model.ErrValue, err, "failed to expand environment variable %s", name)
		}
		if expanded != "" {
			expanded = filepath.Clean(expanded)
		}

		if err := os.Setenv(name, expanded); err != nil {
			return model.Wrap(model.ErrValue, err, "failed to set environment variable %s", name)
		}
		log.Debug("Set environment variable from config", "name", name, "value", expanded)
	}
	return nil
}

// skippedFlags are never populated from configuration or environment.
var skippedFlags = map[string]bool{
	"config":  true,
	"help":    true,
	"version": true,
}

// Bind sets every flag of cmd that was not given on the command line from
// the environment or from settings, in that order of precedence. Flags left
// unset by all three keep their defaults.
//
// Environment variables are named <envPrefix>_<FLAG> with dashes turned
// into underscores, e.g. INSPECT_OUTPUT_DIR for --output-dir; an empty
// prefix disables them. Settings keys may use either dashes or
// underscores.
func Bind(cmd *cobra.Command, settings Settings, envPrefix string) error {
	v := viper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
	}

	normalized := make(map[string]any, len(settings))
	for key, value := range settings {
		normalized[strings.ToLower(strings.ReplaceAll(key, "_", "-"))] = value
	}
	if err := v.MergeConfigMap(normalized); err != nil {
		return model.Wrap(model.ErrValue, err, "failed to merge settings")
	}

	flags := cmd.Flags()
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || skippedFlags[f.Name] || !v.IsSet(f.Name) {
			return
		}

		value, err := flagString(v.Get(f.Name))
		if err != nil {
			errs = append(errs, model.Wrap(model.ErrType, err, "setting %q", f.Name))
			return
		}
		if err := flags.Set(f.Name, value); err != nil {
			errs = append(errs, err)
			return
		}
		log.Debug("Set flag from configuration", "flag", f.Name, "value", value)
	})

	for key := range normalized {
		if flags.Lookup(key) == nil {
			log.Warn("Ignoring unknown configuration key", "key", key, "command", cmd.Name())
		}
	}
	return errors.Join(errs...)
}

// flagString renders a configuration value the way it would be typed on
// the command line. Lists become comma-separated.
func flagString(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	if s, ok := value.(string); ok {
		return s, nil
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Slice, reflect.Array:
		items, err := cast.ToStringSliceE(value)
		if err != nil {
			return "", err
		}
		return strings.Join(items, ","), nil
	default:
		return cast.ToStringE(value)
	}
}
