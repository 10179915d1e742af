// Package config loads tool configuration files and feeds their values
// into command-line flags.
//
// A configuration file is a flat mapping from flag names to values, in YAML,
// JSON (comments and trailing commas allowed) or TOML. One key is special:
// "environment" holds variables that are exported into the process
// environment before the tool runs, so that a file can point tools at
// installation directories without a wrapper script.
//
//	# inspect.yaml
//	environment:
//	  DATA_ROOT: ~/datasets
//	format: json
//	output-dir: $DATA_ROOT/reports
package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/toolbelt/internal/model"
)

// EnvironmentKey is the settings key whose entries ApplyEnvironment
// exports.
const EnvironmentKey = "environment"

// Settings is the decoded content of a configuration file.
type Settings map[string]any

// Load reads the configuration file at path. The format is chosen by
// extension: .yaml/.yml, .json/.jsonc or .toml.
//
// A missing file fails with model.ErrFileNotFound, an unknown extension or
// malformed content with model.ErrValue.
func Load(path string) (Settings, error) {
	// Check the extension first so that a typo in the format is reported
	// even when the file is also missing.
	decode, err := decoderFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.Wrap(model.ErrFileNotFound, err, "Config file %s does not exist", path)
		}
		return nil, model.Wrap(model.ErrGetter, err, "failed to read config file %s", path)
	}

	settings := Settings{}
	if err := decode(data, &settings); err != nil {
		return nil, model.Wrap(model.ErrValue, err, "failed to parse config file %s", path)
	}
	return settings, nil
}

type decodeFunc func(data []byte, settings *Settings) error

func decoderFor(path string) (decodeFunc, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return func(data []byte, s *Settings) error {
			// Decoding into a plain map keeps nested mappings plain
			// map[string]any; decoding into Settings would give nested
			// Settings values.
			var m map[string]any
			if err := yaml.Unmarshal(data, &m); err != nil {
				return err
			}
			if m != nil {
				*s = m
			}
			return nil
		}, nil
	case ".json", ".jsonc":
		return func(data []byte, s *Settings) error {
			// Strip // and /* */ comments and trailing commas, then parse
			// the result as plain JSON.
			if len(strings.TrimSpace(string(data))) == 0 {
				return nil
			}
			return json.Unmarshal(jsonc.ToJSON(data), s)
		}, nil
	case ".toml":
		return func(data []byte, s *Settings) error {
			return toml.Unmarshal(data, s)
		}, nil
	default:
		return nil, model.Errorf(model.ErrValue,
			"config file %s has unsupported extension %q, expected .yaml, .yml, .json, .jsonc or .toml", path, ext)
	}
}
