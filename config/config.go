/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package config loads the settings of the command line tools from a yaml
// file and CLOUDFORENSICS_* environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables.
const EnvPrefix = "CLOUDFORENSICS_"

// Config holds the settings shared by all subcommands.
type Config struct {
	Project   string `yaml:"project"`
	KeyFile   string `yaml:"key_file"`
	Endpoint  string `yaml:"endpoint"`
	NoAuth    bool   `yaml:"no_auth"`
	SearchAll bool   `yaml:"search_all"`
	OutputDir string `yaml:"output_dir"`
	Store     string `yaml:"store"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default settings.
func Default() *Config {
	return &Config{
		OutputDir: ".",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the yaml file at path, if path is not empty, overlays the
// environment and fills unset values with defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, errors.Wrap(err, "could not read config")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse config %s", path)
		}
	}

	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) fromEnv() error {
	cfg.Project = getString("PROJECT", cfg.Project)
	cfg.KeyFile = getString("KEY_FILE", cfg.KeyFile)
	cfg.Endpoint = getString("ENDPOINT", cfg.Endpoint)
	cfg.OutputDir = getString("OUTPUT_DIR", cfg.OutputDir)
	cfg.Store = getString("STORE", cfg.Store)
	cfg.LogLevel = getString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getString("LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.SearchAll, err = getBool("SEARCH_ALL", cfg.SearchAll); err != nil {
		return err
	}
	if cfg.NoAuth, err = getBool("NO_AUTH", cfg.NoAuth); err != nil {
		return err
	}
	return nil
}

func getString(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "invalid value for %s%s", EnvPrefix, key)
	}
	return parsed, nil
}
