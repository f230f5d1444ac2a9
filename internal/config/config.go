// Package config loads angelc's session-wide options: the mangling
// toggle, color output, and debug tracing. Values come from (in
// increasing priority) a persisted YAML defaults file, an optional .env
// file, and ANGELC_* environment variables; CLI flags win over all three.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the resolved set of session options.
type Config struct {
	Mangle bool   `yaml:"mangle"`
	Color  bool   `yaml:"color"`
	Trace  bool   `yaml:"trace"`
	Prompt string `yaml:"prompt"`
}

// Default matches file-mode's implicit behavior: mangling on. The REPL
// overrides the toggle off regardless.
func Default() Config {
	return Config{Mangle: true, Color: true, Trace: false, Prompt: "angel> "}
}

// Load resolves a Config starting from Default, then a YAML file at path
// (if it exists), then a .env file in the working directory (if present),
// then ANGELC_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("ANGELC_MANGLE"); ok {
		cfg.Mangle = truthy(v)
	}
	if v, ok := os.LookupEnv("ANGELC_COLOR"); ok {
		cfg.Color = truthy(v)
	}
	if v, ok := os.LookupEnv("ANGELC_TRACE"); ok {
		cfg.Trace = truthy(v)
	}
	if v, ok := os.LookupEnv("ANGELC_PROMPT"); ok {
		cfg.Prompt = v
	}
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// ExpandSources resolves a list of CLI-supplied path patterns (e.g.
// `./src/**/*.ang`) against the filesystem for `angelc check`-style
// invocations.
func ExpandSources(patterns []string) ([]string, error) {
	var out []string
	for _, pat := range patterns {
		if !containsMeta(pat) {
			out = append(out, pat)
			continue
		}
		dir, rel := doublestar.SplitPattern(pat)
		matches, err := doublestar.Glob(os.DirFS(dir), rel)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			out = append(out, filepath.Join(dir, m))
		}
	}
	return out, nil
}

func containsMeta(pat string) bool {
	for _, c := range pat {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
