package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the command's settings file.
type Config struct {
	Limits   Limits     `toml:"limits"`
	Redefine bool       `toml:"redefine"`
	Load     LoadConfig `toml:"load"`
	REPL     REPLConfig `toml:"repl"`
}

// LoadConfig configures where LOAD finds sources.
type LoadConfig struct {
	Dir string `toml:"dir"`
}

// REPLConfig configures the interactive prompt.
type REPLConfig struct {
	Prompt  string `toml:"prompt"`
	History string `toml:"history"`
}

func DefaultConfig() Config {
	return Config{
		Limits: DefaultLimits,
		Load:   LoadConfig{Dir: "."},
		REPL:   REPLConfig{Prompt: "> "},
	}
}

// ReadConfig reads a TOML settings file over the defaults; unknown keys are
// an error.
func ReadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, key := range undec {
			keys[i] = key.String()
		}
		return cfg, fmt.Errorf("unknown keys in %s: %v", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Options returns the environment options the config implies.
func (cfg Config) Options() []VMOption {
	opts := []VMOption{
		WithLimits(cfg.Limits),
		WithRedefine(cfg.Redefine),
	}
	if cfg.Load.Dir != "" {
		opts = append(opts, WithLoader(FSLoader{os.DirFS(cfg.Load.Dir)}))
	}
	return opts
}
