// Package config loads photomirror's configuration surface (§6) from
// flags, environment variables, and an optional .env (no config file
// is read) —
// the standard viper+godotenv+pflag pairing the teacher's go.mod
// carries, generalized from upload.go's bare flag.FlagSet onto the
// cobra/viper stack the rest of the command tree (§11) uses.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	DataDir         string
	DownloadThreads int
	MaxRetries      int
	IgnoreAlbums    []string

	RemoteURL   string
	RemoteToken string

	LogFile string
	Verbose bool
	Color   bool

	UseTUI bool
}

// BindFlags registers photomirror's flags on fs and binds them into v,
// the pattern cobra commands use to share one viper instance across
// subcommands.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.String("data-dir", "./photomirror-data", "root of the on-disk mirror layout")
	fs.Int("download-threads", 4, "number of concurrent asset downloads")
	fs.Int("max-retries", 5, "retry budget for recoverable errors; -1 means unbounded")
	fs.StringSlice("ignore-albums", nil, "remote album labels to exclude before diffing")
	fs.String("remote-url", "", "base URL of the remote photo library API")
	fs.String("remote-token", "", "bearer token for the remote photo library API")
	fs.String("log-file", "", "optional path to fan structured JSON logs out to")
	fs.Bool("verbose", false, "enable debug-level logging")
	fs.Bool("color", true, "color the in-place status line")
	fs.Bool("tui", false, "run the tview/tcell live progress dashboard instead of the console printer")

	_ = v.BindPFlags(fs)
}

// Load reads a .env file (if present, best-effort), then builds a
// Config from viper's merged flag/env state. envPrefix scopes
// environment variable lookups (e.g. "PHOTOMIRROR_DATA_DIR").
func Load(v *viper.Viper, envPrefix string) (Config, error) {
	_ = godotenv.Load() // optional local .env; absence is not an error

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		DataDir:         v.GetString("data-dir"),
		DownloadThreads: v.GetInt("download-threads"),
		MaxRetries:      v.GetInt("max-retries"),
		IgnoreAlbums:    v.GetStringSlice("ignore-albums"),
		RemoteURL:       v.GetString("remote-url"),
		RemoteToken:     v.GetString("remote-token"),
		LogFile:         v.GetString("log-file"),
		Verbose:         v.GetBool("verbose"),
		Color:           v.GetBool("color"),
		UseTUI:          v.GetBool("tui"),
	}

	if cfg.DataDir == "" {
		return Config{}, fmt.Errorf("config: data-dir is required")
	}
	if cfg.RemoteURL == "" {
		return Config{}, fmt.Errorf("config: remote-url is required")
	}

	return cfg, nil
}

// IgnoreAlbumSet converts the configured slice into the set shape
// syncengine.Config expects.
func (c Config) IgnoreAlbumSet() map[string]bool {
	if len(c.IgnoreAlbums) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.IgnoreAlbums))
	for _, label := range c.IgnoreAlbums {
		out[label] = true
	}
	return out
}
