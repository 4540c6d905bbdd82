// Package config loads bonesd's process configuration from (in ascending
// priority) a config file, environment variables prefixed BONES_, and
// command-line flags bound by the caller, the same layered-override
// discipline viper is built for. There is no equivalent in the teacher
// repo (arena-cache is a library plus thin examples, not a configured
// daemon); this package is grounded on the broader pack's viper usage
// instead (see DESIGN.md).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is bonesd's resolved process configuration.
type Config struct {
	// PacksDir is the root directory FilesystemIO enumerates pack
	// subdirectories under.
	PacksDir string
	// CorePack names the always-active pack within PacksDir.
	CorePack string
	// GameVersion gates auxiliary packs' GameVersionReq against this value.
	GameVersion string
	// LogLevel is passed to obslog.New.
	LogLevel string
	// LogJSON selects JSON log encoding over human-readable console output.
	LogJSON bool
	// MetricsAddr is the bind address for the /metrics and
	// /debug/bones/snapshot HTTP endpoints.
	MetricsAddr string
	// DiskCacheDir, if non-empty, enables asset.DiskCache at this path.
	DiskCacheDir string
	// StepRateHz is the tick rate of bonesd's main loop.
	StepRateHz int
}

func defaults() Config {
	return Config{
		PacksDir:    "./packs",
		CorePack:    "core",
		GameVersion: "0.1.0",
		LogLevel:    "info",
		LogJSON:     false,
		MetricsAddr: ":9090",
		StepRateHz:  60,
	}
}

// BindFlags registers bonesd's configuration flags on fs, to be parsed by
// the caller (cobra does this automatically for a command's Flags()).
func BindFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("packs-dir", d.PacksDir, "root directory containing pack subdirectories")
	fs.String("core-pack", d.CorePack, "directory name of the always-active core pack")
	fs.String("game-version", d.GameVersion, "game version packs are gated against")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.Bool("log-json", d.LogJSON, "emit JSON-encoded logs instead of console-formatted")
	fs.String("metrics-addr", d.MetricsAddr, "bind address for /metrics and /debug/bones/snapshot")
	fs.String("disk-cache-dir", d.DiskCacheDir, "directory for the asset disk cache (disabled if empty)")
	fs.Int("step-rate-hz", d.StepRateHz, "main loop tick rate in Hz")
}

// Load builds a *viper.Viper layering, from lowest to highest priority,
// compiled-in defaults, an optional config file, BONES_-prefixed
// environment variables, and fs's bound flags, then decodes the result.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	d := defaults()
	v.SetDefault("packs-dir", d.PacksDir)
	v.SetDefault("core-pack", d.CorePack)
	v.SetDefault("game-version", d.GameVersion)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-json", d.LogJSON)
	v.SetDefault("metrics-addr", d.MetricsAddr)
	v.SetDefault("disk-cache-dir", d.DiskCacheDir)
	v.SetDefault("step-rate-hz", d.StepRateHz)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix("bones")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	return &Config{
		PacksDir:     v.GetString("packs-dir"),
		CorePack:     v.GetString("core-pack"),
		GameVersion:  v.GetString("game-version"),
		LogLevel:     v.GetString("log-level"),
		LogJSON:      v.GetBool("log-json"),
		MetricsAddr:  v.GetString("metrics-addr"),
		DiskCacheDir: v.GetString("disk-cache-dir"),
		StepRateHz:   v.GetInt("step-rate-hz"),
	}, nil
}
