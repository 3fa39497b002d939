package config

import (
	"os"
	"path/filepath"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config describes all configuration options
type Config struct {
	Repo string `default:"dest4590/CollapseLoader" usage:"GitHub repository to fetch releases from (owner/name)"`
	Log  struct {
		Level string `default:"info"`
		JSON  bool   `default:"false" usage:"Output JSONND instead of pretty console messages"`
	}
	Updater struct {
		Prerelease bool   `default:"false" usage:"Download the latest pre-release instead of the latest stable release"`
		Prefix     string `default:"CollapseLoader" usage:"Filename prefix used to find (and clean up) old loader builds"`
	}
	Pipeline struct {
		Workflow  string `default:"release.yml" usage:"Path to the workflow definition"`
		Workspace string `usage:"Directory the pipeline runs in (defaults to a temporary directory)"`
		StoreRoot string `default:".artifacts" usage:"Root directory of the local artifact store"`
	}
}

var logLevels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty config object and returns a new Loader for this object
func Loader() (*Config, *aconfig.Loader) {
	cfg := Config{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "COLLAPSE",
		// cobra owns the command line
		SkipFlags: true,
		Files:     []string{"collapse.toml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Validate verifies that all config fields have valid values
func (cfg *Config) Validate() error {
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return eris.Errorf("Invalid log level %s", cfg.Log.Level)
	}

	parts := 0
	for _, c := range cfg.Repo {
		if c == '/' {
			parts++
		}
	}
	if parts != 1 {
		return eris.Errorf(`Invalid repository %s, expected "owner/name"`, cfg.Repo)
	}

	if cfg.Pipeline.Workspace != "" {
		info, err := os.Stat(cfg.Pipeline.Workspace)
		if err != nil {
			return eris.Wrapf(err, "Failed to check workspace %s", cfg.Pipeline.Workspace)
		}
		if !info.IsDir() {
			return eris.Errorf("Workspace %s is not a directory", cfg.Pipeline.Workspace)
		}
	}

	return nil
}

// LogLevel translates the configured level to the matching zerolog constant
func (cfg *Config) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}

// StorePath returns the absolute artifact store root
func (cfg *Config) StorePath() (string, error) {
	path, err := filepath.Abs(cfg.Pipeline.StoreRoot)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", cfg.Pipeline.StoreRoot)
	}

	return path, nil
}
