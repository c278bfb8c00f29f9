package config

import (
	"fmt"
	"path"
	"time"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/anchore/modcompat/internal"
	"github.com/anchore/modcompat/modcompat/compatibility"
	"github.com/anchore/modcompat/modcompat/installation"
)

type compatibilityConfig struct {
	StateDir     string        `yaml:"state-dir" json:"state-dir" mapstructure:"state-dir"`
	GameDir      string        `yaml:"game-dir" json:"game-dir" mapstructure:"game-dir"`
	UpdateURL    string        `yaml:"update-url" json:"update-url" mapstructure:"update-url"`
	CACert       string        `yaml:"ca-cert" json:"ca-cert" mapstructure:"ca-cert"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
	AutoUpdate   bool          `yaml:"auto-update" json:"auto-update" mapstructure:"auto-update"`
	VersionFiles []string      `yaml:"version-files" json:"version-files" mapstructure:"version-files"`
}

func (cfg compatibilityConfig) loadDefaultValues(v *viper.Viper) {
	// e.g. ~/.cache/modcompat
	v.SetDefault("compatibility.state-dir", path.Join(xdg.CacheHome, internal.ApplicationName))
	v.SetDefault("compatibility.game-dir", ".")
	v.SetDefault("compatibility.update-url", internal.CompatibilityTableURL)
	v.SetDefault("compatibility.ca-cert", "")
	v.SetDefault("compatibility.timeout", 30*time.Second)
	v.SetDefault("compatibility.auto-update", true)
	v.SetDefault("compatibility.version-files", installation.DefaultVersionFiles)
}

func (cfg *compatibilityConfig) parseConfigValues() error {
	for _, p := range []*string{&cfg.StateDir, &cfg.GameDir, &cfg.CACert} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("unable to expand path %q: %w", *p, err)
		}
		*p = expanded
	}

	if cfg.UpdateURL == "" {
		return fmt.Errorf("compatibility update-url must not be empty")
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("compatibility timeout must not be negative (got %s)", cfg.Timeout)
	}
	return nil
}

func (cfg compatibilityConfig) ToResolverConfig(userAgent string) compatibility.Config {
	return compatibility.Config{
		StateDir:     cfg.StateDir,
		InstallRoot:  cfg.GameDir,
		VersionFiles: cfg.VersionFiles,
		UpdateURL:    cfg.UpdateURL,
		CACert:       cfg.CACert,
		Timeout:      cfg.Timeout,
		UserAgent:    userAgent,
	}
}
