package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Values layer as defaults < config
// file < GROWTHCURVES_* environment < flags.
type Global struct {
	// Fitter selects the fitting backend: "builtin" or "rscript".
	Fitter string `mapstructure:"fitter" yaml:"fitter"`
	// FitterScript is the external fitting script path (rscript mode).
	FitterScript string `mapstructure:"fitter_script" yaml:"fitter_script"`
	// RscriptCommand is the external interpreter binary.
	RscriptCommand string `mapstructure:"rscript_command" yaml:"rscript_command"`

	// MaxPolyDegree bounds the builtin fitter's model search.
	MaxPolyDegree int `mapstructure:"max_poly_degree" yaml:"max_poly_degree"`

	// HistogramBins is the shared bin count of the age histogram.
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	// Chart geometry for all PNG artifacts.
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`
}

// Load loads configuration from file, env, and defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GROWTHCURVES")
	v.AutomaticEnv()

	v.SetDefault("fitter", "builtin")
	v.SetDefault("fitter_script", "")
	v.SetDefault("rscript_command", "Rscript")
	v.SetDefault("max_poly_degree", 3)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("chart_width", 1024)
	v.SetDefault("chart_height", 683)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".growthcurves"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing implicit config file is fine; an unreadable
		// explicitly-named one is not.
		if cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.growthcurves/config.yaml, creating the
// directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".growthcurves")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
