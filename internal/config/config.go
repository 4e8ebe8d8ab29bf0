// Package config provides configuration management for rigpanel
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Asset   AssetConfig   `mapstructure:"asset"`
	Surface SurfaceConfig `mapstructure:"surface"`
	Viseme  VisemeConfig  `mapstructure:"viseme"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Title string `mapstructure:"title"`
}

// AssetConfig identifies the animation asset and how to play it
type AssetConfig struct {
	Path         string `mapstructure:"path"`
	Artboard     string `mapstructure:"artboard"`
	StateMachine string `mapstructure:"state_machine"`
	Autoplay     bool   `mapstructure:"autoplay"`
	Fit          string `mapstructure:"fit"`
	Alignment    string `mapstructure:"alignment"`
	Bind         string `mapstructure:"bind"`
	Watch        bool   `mapstructure:"watch"` // reload the session when the file changes
}

// SurfaceConfig configures the drawing surface
type SurfaceConfig struct {
	ID         string  `mapstructure:"id"`
	Width      int     `mapstructure:"width"`  // CSS pixels
	Height     int     `mapstructure:"height"` // CSS pixels
	PixelRatio float64 `mapstructure:"pixel_ratio"`
}

// VisemeConfig configures the enum slot with the timed reset
type VisemeConfig struct {
	Property     string        `mapstructure:"property"`
	SubComponent string        `mapstructure:"sub_component"` // nested fallback prefix
	ResetDelay   time.Duration `mapstructure:"reset_delay"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:  ":8090",
			Title: "Rig Control Panel",
		},
		Asset: AssetConfig{
			Path:         "assets/rig.yaml",
			StateMachine: "Controls",
			Autoplay:     true,
			Fit:          "contain",
			Alignment:    "center",
			Bind:         "auto",
			Watch:        true,
		},
		Surface: SurfaceConfig{
			ID:         "rig-surface",
			Width:      800,
			Height:     600,
			PixelRatio: 1.0,
		},
		Viseme: VisemeConfig{
			Property:     "mouth",
			SubComponent: "Face",
			ResetDelay:   1 * time.Second,
		},
		Log: LogConfig{
			Level:   "debug",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := GetConfigDir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("RIGPANEL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("server", cfg.Server)
	viper.Set("asset", cfg.Asset)
	viper.Set("surface", cfg.Surface)
	viper.Set("viseme", cfg.Viseme)
	viper.Set("log", cfg.Log)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".rigpanel"), nil
}
