package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Port       int      `mapstructure:"port"`
	DaemonPort int      `mapstructure:"daemon_port"`
	BufferSize int      `mapstructure:"buffer_size"`
	DebounceMs int      `mapstructure:"debounce_ms"`
	IgnoreList []string `mapstructure:"ignore_list"`
	DBPath     string   `mapstructure:"db_path"`
}

var Default = Config{
	Port:       21,
	DaemonPort: 9021,
	BufferSize: 100,
	DebounceMs: 2000,
	IgnoreList: []string{".git", ".DS_Store", "*.tmp", "*.swp"},
	DBPath:     "robo-ftp.db",
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".robo-ftp")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("port", Default.Port)
	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("debounce_ms", Default.DebounceMs)
	viper.SetDefault("ignore_list", Default.IgnoreList)
	viper.SetDefault("db_path", filepath.Join(configDir, Default.DBPath))

	viper.SetEnvPrefix("ROBOFTP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
