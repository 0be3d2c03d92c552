package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		ListenAddr:           ":12345",
		SessionTimeout:       60 * time.Second,
		GameTimeout:          5 * time.Minute,
		PingInterval:         10 * time.Second,
		SessionSweepInterval: 5 * time.Second,
		LobbySweepInterval:   30 * time.Second,
		MaxDatagramSize:      8192,
		QueueSize:            256,
	}
}

// LoadConfig reads seabattle.yaml from configPath, the working directory or
// config/. A missing file leaves the defaults in place.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("listenAddr", def.ListenAddr)
	v.SetDefault("sessionTimeout", def.SessionTimeout)
	v.SetDefault("gameTimeout", def.GameTimeout)
	v.SetDefault("pingInterval", def.PingInterval)
	v.SetDefault("sessionSweepInterval", def.SessionSweepInterval)
	v.SetDefault("lobbySweepInterval", def.LobbySweepInterval)
	v.SetDefault("maxDatagramSize", def.MaxDatagramSize)
	v.SetDefault("queueSize", def.QueueSize)

	v.SetConfigName("seabattle")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	// default config path
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if config.SessionSweepInterval > config.SessionTimeout {
		return errors.New("invalid config: sessionSweepInterval exceeds sessionTimeout")
	}
	return nil
}
