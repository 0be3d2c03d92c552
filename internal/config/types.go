package config

import "time"

// Config holds the server tunables.
type Config struct {
	ListenAddr string `mapstructure:"listenAddr" validate:"required,hostname_port"`

	// SessionTimeout is how long a session may stay silent before it expires.
	SessionTimeout time.Duration `mapstructure:"sessionTimeout" validate:"gt=0"`
	// GameTimeout is how long a lobby may go without a shot or ready before
	// it is force-finished.
	GameTimeout time.Duration `mapstructure:"gameTimeout" validate:"gt=0"`

	PingInterval         time.Duration `mapstructure:"pingInterval" validate:"gt=0"`
	SessionSweepInterval time.Duration `mapstructure:"sessionSweepInterval" validate:"gt=0"`
	LobbySweepInterval   time.Duration `mapstructure:"lobbySweepInterval" validate:"gt=0"`

	MaxDatagramSize int `mapstructure:"maxDatagramSize" validate:"gte=512,lte=65507"`
	QueueSize       int `mapstructure:"queueSize" validate:"gt=0"`
}

// Env is the process environment the binaries read. OTelSampleRatio is the
// share of root traces kept, 1 keeps all.
type Env struct {
	ConfigPath      string  `env:"SEABATTLE_CONFIG"`
	LogLevel        string  `env:"SEABATTLE_LOG_LEVEL" envDefault:"info"`
	ServiceName     string  `env:"SEABATTLE_SERVICE_NAME" envDefault:"seabattle-server"`
	OTelEndpoint    string  `env:"SEABATTLE_OTEL_ENDPOINT"`
	OTelSampleRatio float64 `env:"SEABATTLE_OTEL_SAMPLE_RATIO" envDefault:"1"`
}
