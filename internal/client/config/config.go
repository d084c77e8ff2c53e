package config

import "time"

// Config holds runtime settings for the whistles CLI.
type Config struct {
	ServerEndpointAddr string        `envconfig:"ADDR"`
	Token              string        `envconfig:"TOKEN"`
	RequestTimeout     time.Duration `envconfig:"TIMEOUT"`

	// Args is what remains after the global flags: the command name and
	// its own arguments.
	Args []string `ignored:"true"`
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config from defaults, the environment, an optional
// JSON file and command-line flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
