package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	HTTPServer  `yaml:"http_server"`
	Client      ClientConfig `yaml:"client"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

// ClientConfig selects one of the named API profiles. The original app
// carried several divergent client definitions (different base URLs and
// timeouts); here there is a single set of profiles chosen by name.
type ClientConfig struct {
	Profile  string    `yaml:"profile" env:"API_PROFILE" env-default:"local"`
	Profiles []Profile `yaml:"profiles"`
}

type Profile struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("Config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	return &cfg
}

// ActiveProfile resolves the configured profile name, falling back to the
// built-in defaults when the config carries no profile list.
func (c *Config) ActiveProfile() (Profile, error) {
	profiles := c.Client.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}

	for _, p := range profiles {
		if p.Name == c.Client.Profile {
			if p.Timeout == 0 {
				p.Timeout = 10 * time.Second
			}
			return p, nil
		}
	}

	return Profile{}, fmt.Errorf("unknown client profile %q", c.Client.Profile)
}

func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "local", BaseURL: "http://localhost:5244/api", Timeout: 10 * time.Second},
		{Name: "emulator", BaseURL: "http://10.0.2.2:5244/api", Timeout: 10 * time.Second},
		{Name: "prod", BaseURL: "https://api.martyrgrave.example.com/api", Timeout: 10 * time.Second},
	}
}
