package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DotEnvFile is loaded, when present, before any other source.
const DotEnvFile = ".env"

// LoadConfig builds a Config from defaults, .env, JSON, environment and
// os.Args, in that order of increasing precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig for an explicit argument list.
func Load(args []string) (*Config, error) {
	return load(args, DotEnvFile)
}

func load(args []string, dotenv string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	// variables already present in the environment win over .env
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenv, err)
	}

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
