package config

import (
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const configFileEnvVar = "CONFIG_FILE"

// StorageSettings selects and configures the token storage backend.
// Values come from the environment; a yaml config file named by CONFIG_FILE
// overrides them.
type StorageSettings struct {
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" envDefault:"memory"`

	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" envDefault:"./data/tokens.db"`

	PostgresDSN string `yaml:"postgres_dsn" env:"POSTGRES_DSN"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" envDefault:"0"`
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorageSettings() (StorageSettings, error) {
	var settings StorageSettings
	if err := env.Parse(&settings); err != nil {
		return StorageSettings{}, errors.Wrap(err, "[Storage.GetStorageSettings] env.Parse")
	}

	if path := os.Getenv(configFileEnvVar); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return StorageSettings{}, errors.Wrap(err, "[Storage.GetStorageSettings] read config file")
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return StorageSettings{}, errors.Wrap(err, "[Storage.GetStorageSettings] parse config file")
		}
	}

	return settings, nil
}
