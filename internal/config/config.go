package config

type Config interface {
	EnvConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetDefaultPageSize() int
}

type StorageConfig interface {
	GetStorageSettings() (StorageSettings, error)
}

type mainConfig struct {
	EnvVars
	Storage
}

func New() Config {
	return mainConfig{}
}
