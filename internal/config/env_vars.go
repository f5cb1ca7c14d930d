package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	pageSizeEnvVar = "PAGE_SIZE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Token Service")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDefaultPageSize returns the listing window size. Invalid values fall
// back to the default.
func (EnvVars) GetDefaultPageSize() int {
	size, err := strconv.Atoi(GetEnv(pageSizeEnvVar, "20"))
	if err != nil || size < 1 {
		return 20
	}
	return size
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
