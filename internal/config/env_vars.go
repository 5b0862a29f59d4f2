package config

import "strings"

type EnvVars struct {
	Host     string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"SERVER_PORT" envDefault:"3000"`
	AppName  string `env:"APP_NAME" envDefault:"Go OAuth Gateway"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

// GetAddr returns the listen address, e.g. "0.0.0.0:3000".
func (e EnvVars) GetAddr() string {
	return joinHostPort(e.Host, e.Port)
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}
