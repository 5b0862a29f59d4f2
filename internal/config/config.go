package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	apperrors "github.com/jrsteele09/go-oauth-gateway/internal/errors"
)

type Config interface {
	EnvConfig
	ProviderConfig
	SecurityConfig
	CorsConfig
	Warnings() []string
}

type EnvConfig interface {
	GetAddr() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Provider
	Security
	Cors

	warnings []string
}

var _ Config = (*mainConfig)(nil)

// Load reads the process configuration once. A .env file in the working
// directory is applied first when present; real environment variables win.
//
// A variable that cannot be parsed falls back to its own default and is
// reported both in Warnings and in the returned ErrConfiguration. Every other
// variable, credentials and redirect URI included, keeps its value.
// Placeholder credentials are reported through Warnings.
func Load() (Config, error) {
	var problems []string
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		problems = append(problems, fmt.Sprintf(".env file ignored: %v", err))
	}

	environ := env.ToMap(os.Environ())
	malformed := malformedVars(environ)
	for _, key := range malformed {
		problems = append(problems, fmt.Sprintf("%s=%q is malformed, using default", key, environ[key]))
		delete(environ, key)
	}

	c := &mainConfig{}
	if err := env.ParseWithOptions(c, env.Options{Environment: environ}); err != nil {
		// Only reachable if a variable fails in combination but not alone.
		d := Defaults().(*mainConfig)
		d.warnings = append(d.warnings, problems...)
		return d, apperrors.Wrapf(apperrors.ErrConfiguration, "parse environment: %v", err)
	}
	c.warnings = append(c.warnings, problems...)
	c.applyPlaceholders()

	if len(problems) > 0 {
		return c, apperrors.Wrapf(apperrors.ErrConfiguration, "%s", strings.Join(problems, "; "))
	}
	return c, nil
}

// malformedVars returns the configuration variables set in environ whose
// value does not parse for their field.
func malformedVars(environ map[string]string) []string {
	params, err := env.GetFieldParams(&mainConfig{})
	if err != nil {
		return nil
	}

	var bad []string
	for _, p := range params {
		value, ok := environ[p.Key]
		if !ok {
			continue
		}
		single := &mainConfig{}
		if err := env.ParseWithOptions(single, env.Options{Environment: map[string]string{p.Key: value}}); err != nil {
			bad = append(bad, p.Key)
		}
	}
	return bad
}

// Defaults returns a configuration built purely from default values.
func Defaults() Config {
	c := &mainConfig{}
	_ = env.ParseWithOptions(c, env.Options{Environment: map[string]string{}})
	c.applyPlaceholders()
	return c
}

func (c *mainConfig) applyPlaceholders() {
	if c.ClientID == "" {
		c.ClientID = placeholderClientID
		c.warnings = append(c.warnings, "GOOGLE_CLIENT_ID not set, using placeholder")
	}
	if c.ClientSecret == "" {
		c.ClientSecret = placeholderClientSecret
		c.warnings = append(c.warnings, "GOOGLE_CLIENT_SECRET not set, using placeholder")
	}
	if c.RedirectURI == "" {
		c.RedirectURI = defaultRedirectURI
		c.warnings = append(c.warnings, "REDIRECT_URI not set, using "+defaultRedirectURI)
	}
}

func (c *mainConfig) Warnings() []string {
	return c.warnings
}

// Static builds a configuration from explicit values (used by tests and
// embedded callers that do not read the environment).
func Static(p Provider, s Security) Config {
	c := Defaults().(*mainConfig)
	c.Provider = p
	c.Security = s
	c.warnings = nil
	c.applyPlaceholders()
	return c
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
