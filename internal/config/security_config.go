package config

import "time"

type SecurityConfig interface {
	GetRequirePKCE() bool
	GetStateTTL() time.Duration
	GetMaxSessionAge() time.Duration
	GetExchangeTimeout() time.Duration
	GetSweepInterval() time.Duration
	GetSecureCookies() bool
	GetBindStateCookie() bool
}

type Security struct {
	RequirePKCE     bool          `env:"REQUIRE_PKCE" envDefault:"true"`
	StateTTL        time.Duration `env:"STATE_TTL" envDefault:"10m"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"10s"`
	SweepInterval   time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	SecureCookies   bool          `env:"SECURE_COOKIES" envDefault:"false"`
	BindStateCookie bool          `env:"BIND_STATE_COOKIE" envDefault:"true"`
}

var _ SecurityConfig = Security{}

func (s Security) GetRequirePKCE() bool {
	return s.RequirePKCE
}

// GetStateTTL bounds how long an issued authorization request waits for its callback.
func (s Security) GetStateTTL() time.Duration {
	return orDefault(s.StateTTL, 10*time.Minute)
}

func (s Security) GetMaxSessionAge() time.Duration {
	return orDefault(s.SessionTTL, 24*time.Hour)
}

func (s Security) GetExchangeTimeout() time.Duration {
	return orDefault(s.ExchangeTimeout, 10*time.Second)
}

func (s Security) GetSweepInterval() time.Duration {
	return orDefault(s.SweepInterval, time.Minute)
}

func (s Security) GetSecureCookies() bool {
	return s.SecureCookies
}

// GetBindStateCookie reports whether the callback requires the state cookie
// set by the login that issued it.
func (s Security) GetBindStateCookie() bool {
	return s.BindStateCookie
}
