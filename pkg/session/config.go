package session

import "time"

type Config struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"workdeck_session"` // CookieName is the name of the session cookie.
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"720h"`                     // TTL is the session lifetime.
	SecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`         // SecureCookies restricts the cookie to HTTPS.

	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"10m"` // CleanupInterval is how often expired sessions are purged from the memory store.
}

// DefaultConfig returns config values matching the env defaults.
func DefaultConfig() Config {
	return Config{
		CookieName:      "workdeck_session",
		TTL:             720 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}
