package access

import (
	"log/slog"
	"net/http"
)

// Request annotations attached to forwarded requests on authorization
// success. Only the interceptor may set them; inbound copies are stripped
// before evaluation so an untrusted upstream can never smuggle tenant
// context past the edge.
const (
	HeaderTenantID   = "X-Tenant-ID"
	HeaderTenantSlug = "X-Tenant-Slug"
	HeaderTenantRole = "X-Tenant-Role"
)

// mwConfig holds interceptor configuration.
type mwConfig struct {
	publicPrefixes   []string
	publicExact      []string
	signInPath       string
	notFoundPath     string
	unauthorizedPath string
	failureHandler   http.HandlerFunc
	logger           *slog.Logger
}

func defaultMwConfig() *mwConfig {
	return &mwConfig{
		publicPrefixes:   []string{"/auth", "/_next", "/api/public"},
		publicExact:      []string{"/"},
		signInPath:       "/auth/signin",
		notFoundPath:     "/404",
		unauthorizedPath: "/auth/unauthorized",
		failureHandler:   defaultFailureHandler,
		logger:           slog.New(slog.DiscardHandler),
	}
}

// Option configures the interceptor middleware.
type Option func(*mwConfig)

// WithPublicPrefixes replaces the public path prefix allowlist.
func WithPublicPrefixes(prefixes ...string) Option {
	return func(c *mwConfig) { c.publicPrefixes = prefixes }
}

// WithPublicExact replaces the exact-match public path allowlist.
func WithPublicExact(paths ...string) Option {
	return func(c *mwConfig) { c.publicExact = paths }
}

// WithSignInPath sets the redirect target for unauthenticated requests.
func WithSignInPath(path string) Option {
	return func(c *mwConfig) { c.signInPath = path }
}

// WithNotFoundPath sets the redirect target when the tenant slug does not resolve.
func WithNotFoundPath(path string) Option {
	return func(c *mwConfig) { c.notFoundPath = path }
}

// WithUnauthorizedPath sets the redirect target for authenticated non-members.
func WithUnauthorizedPath(path string) Option {
	return func(c *mwConfig) { c.unauthorizedPath = path }
}

// WithFailureHandler overrides the response for transient lookup failures.
func WithFailureHandler(h http.HandlerFunc) Option {
	return func(c *mwConfig) {
		if h != nil {
			c.failureHandler = h
		}
	}
}

// WithLogger sets the middleware logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *mwConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// defaultFailureHandler surfaces transient lookup failures as a generic
// retryable error, never as a denial.
func defaultFailureHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Service temporarily unavailable, please retry", http.StatusServiceUnavailable)
}
