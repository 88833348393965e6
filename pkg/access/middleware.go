package access

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/workdeck/workdeck/pkg/logger"
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// Principal reports the authenticated user for a request, typically by
// consulting the session. A zero UUID with a nil error means no
// authenticated user; a non-nil error means the session could not be
// resolved at all and the request must not be treated as anonymous.
type Principal func(r *http.Request) (uuid.UUID, error)

// Middleware is the edge request interceptor. Per request it classifies the
// path against the public allowlist, resolves the session principal, invokes
// the evaluator, and either forwards the request annotated with tenant
// context or redirects. It holds no state across requests; every decision is
// re-derived per invocation.
func Middleware(eval *Evaluator, principal Principal, opts ...Option) func(http.Handler) http.Handler {
	if eval == nil {
		panic("access: nil evaluator")
	}
	if principal == nil {
		panic("access: nil principal resolver")
	}

	cfg := defaultMwConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Annotations are only trustworthy when set here.
			stripAnnotations(r)

			if cfg.isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := principal(r)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "session resolution failed",
					logger.Error(err), logger.Host(r.Host))
				cfg.failureHandler(w, r)
				return
			}
			if userID == uuid.Nil {
				http.Redirect(w, r, cfg.signInPath, http.StatusFound)
				return
			}

			decision, err := eval.Evaluate(r.Context(), r.Host, userID)
			if err != nil {
				cfg.logger.ErrorContext(r.Context(), "access evaluation failed",
					logger.Error(err), logger.Host(r.Host), logger.UserID(userID))
				cfg.failureHandler(w, r)
				return
			}

			if !decision.Allowed {
				switch decision.Reason {
				case DenyUnauthenticated:
					http.Redirect(w, r, cfg.signInPath, http.StatusFound)
				case DenyNotAMember:
					http.Redirect(w, r, cfg.unauthorizedPath, http.StatusFound)
				default: // DenyNoTenant, DenyTenantNotFound
					http.Redirect(w, r, cfg.notFoundPath, http.StatusFound)
				}
				return
			}

			annotate(r, decision)
			ctx := withDecision(r.Context(), decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPublic matches the path against the allowlist. Public requests bypass
// authentication and tenant resolution entirely.
func (c *mwConfig) isPublic(path string) bool {
	for _, p := range c.publicExact {
		if path == p {
			return true
		}
	}
	for _, prefix := range c.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func stripAnnotations(r *http.Request) {
	r.Header.Del(HeaderTenantID)
	r.Header.Del(HeaderTenantSlug)
	r.Header.Del(HeaderTenantRole)
}

func annotate(r *http.Request, d Decision) {
	r.Header.Set(HeaderTenantID, d.Tenant.ID.String())
	r.Header.Set(HeaderTenantSlug, d.Tenant.Slug)
	r.Header.Set(HeaderTenantRole, d.Role.String())
}

func withDecision(ctx context.Context, d Decision) context.Context {
	ctx = tenant.WithTenant(ctx, d.Tenant)
	return membership.WithRole(ctx, d.Role)
}
