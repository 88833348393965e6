package tenant

import "fmt"

// URLConfig describes how workspace links are constructed for the current
// deployment. It is the single canonical source of tenant URLs; nothing else
// in the system assembles `{slug}.{domain}` strings by hand.
type URLConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // Environment selects production or local URL shape.
	RootDomain  string `env:"ROOT_DOMAIN" envDefault:"workdeck.app"`
	DevPort     int    `env:"DEV_PORT" envDefault:"3000"` // DevPort is the local port used for {slug}.localhost URLs.
}

// WorkspaceURL returns the canonical URL of a tenant's workspace:
// https://{slug}.{root-domain} in production, http://{slug}.localhost:{port}
// otherwise.
func (c URLConfig) WorkspaceURL(slug string) string {
	if c.Environment == "production" {
		return fmt.Sprintf("https://%s.%s", slug, c.RootDomain)
	}
	return fmt.Sprintf("http://%s.localhost:%d", slug, c.DevPort)
}
