// Package slug normalizes and validates tenant workspace slugs. A slug is
// both the tenant's unique identifier and its subdomain label, so validation
// follows DNS label rules and rejects subdomains the platform reserves.
package slug
