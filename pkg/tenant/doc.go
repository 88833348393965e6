// Package tenant defines the tenant record, the directory that resolves
// subdomain slugs to tenants, slug extraction from request hosts, canonical
// workspace URL construction, and request-context propagation of the
// resolved tenant.
//
// The directory lookup distinguishes two failure shapes on purpose: the
// sentinel ErrTenantNotFound is a normal control-flow outcome (the access
// evaluator turns it into a deny decision), while any other error is a
// transient backend failure that must surface as retryable, never as
// "access denied".
package tenant
