package tenant

import "strings"

// SlugFromHost extracts the candidate tenant slug from a request host: the
// lowercased leading label of the hostname, split on the first dot. The port
// is stripped first. Hosts without dot-separated structure carry no tenant
// and yield an empty string.
//
// Only the first label is considered; multi-label subdomains are not
// supported.
func SlugFromHost(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	label, rest, found := strings.Cut(host, ".")
	if !found || label == "" || rest == "" {
		return ""
	}

	return strings.ToLower(label)
}
