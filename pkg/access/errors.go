package access

import "errors"

// ErrLookupFailed marks a transient backend failure during tenant or
// membership resolution. It is retryable and distinct from every deny
// reason: a failed lookup is never "access denied".
var ErrLookupFailed = errors.New("access: lookup failed")
