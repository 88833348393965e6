package email

import (
	"context"
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidAddress reports whether addr looks like an email address. It is a
// shape check, not a deliverability check.
func ValidAddress(addr string) bool {
	return emailRegex.MatchString(addr)
}

// Message is one outbound transactional email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Tag     string `json:"tag,omitempty"`
}

// Validate checks the message is sendable.
func (m Message) Validate() error {
	if !ValidAddress(m.To) {
		return fmt.Errorf("%w: invalid recipient %q", ErrInvalidMessage, m.To)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	}
	if m.HTML == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers transactional emails. Implementations: Postmark for
// production, a filesystem sender for development.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
