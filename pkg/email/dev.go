package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// DevSender writes each message to a directory as an .html file plus a
// .json metadata file instead of delivering it. For local development.
type DevSender struct {
	dir string
}

// NewDevSender creates a filesystem sender. The directory is created on
// first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

func (d *DevSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	name = unsafeFilenameChars.ReplaceAllString(strings.ToLower(name), "_")
	base := fmt.Sprintf("%s_%s", time.Now().Format("2006_01_02_150405"), name)

	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(msg.HTML), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	meta, err := json.MarshalIndent(map[string]string{
		"to":      msg.To,
		"subject": msg.Subject,
		"tag":     msg.Tag,
		"sent_at": time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}
