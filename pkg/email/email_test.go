package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck/pkg/email"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := email.Message{To: "dev@acme.test", Subject: "Hi", HTML: "<p>Hi</p>"}
	require.NoError(t, valid.Validate())

	t.Run("rejects malformed recipient", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.To = "not-an-address"
		assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.Subject = ""
		assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		t.Parallel()
		msg := valid
		msg.HTML = ""
		assert.ErrorIs(t, msg.Validate(), email.ErrInvalidMessage)
	})
}

func TestNewPostmarkSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	base := email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@workdeck.test",
		SupportEmail:         "support@workdeck.test",
	}

	_, err := email.NewPostmarkSender(base)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*email.Config){
		"missing server token":  func(c *email.Config) { c.PostmarkServerToken = "" },
		"missing account token": func(c *email.Config) { c.PostmarkAccountToken = "" },
		"bad sender address":    func(c *email.Config) { c.SenderEmail = "nope" },
		"bad support address":   func(c *email.Config) { c.SupportEmail = "" },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			mutate(&cfg)
			_, err := email.NewPostmarkSender(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}
}

func TestDevSender_WritesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.Send(context.Background(), email.Message{
		To:      "invitee@acme.test",
		Subject: "You have been invited",
		HTML:    "<p>Join the acme workspace</p>",
		Tag:     "workspace-invitation",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var htmlFile, jsonFile string
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			htmlFile = e.Name()
		case ".json":
			jsonFile = e.Name()
		}
	}
	require.NotEmpty(t, htmlFile)
	require.NotEmpty(t, jsonFile)
	assert.Contains(t, htmlFile, "workspace-invitation")

	body, err := os.ReadFile(filepath.Join(dir, htmlFile))
	require.NoError(t, err)
	assert.Contains(t, string(body), "acme workspace")

	meta, err := os.ReadFile(filepath.Join(dir, jsonFile))
	require.NoError(t, err)
	assert.Contains(t, string(meta), "invitee@acme.test")
}

func TestDevSender_SanitizesFilenames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.Send(context.Background(), email.Message{
		To:      "dev@acme.test",
		Subject: "Weird / Subject: <chars>",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.ContainsAny(e.Name(), "/:<> "), e.Name())
	}
}
