package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadFrom_AppliesDefaults(t *testing.T) {
	dir := writeConfig(t, `
database_url: postgres://localhost/leadwatch
jwt_secret: secret
service_key: service
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 4*24*time.Hour, cfg.Staleness.OverdueAfter)
	assert.Equal(t, 14*24*time.Hour, cfg.Staleness.StaleAfter)
	assert.Equal(t, 5*time.Minute, cfg.Activity.OnlineWithin)
	assert.Equal(t, 30*time.Minute, cfg.Activity.AFKWithin)
	assert.Equal(t, 24*time.Hour, cfg.Notifications.RetentionWindow)
	assert.Equal(t, time.Hour, cfg.Scheduler.RegenerateInterval)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.AFKCheckInterval)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.False(t, cfg.Temporal.Enabled)
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	dir := writeConfig(t, `
database_url: postgres://localhost/leadwatch
jwt_secret: secret
service_key: service
notifications:
  retention_window: 0s
scheduler:
  afk_check_interval: 30s
email:
  alert_recipients: ["ops@example.com"]
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Notifications.RetentionWindow)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.AFKCheckInterval)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Email.AlertRecipients)
}

func TestLoadFrom_EnvSecretsOverrideFile(t *testing.T) {
	dir := writeConfig(t, `
database_url: postgres://file/leadwatch
jwt_secret: file-secret
service_key: file-key
`)
	t.Setenv("LEADWATCH_SERVICE_KEY", "env-key")
	t.Setenv("LEADWATCH_DATABASE_URL", "postgres://env/leadwatch")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.ServiceKey)
	assert.Equal(t, "postgres://env/leadwatch", cfg.DatabaseURL)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
}

func TestLoadFrom_EnvOverridesEmailCredentials(t *testing.T) {
	dir := writeConfig(t, `
database_url: postgres://localhost/leadwatch
jwt_secret: secret
service_key: service
email:
  smtp_host: smtp.example.com
  from: alerts@example.com
`)
	t.Setenv("LEADWATCH_EMAIL_USERNAME", "mailer")
	t.Setenv("LEADWATCH_EMAIL_PASSWORD", "smtp-secret")
	t.Setenv("LEADWATCH_EMAIL_ALERT_RECIPIENTS", "boss@example.com,ops@example.com")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "mailer", cfg.Email.Username)
	assert.Equal(t, "smtp-secret", cfg.Email.Password)
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.Email.AlertRecipients)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTPHost)
}

func TestLoadFrom_MissingSecrets(t *testing.T) {
	dir := writeConfig(t, `server_port: "9090"`)

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestValidate_RejectsInvertedThresholds(t *testing.T) {
	dir := writeConfig(t, `
database_url: postgres://localhost/leadwatch
jwt_secret: secret
service_key: service
staleness:
  overdue_after: 720h
`)

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overdue_after")
}
