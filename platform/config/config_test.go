package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bda")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ALL", "false")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, 24*time.Hour, cfg.GetFollowUpEmailDelay())
	assert.Equal(t, []string{"completed"}, cfg.GetPlanDetailsStatuses())
	assert.Equal(t, "IN", cfg.GetPhoneDefaultRegion())
	assert.False(t, cfg.IsMinIOEnabled())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsIncompleteEmailProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_PROVIDER", "sendgrid")
	t.Setenv("SENDGRID_API_KEY", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SENDGRID_API_KEY")
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV(" a, ,b "))
	assert.Empty(t, splitCSV(""))
}
