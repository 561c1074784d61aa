package config_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
)

func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfig_Defaults(t *testing.T) {
	reset(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.LeadPrice.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 60*time.Second, cfg.PollInterval())
	assert.Equal(t, 2*time.Second, cfg.LeadDelay())
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.True(t, cfg.NotifyCustomer)
	assert.Equal(t, "DE", cfg.PhoneRegion)
	assert.Equal(t, sheetstore.DefaultLeadColumns, cfg.LeadColumns)
	assert.Equal(t, "Leads_Log", cfg.LeadsLogSheet)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	reset(t)
	t.Setenv("STORE_DRIVER", "sheets")
	t.Setenv("GOOGLE_SHEET_ID", "sheet-123")
	t.Setenv("LEAD_PREIS", "7,50")
	t.Setenv("POLL_INTERVAL", "30")
	t.Setenv("NOTIFY_CUSTOMER", "false")
	t.Setenv("LEAD_CONTACT_COLUMNS", "A,B")
	t.Setenv("LEAD_STATUS_COLUMN", "C")
	t.Setenv("ADMIN_PHONE", "491709999999")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.GoogleSheetID)
	assert.Equal(t, "7.5", cfg.LeadPrice.String())
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.False(t, cfg.NotifyCustomer)
	assert.Equal(t, sheetstore.LeadColumns{Contact: []int{0, 1}, Status: 2}, cfg.LeadColumns)
	assert.Equal(t, "491709999999", cfg.AdminPhone, "ADMIN_PHONE is an alias of MATZE_PHONE")
	assert.True(t, cfg.MailEnabled())
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"sheets without id": {"STORE_DRIVER": "sheets", "GOOGLE_SHEET_ID": ""},
		"unknown driver":    {"STORE_DRIVER": "redis"},
		"zero price":        {"STORE_DRIVER": "memory", "LEAD_PREIS": "0"},
		"bad price":         {"STORE_DRIVER": "memory", "LEAD_PREIS": "five"},
		"bad column":        {"STORE_DRIVER": "memory", "LEAD_CONTACT_COLUMNS": "M,1"},
		"too many columns":  {"STORE_DRIVER": "memory", "LEAD_CONTACT_COLUMNS": "A,B,C,D"},
		"poll too fast":     {"STORE_DRIVER": "memory", "POLL_INTERVAL": "1"},
		"bad admin email":   {"STORE_DRIVER": "memory", "ADMIN_EMAIL": "nope"},
		"bad log format":    {"STORE_DRIVER": "memory", "LOG_FORMAT": "xml"},
		"bad region":        {"STORE_DRIVER": "memory", "PHONE_DEFAULT_REGION": "DEU"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			reset(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}
