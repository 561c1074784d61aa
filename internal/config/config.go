package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

const (
	StoreSheets = "sheets"
	StoreMemory = "memory"
)

// Config is built once at startup and passed by value to the constructors.
type Config struct {
	Port      string `mapstructure:"PORT" validate:"required"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=text json"`

	StoreDriver           string `mapstructure:"STORE_DRIVER" validate:"oneof=sheets memory"`
	GoogleSheetID         string `mapstructure:"GOOGLE_SHEET_ID" validate:"required_if=StoreDriver sheets"`
	GoogleCredentialsJSON string `mapstructure:"GOOGLE_CREDENTIALS_JSON"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	PartnerSheet          string `mapstructure:"PARTNER_SHEET" validate:"required"`
	LeadsSheet            string `mapstructure:"LEADS_SHEET" validate:"required"`
	LeadsLogSheet         string `mapstructure:"LEADS_LOG_SHEET" validate:"required"`
	LeadContactColumns    string `mapstructure:"LEAD_CONTACT_COLUMNS"`
	LeadStatusColumn      string `mapstructure:"LEAD_STATUS_COLUMN"`

	WhapiToken         string  `mapstructure:"WHAPI_TOKEN"`
	WhapiURL           string  `mapstructure:"WHAPI_URL" validate:"url"`
	WhapiRatePerSecond float64 `mapstructure:"WHAPI_RATE_PER_SECOND" validate:"gte=0"`

	FBVerifyToken string `mapstructure:"FB_VERIFY_TOKEN"`
	FBAccessToken string `mapstructure:"FB_ACCESS_TOKEN"`
	FBGraphURL    string `mapstructure:"FB_GRAPH_URL" validate:"omitempty,url"`

	LeadPriceRaw        string `mapstructure:"LEAD_PREIS" validate:"required"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	AdminPhone string `mapstructure:"MATZE_PHONE"`
	AdminEmail string `mapstructure:"ADMIN_EMAIL" validate:"omitempty,email"`
	AdminToken string `mapstructure:"ADMIN_TOKEN"`
	MailHost   string `mapstructure:"MAIL_HOST"`
	MailPort   int    `mapstructure:"MAIL_PORT" validate:"min=1,max=65535"`
	MailUser   string `mapstructure:"MAIL_USER"`
	MailPass   string `mapstructure:"MAIL_PASS"`
	MailFrom   string `mapstructure:"MAIL_FROM"`

	PollIntervalSeconds  int    `mapstructure:"POLL_INTERVAL" validate:"min=5"`
	LeadDelayMillis      int    `mapstructure:"LEAD_DELAY_MS" validate:"min=0"`
	HTTPTimeoutSeconds   int    `mapstructure:"HTTP_TIMEOUT_SECONDS" validate:"min=1"`
	NotifyCustomer       bool   `mapstructure:"NOTIFY_CUSTOMER"`
	PhoneRegion          string `mapstructure:"PHONE_DEFAULT_REGION" validate:"len=2"`
	WebhookRatePerMinute int    `mapstructure:"WEBHOOK_RATE_PER_MINUTE" validate:"min=1"`

	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	AuditDatabaseURL string `mapstructure:"AUDIT_DATABASE_URL"`

	LeadPrice   decimal.Decimal        `mapstructure:"-" validate:"-"`
	LeadColumns sheetstore.LeadColumns `mapstructure:"-" validate:"-"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT",
	"STORE_DRIVER", "GOOGLE_SHEET_ID", "GOOGLE_CREDENTIALS_JSON", "GOOGLE_CREDENTIALS_FILE",
	"PARTNER_SHEET", "LEADS_SHEET", "LEADS_LOG_SHEET", "LEAD_CONTACT_COLUMNS", "LEAD_STATUS_COLUMN",
	"WHAPI_TOKEN", "WHAPI_URL", "WHAPI_RATE_PER_SECOND",
	"FB_VERIFY_TOKEN", "FB_ACCESS_TOKEN", "FB_GRAPH_URL",
	"LEAD_PREIS", "STRIPE_WEBHOOK_SECRET",
	"ADMIN_EMAIL", "ADMIN_TOKEN", "MAIL_HOST", "MAIL_PORT", "MAIL_USER", "MAIL_PASS", "MAIL_FROM",
	"POLL_INTERVAL", "LEAD_DELAY_MS", "HTTP_TIMEOUT_SECONDS", "NOTIFY_CUSTOMER",
	"PHONE_DEFAULT_REGION", "WEBHOOK_RATE_PER_MINUTE",
	"RABBITMQ_URL", "AUDIT_DATABASE_URL",
}

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("STORE_DRIVER", StoreSheets)
	viper.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	viper.SetDefault("PARTNER_SHEET", "Partner")
	viper.SetDefault("LEADS_SHEET", "Tabellenblatt1")
	viper.SetDefault("LEADS_LOG_SHEET", "Leads_Log")
	viper.SetDefault("LEAD_CONTACT_COLUMNS", "M,N,O")
	viper.SetDefault("LEAD_STATUS_COLUMN", "P")
	viper.SetDefault("WHAPI_URL", "https://gate.whapi.cloud/messages/text")
	viper.SetDefault("WHAPI_RATE_PER_SECOND", 1)
	viper.SetDefault("LEAD_PREIS", "5")
	viper.SetDefault("MAIL_PORT", 587)
	viper.SetDefault("POLL_INTERVAL", 60)
	viper.SetDefault("LEAD_DELAY_MS", 2000)
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("NOTIFY_CUSTOMER", true)
	viper.SetDefault("PHONE_DEFAULT_REGION", "DE")
	viper.SetDefault("WEBHOOK_RATE_PER_MINUTE", 60)
}

// LoadConfig reads .env (when present) and the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	setDefaults()
	viper.AutomaticEnv()
	for _, k := range keys {
		_ = viper.BindEnv(k)
	}
	_ = viper.BindEnv("MATZE_PHONE", "MATZE_PHONE", "ADMIN_PHONE")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.PhoneRegion = strings.ToUpper(cfg.PhoneRegion)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	price, err := decimal.NewFromString(strings.Replace(strings.TrimSpace(cfg.LeadPriceRaw), ",", ".", 1))
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("invalid config: LEAD_PREIS must be a positive amount, got %q", cfg.LeadPriceRaw)
	}
	cfg.LeadPrice = price.Round(2)

	cols, err := parseLeadColumns(cfg.LeadContactColumns, cfg.LeadStatusColumn)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.LeadColumns = cols

	return &cfg, nil
}

func parseLeadColumns(contact, status string) (sheetstore.LeadColumns, error) {
	var out sheetstore.LeadColumns
	for _, letters := range strings.Split(contact, ",") {
		idx := spreadsheet.ColumnIndex(letters)
		if idx < 0 {
			return sheetstore.LeadColumns{}, fmt.Errorf("LEAD_CONTACT_COLUMNS: %q is not a column", letters)
		}
		out.Contact = append(out.Contact, idx)
	}
	if len(out.Contact) == 0 || len(out.Contact) > 3 {
		return sheetstore.LeadColumns{}, errors.New("LEAD_CONTACT_COLUMNS: expected one to three columns")
	}
	out.Status = spreadsheet.ColumnIndex(status)
	if out.Status < 0 {
		return sheetstore.LeadColumns{}, fmt.Errorf("LEAD_STATUS_COLUMN: %q is not a column", status)
	}
	return out, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) LeadDelay() time.Duration {
	return time.Duration(c.LeadDelayMillis) * time.Millisecond
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// MailEnabled reports whether admin alerts are mirrored to email.
func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && c.AdminEmail != ""
}
