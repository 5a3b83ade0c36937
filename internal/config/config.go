package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tourbooking/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                `yaml:"app"`
	API        APIConfig                `yaml:"api"`
	Database   DatabaseConfig           `yaml:"database"`
	Backup     BackupConfig             `yaml:"backup"`
	Redis      RedisConfig              `yaml:"redis"`
	Monitoring MonitoringConfig         `yaml:"monitoring"`
	Logging    LoggingConfig            `yaml:"logging"`
	Google     GoogleConfig             `yaml:"google"`
	Telegram   TelegramConfig           `yaml:"telegram"`
	Stripe     StripeConfig             `yaml:"stripe"`
	Pricing    PricingConfig            `yaml:"pricing"`
	Inquiries  InquiriesConfig          `yaml:"inquiries"`
	Exports    ExportConfig             `yaml:"exports"`
	Packages   []models.PackageOffering `yaml:"packages"`
}

type APIConfig struct {
	HTTP           APIHTTPConfig      `yaml:"http"`
	Auth           APIAuthConfig      `yaml:"auth"`
	RateLimit      APIRateLimitConfig `yaml:"rate_limit"`
	RequestTimeout time.Duration      `yaml:"request_timeout"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BackupConfig schedules VACUUM INTO snapshots of the bookings database.
type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	StoragePath   string        `yaml:"storage_path"`
	RetentionDays int           `yaml:"retention_days"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	DraftTTL time.Duration `yaml:"draft_ttl"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID         string `yaml:"spreadsheet_id"`
}

type TelegramConfig struct {
	BotToken      string  `yaml:"bot_token"`
	OperatorChats []int64 `yaml:"operator_chats"`
	Debug         bool    `yaml:"debug"`
}

// StripeConfig carries processor credentials. Empty keys leave payments unconfigured.
type StripeConfig struct {
	SecretKey         string   `yaml:"secret_key"`
	PublishableKey    string   `yaml:"publishable_key"`
	WebhookSecret     string   `yaml:"webhook_secret"`
	SuccessURL        string   `yaml:"success_url"`
	CancelURL         string   `yaml:"cancel_url"`
	Currency          string   `yaml:"currency"`
	ShippingCountries []string `yaml:"shipping_countries"`
}

// PricingConfig amounts are in major units except where the name says cents.
type PricingConfig struct {
	RoomPrices        map[string]int64 `yaml:"room_prices"`
	DepositPerPerson  int64            `yaml:"deposit_per_person"`
	CardFeeBPS        int64            `yaml:"card_fee_bps"`
	CardFixedFeeCents int64            `yaml:"card_fixed_fee_cents"`
	ACHFeeBPS         int64            `yaml:"ach_fee_bps"`
	ACHFeeCapCents    int64            `yaml:"ach_fee_cap_cents"`
	TimeZone          string           `yaml:"time_zone"`
}

type InquiriesConfig struct {
	Dir string `yaml:"dir"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// DefaultShippingCountries is the shipping allow-list used when none is configured.
var DefaultShippingCountries = []string{
	"US", "CA", "GB", "AU", "DE", "FR", "IT", "ES", "NL", "BE", "CH", "AT", "SE", "NO", "DK", "FI", "IE",
	"PT", "LU", "MT", "CY", "EE", "LV", "LT", "SI", "SK", "CZ", "HU", "PL", "RO", "BG", "HR", "GR",
}

func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win either way
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Inquiries.Dir == "" {
		return errors.New("inquiries dir is required")
	}

	if err := c.Pricing.Validate(); err != nil {
		return err
	}

	keys := make(map[string]bool, len(c.API.Auth.APIKeys))
	for _, k := range c.API.Auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("api key %q is empty", k.Name)
		}
		if keys[k.Key] {
			return fmt.Errorf("duplicate api key for client %q", k.Name)
		}
		keys[k.Key] = true
	}

	return ValidatePackages(c.Packages, c.Pricing)
}

// Validate checks the price constants; each room price must cover the deposit.
func (p PricingConfig) Validate() error {
	if p.DepositPerPerson < 0 {
		return errors.New("pricing.deposit_per_person must not be negative")
	}
	for _, bps := range []int64{p.CardFeeBPS, p.ACHFeeBPS} {
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("pricing fee rate %d bp out of range", bps)
		}
	}
	if p.CardFixedFeeCents < 0 || p.ACHFeeCapCents < 0 {
		return errors.New("pricing fees must not be negative")
	}
	for cat, price := range p.RoomPrices {
		if err := p.validateRoomPrice("pricing.room_prices", models.RoomCategory(cat), price); err != nil {
			return err
		}
	}
	return nil
}

func (p PricingConfig) validateRoomPrice(field string, cat models.RoomCategory, price int64) error {
	switch cat {
	case models.RoomDual, models.RoomTriple, models.RoomQuad:
	default:
		return fmt.Errorf("%s: unknown room category %q", field, cat)
	}
	if price <= 0 {
		return fmt.Errorf("%s.%s must be positive", field, cat)
	}
	if p.DepositPerPerson > 0 && price < p.DepositPerPerson {
		return fmt.Errorf("%s.%s is below the deposit", field, cat)
	}
	return nil
}

// ValidatePackages checks catalog entries; room price overrides follow the
// same rules as pricing.room_prices.
func ValidatePackages(packages []models.PackageOffering, pricing PricingConfig) error {
	ids := make(map[string]bool)
	for _, pkg := range packages {
		if pkg.ID == "" {
			return fmt.Errorf("package '%s' has empty ID", pkg.Name)
		}
		if ids[pkg.ID] {
			return fmt.Errorf("duplicate package ID found: %s", pkg.ID)
		}
		ids[pkg.ID] = true

		switch pkg.Status {
		case "", models.PackageStandard, models.PackageInquiry, models.PackageSoldOut:
		default:
			return fmt.Errorf("package %s has unknown status %q", pkg.ID, pkg.Status)
		}
		for cat, price := range pkg.RoomPrices {
			if err := pricing.validateRoomPrice("packages."+pkg.ID+".room_prices", cat, price); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.RequestTimeout == 0 {
		c.API.RequestTimeout = 30 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.DefaultRateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.DefaultRateLimitBurst
	}
	if c.Redis.DraftTTL == 0 {
		c.Redis.DraftTTL = models.DefaultDraftTTL * time.Second
	}
	if c.Stripe.Currency == "" {
		c.Stripe.Currency = "usd"
	}
	if len(c.Stripe.ShippingCountries) == 0 {
		c.Stripe.ShippingCountries = DefaultShippingCountries
	}
	if c.Inquiries.Dir == "" {
		c.Inquiries.Dir = "inquiries"
	}
	if c.Backup.Enabled && c.Backup.Interval == 0 {
		c.Backup.Interval = 24 * time.Hour
	}
	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
