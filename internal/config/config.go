package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	CRM     CRMConfig     `yaml:"crm"`
	Pricing PricingConfig `yaml:"pricing"`
	Sync    SyncConfig    `yaml:"sync"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// CRMConfig contains the upstream CRM connection settings. The API key
// and location id are secrets and normally come from the environment.
type CRMConfig struct {
	BaseURL    string          `yaml:"base_url"`
	APIKey     string          `yaml:"api_key"`
	LocationID string          `yaml:"location_id"`
	APIVersion string          `yaml:"api_version"`
	Fields     CustomFieldsCfg `yaml:"fields"`
}

// CustomFieldsCfg holds the fixed custom-field ids agreed with the CRM
// schema. The offer field is where computed amounts are written back.
type CustomFieldsCfg struct {
	ARV       string `yaml:"arv"`
	Repairs   string `yaml:"repairs"`
	AsIsValue string `yaml:"as_is_value"`
	Offer     string `yaml:"offer"`
}

// PricingConfig contains the tunable pricing constants. The cash
// deduction has shipped with two values historically, so it is a
// parameter rather than a literal in the formula.
type PricingConfig struct {
	CashDeduction float64 `yaml:"cash_deduction"`
	MinOffer      float64 `yaml:"min_offer"`
}

// SyncConfig contains the CRM write-back retry settings
type SyncConfig struct {
	MaxAttempts     int    `yaml:"max_attempts"`
	BackoffSeconds  int    `yaml:"backoff_seconds"`
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
	PollSeconds     int    `yaml:"poll_seconds"`
}

// SearchConfig contains property search and history search settings
type SearchConfig struct {
	MinQueryLength int               `yaml:"min_query_length"`
	DebounceMillis int               `yaml:"debounce_millis"`
	Meilisearch    MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
}

// StorageConfig selects the durable backend for saved offers
type StorageConfig struct {
	Type     string         `yaml:"type"` // file, mysql, postgres
	Key      string         `yaml:"key"`
	FileDir  string         `yaml:"file_dir"` // directory for the file backend's JSON documents
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8090",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		CRM: CRMConfig{
			BaseURL:    "https://services.leadconnectorhq.com",
			APIVersion: "2021-07-28",
			Fields: CustomFieldsCfg{
				ARV:       "wuSG63CwYz9EksTUtgH1",
				Repairs:   "had1BxDw5o9zd9i63jrq",
				AsIsValue: "IT8geFyC4iOWzVyyAjvh",
				Offer:     "pQ2mBsXkT7rCWnEa4dVu",
			},
		},
		Pricing: PricingConfig{
			CashDeduction: 20000,
			MinOffer:      1000,
		},
		Sync: SyncConfig{
			MaxAttempts:     3,
			BackoffSeconds:  1,
			DailyRunEnabled: false,
			DailyRunTime:    "02:00",
			PollSeconds:     30,
		},
		Search: SearchConfig{
			MinQueryLength: 3,
			DebounceMillis: 400,
		},
		Storage: StorageConfig{
			Type:    "file",
			Key:     "offer_ai_bot_offers",
			FileDir: "data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetBackoffUnit returns the linear backoff unit as a duration
func (c *SyncConfig) GetBackoffUnit() time.Duration {
	return time.Duration(c.BackoffSeconds) * time.Second
}

// GetPollInterval returns the background worker poll interval
func (c *SyncConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// GetDebounce returns the search debounce delay as a duration
func (c *SearchConfig) GetDebounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
