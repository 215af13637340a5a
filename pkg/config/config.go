package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		RateLimitRPS    float64       `yaml:"rate_limit_rps"`
		RateLimitBurst  float64       `yaml:"rate_limit_burst"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Ledger struct {
		RPCURL        string        `yaml:"rpc_url"`
		Timeout       time.Duration `yaml:"timeout"`
		LookupTimeout time.Duration `yaml:"lookup_timeout"`
		LookupRPS     float64       `yaml:"lookup_rps"`
		LookupBurst   float64       `yaml:"lookup_burst"`
	} `yaml:"ledger"`
	Prices struct {
		APIURL   string        `yaml:"api_url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"prices"`
	Points struct {
		APIURL  string        `yaml:"api_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"points"`
	Signer struct {
		AgentURL     string        `yaml:"agent_url"`
		ProbeTimeout time.Duration `yaml:"probe_timeout"`
		SignTimeout  time.Duration `yaml:"sign_timeout"`
		RedirectURL  string        `yaml:"redirect_url"`
		CustomJSONID string        `yaml:"custom_json_id"`
		Authority    string        `yaml:"authority"`
	} `yaml:"signer"`
	Transfer struct {
		MinAccountLength int           `yaml:"min_account_length"`
		MaxAccountLength int           `yaml:"max_account_length"`
		Exchanges        []string      `yaml:"exchanges"`
		EncryptedMarker  string        `yaml:"encrypted_marker"`
		SessionTTL       time.Duration `yaml:"session_ttl"`
	} `yaml:"transfer"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("LEDGER_RPC_URL"); v != "" {
		c.Ledger.RPCURL = v
	}
	if v := os.Getenv("PRICE_API_URL"); v != "" {
		c.Prices.APIURL = v
	}
	if v := os.Getenv("SIGNER_AGENT_URL"); v != "" {
		c.Signer.AgentURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Prices.Redis.Addr = v
		c.Prices.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("EXCHANGES"); v != "" {
		c.Transfer.Exchanges = strings.Split(v, ",")
	}

	return c, c.Validate()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 3 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.SlowThreshold == 0 {
		c.Server.SlowThreshold = 2 * time.Second
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 20
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 40
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Ledger.Timeout == 0 {
		c.Ledger.Timeout = 10 * time.Second
	}
	if c.Ledger.LookupTimeout == 0 {
		c.Ledger.LookupTimeout = 5 * time.Second
	}
	if c.Ledger.LookupRPS == 0 {
		c.Ledger.LookupRPS = 10
	}
	if c.Ledger.LookupBurst == 0 {
		c.Ledger.LookupBurst = 20
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Prices.Timeout == 0 {
		c.Prices.Timeout = 10 * time.Second
	}
	if c.Prices.CacheTTL == 0 {
		c.Prices.CacheTTL = 5 * time.Minute
	}
	if c.Points.Timeout == 0 {
		c.Points.Timeout = 10 * time.Second
	}
	if c.Signer.ProbeTimeout == 0 {
		c.Signer.ProbeTimeout = 500 * time.Millisecond
	}
	if c.Signer.SignTimeout == 0 {
		c.Signer.SignTimeout = 2 * time.Minute
	}
	if c.Signer.RedirectURL == "" {
		c.Signer.RedirectURL = "https://app.steemconnect.com/sign"
	}
	if c.Signer.CustomJSONID == "" {
		c.Signer.CustomJSONID = "ssc-mainnet1"
	}
	if c.Signer.Authority == "" {
		c.Signer.Authority = "Active"
	}
	if c.Transfer.MinAccountLength == 0 {
		c.Transfer.MinAccountLength = 3
	}
	if c.Transfer.MaxAccountLength == 0 {
		c.Transfer.MaxAccountLength = 16
	}
	if len(c.Transfer.Exchanges) == 0 {
		c.Transfer.Exchanges = []string{
			"bittrex", "blocktrades", "poloniex", "changelly",
			"openledge", "shapeshiftio", "deepcrypto8",
		}
	}
	if c.Transfer.EncryptedMarker == "" {
		c.Transfer.EncryptedMarker = "#"
	}
	if c.Transfer.SessionTTL == 0 {
		c.Transfer.SessionTTL = 30 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Ledger.RPCURL == "" {
		return fmt.Errorf("ledger.rpc_url is required")
	}
	if c.Prices.APIURL == "" {
		return fmt.Errorf("prices.api_url is required")
	}
	if c.Prices.Redis.Enabled && c.Prices.Redis.Addr == "" {
		return fmt.Errorf("prices.redis.addr is required when redis is enabled")
	}
	if c.Transfer.MinAccountLength > c.Transfer.MaxAccountLength {
		return fmt.Errorf("transfer.min_account_length (%d) exceeds max_account_length (%d)",
			c.Transfer.MinAccountLength, c.Transfer.MaxAccountLength)
	}
	if len(c.Transfer.EncryptedMarker) != 1 {
		return fmt.Errorf("transfer.encrypted_marker must be a single character, got '%s'", c.Transfer.EncryptedMarker)
	}
	return nil
}
