// Package config loads process configuration from an optional YAML file
// (path in ONBOARD_CONFIG) overlaid by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Server   Server      `yaml:"server"`
	Log      Log         `yaml:"log"`
	Database Database    `yaml:"database"`
	Redis    RedisConfig `yaml:"redis"`
	Kafka    Kafka       `yaml:"kafka"`
	Verifier Verifier    `yaml:"verifier"`
	Issuer   Issuer      `yaml:"issuer"`
	Signing  Signing     `yaml:"signing"`
	Keystore Keystore    `yaml:"keystore"`
	Employer Employer    `yaml:"employer"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `yaml:"addr"`
	// PublicBaseURL is where wallets reach this service (signing retrieval,
	// document download, callbacks).
	PublicBaseURL   string        `yaml:"public_base_url"`
	OperatorToken   string        `yaml:"operator_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Database selects the storage backend. An empty URL keeps everything in memory.
type Database struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig enables the distributed lock. An empty URL uses in-process locks.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
}

// Kafka enables the domain event bridge when Brokers is non-empty.
type Kafka struct {
	Brokers           []string `yaml:"brokers"`
	Topic             string   `yaml:"topic"`
	Partitions        int32    `yaml:"partitions"`
	ReplicationFactor int16    `yaml:"replication_factor"`
}

// OAuth2 configures client-credentials auth towards a backend. Disabled when
// TokenURL is empty.
type OAuth2 struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

type Verifier struct {
	BaseURL      string        `yaml:"base_url"`
	WalletScheme string        `yaml:"wallet_scheme"`
	Timeout      time.Duration `yaml:"timeout"`
	// RedirectBaseURL is the browser page the wallet returns to in the
	// same-device flow.
	RedirectBaseURL string `yaml:"redirect_base_url"`
	OAuth2          OAuth2 `yaml:"oauth2"`
}

type Issuer struct {
	BaseURL                   string        `yaml:"base_url"`
	IssuerID                  string        `yaml:"issuer_id"`
	Audience                  string        `yaml:"audience"`
	CredentialConfigurationID string        `yaml:"credential_configuration_id"`
	OfferTTL                  time.Duration `yaml:"offer_ttl"`
	Timeout                   time.Duration `yaml:"timeout"`
	OAuth2                    OAuth2        `yaml:"oauth2"`
}

type Signing struct {
	ClientID     string        `yaml:"client_id"`
	WalletScheme string        `yaml:"wallet_scheme"`
	RequestTTL   time.Duration `yaml:"request_ttl"`
	DocumentType string        `yaml:"document_type"`
}

// Keystore points at PEM files. Both empty means an ephemeral development key.
type Keystore struct {
	CertificatePath string `yaml:"certificate_path"`
	PrivateKeyPath  string `yaml:"private_key_path"`
}

type Employer struct {
	Name               string `yaml:"name"`
	DefaultCountryCode string `yaml:"default_country_code"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			PublicBaseURL:   "http://localhost:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			LockTTL:      10 * time.Second,
		},
		Kafka: Kafka{Topic: "onboard.domain-events", Partitions: 3, ReplicationFactor: 1},
		Verifier: Verifier{
			BaseURL:      "http://localhost:8081",
			WalletScheme: "eudi-openid4vp://",
			Timeout:      10 * time.Second,
		},
		Issuer: Issuer{
			BaseURL:                   "http://localhost:8082",
			CredentialConfigurationID: "eu.europa.ec.eudi.employee_mdoc",
			OfferTTL:                  24 * time.Hour,
			Timeout:                   10 * time.Second,
		},
		Signing: Signing{
			ClientID:     "localhost",
			WalletScheme: "eudi-openid4vp://",
			RequestTTL:   5 * time.Minute,
			DocumentType: "employment_contract",
		},
		Employer: Employer{Name: "Nordic Maritime Crewing", DefaultCountryCode: "FI"},
	}
}

// Load reads the YAML file named by ONBOARD_CONFIG (if any) over the defaults,
// then applies environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("ONBOARD_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := Parse(raw, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values absent from raw.
func Parse(raw []byte, cfg *Config) error {
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports configuration the process cannot start with.
func (c Config) Validate() error {
	var problems []string
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Server.PublicBaseURL == "" {
		problems = append(problems, "server.public_base_url is required")
	}
	if c.Verifier.BaseURL == "" {
		problems = append(problems, "verifier.base_url is required")
	}
	if c.Issuer.BaseURL == "" {
		problems = append(problems, "issuer.base_url is required")
	}
	if (c.Keystore.CertificatePath == "") != (c.Keystore.PrivateKeyPath == "") {
		problems = append(problems, "keystore.certificate_path and keystore.private_key_path must be set together")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		problems = append(problems, "kafka.topic is required when brokers are set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}

	str("ONBOARD_ADDR", &c.Server.Addr)
	str("ONBOARD_PUBLIC_BASE_URL", &c.Server.PublicBaseURL)
	str("ONBOARD_OPERATOR_TOKEN", &c.Server.OperatorToken)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("DATABASE_URL", &c.Database.URL)
	str("REDIS_URL", &c.Redis.URL)
	dur("REDIS_LOCK_TTL", &c.Redis.LockTTL)
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	if v, ok := lookup("KAFKA_PARTITIONS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			errs = append(errs, fmt.Sprintf("KAFKA_PARTITIONS: %v", err))
		} else {
			c.Kafka.Partitions = int32(n)
		}
	}
	str("VERIFIER_BASE_URL", &c.Verifier.BaseURL)
	str("VERIFIER_WALLET_SCHEME", &c.Verifier.WalletScheme)
	str("VERIFIER_REDIRECT_BASE_URL", &c.Verifier.RedirectBaseURL)
	dur("VERIFIER_TIMEOUT", &c.Verifier.Timeout)
	str("VERIFIER_OAUTH2_TOKEN_URL", &c.Verifier.OAuth2.TokenURL)
	str("VERIFIER_OAUTH2_CLIENT_ID", &c.Verifier.OAuth2.ClientID)
	str("VERIFIER_OAUTH2_CLIENT_SECRET", &c.Verifier.OAuth2.ClientSecret)
	str("ISSUER_BASE_URL", &c.Issuer.BaseURL)
	str("ISSUER_ID", &c.Issuer.IssuerID)
	str("ISSUER_AUDIENCE", &c.Issuer.Audience)
	str("ISSUER_CREDENTIAL_CONFIGURATION_ID", &c.Issuer.CredentialConfigurationID)
	dur("ISSUER_OFFER_TTL", &c.Issuer.OfferTTL)
	dur("ISSUER_TIMEOUT", &c.Issuer.Timeout)
	str("ISSUER_OAUTH2_TOKEN_URL", &c.Issuer.OAuth2.TokenURL)
	str("ISSUER_OAUTH2_CLIENT_ID", &c.Issuer.OAuth2.ClientID)
	str("ISSUER_OAUTH2_CLIENT_SECRET", &c.Issuer.OAuth2.ClientSecret)
	str("SIGNING_CLIENT_ID", &c.Signing.ClientID)
	str("SIGNING_WALLET_SCHEME", &c.Signing.WalletScheme)
	str("KEYSTORE_CERTIFICATE_PATH", &c.Keystore.CertificatePath)
	str("KEYSTORE_PRIVATE_KEY_PATH", &c.Keystore.PrivateKeyPath)
	str("EMPLOYER_NAME", &c.Employer.Name)
	str("EMPLOYER_DEFAULT_COUNTRY_CODE", &c.Employer.DefaultCountryCode)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
