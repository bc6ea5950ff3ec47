package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverlaysDefaults(t *testing.T) {
	cfg := Default()
	raw := []byte(`
server:
  addr: ":9090"
verifier:
  base_url: "https://verifier.example"
  timeout: 3s
kafka:
  brokers: ["kafka:9092"]
`)
	require.NoError(t, Parse(raw, &cfg))

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://verifier.example", cfg.Verifier.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Verifier.Timeout)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "onboard.domain-events", cfg.Kafka.Topic, "unset keys keep their default")
	assert.Equal(t, "eudi-openid4vp://", cfg.Verifier.WalletScheme)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ONBOARD_ADDR":        ":7000",
		"KAFKA_BROKERS":       "a:9092, b:9092,",
		"ISSUER_OFFER_TTL":    "1h",
		"DATABASE_URL":        "postgres://localhost/onboard",
		"SIGNING_CLIENT_ID":   "onboard.example",
		"EMPLOYER_NAME":       "",
		"KAFKA_PARTITIONS":    "6",
		"VERIFIER_TIMEOUT":    "250ms",
		"REDIS_URL":           "redis://localhost:6379/0",
		"ONBOARD_CONFIG_NOPE": "ignored",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Issuer.OfferTTL)
	assert.Equal(t, "postgres://localhost/onboard", cfg.Database.URL)
	assert.Equal(t, "onboard.example", cfg.Signing.ClientID)
	assert.Equal(t, "Nordic Maritime Crewing", cfg.Employer.Name, "empty values do not override")
	assert.Equal(t, int32(6), cfg.Kafka.Partitions)
	assert.Equal(t, 250*time.Millisecond, cfg.Verifier.Timeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestApplyEnvRejectsBadDurations(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		if k == "ISSUER_OFFER_TTL" {
			return "soon", true
		}
		return "", false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ISSUER_OFFER_TTL")
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, Default().Validate())
	})

	t.Run("keystore paths must come in pairs", func(t *testing.T) {
		cfg := Default()
		cfg.Keystore.CertificatePath = "/etc/onboard/cert.pem"
		require.Error(t, cfg.Validate())
	})

	t.Run("missing verifier url", func(t *testing.T) {
		cfg := Default()
		cfg.Verifier.BaseURL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verifier.base_url")
	})
}
