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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  postgresDsn: "host=db user=postgres dbname=kyc sslmode=disable"
`)
	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", conf.Server.Listen)
	assert.Equal(t, CacheMemory, conf.Compliance.CacheBackend)

	th, err := conf.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 25.0, th.Significant)
	assert.Equal(t, 50.0, th.Controlling)
	assert.Equal(t, 6, th.FreshnessMonths)

	ttl, err := conf.CacheTTL()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  postgresDsn: "from-file"
  listen: ":9000"
compliance:
  significantControlThreshold: 10
  controllingThreshold: 50
  verificationFreshnessMonths: 3
`)
	t.Setenv("KYC_POSTGRES_DSN", "from-env")
	t.Setenv("KYC_REDIS_ADDR", "redis:6379")
	t.Setenv("KYC_CACHE_BACKEND", CacheRedis)
	t.Setenv("KYC_LOG_LEVEL", "debug")

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", conf.Server.PostgresDsn)
	assert.Equal(t, ":9000", conf.Server.Listen)
	assert.Equal(t, "debug", conf.Server.LogLevel)
	assert.Equal(t, CacheRedis, conf.Compliance.CacheBackend)
	assert.Equal(t, 10.0, conf.Compliance.SignificantControlThreshold)

	th, err := conf.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 3, th.FreshnessMonths)
}

func TestFreshnessMonthsFromEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  postgresDsn: "x"
`)
	t.Setenv("KYC_VERIFICATION_FRESHNESS_MONTHS", "12")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, conf.Compliance.VerificationFreshnessMonths)

	t.Setenv("KYC_VERIFICATION_FRESHNESS_MONTHS", "a year")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"missing dsn": `
server:
  listen: ":8000"
`,
		"inverted thresholds": `
server:
  postgresDsn: "x"
compliance:
  significantControlThreshold: 60
  controllingThreshold: 50
`,
		"negative freshness": `
server:
  postgresDsn: "x"
compliance:
  verificationFreshnessMonths: -1
`,
		"redis without address": `
server:
  postgresDsn: "x"
compliance:
  cacheBackend: redis
`,
		"bad ttl": `
server:
  postgresDsn: "x"
compliance:
  summaryCacheTTL: "soon"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
