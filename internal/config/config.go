package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/totegamma/kycgraph/internal/domain"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Compliance Compliance `yaml:"compliance"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	LogLevel      string `yaml:"logLevel"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	AutoMigrate   bool   `yaml:"autoMigrate"`
}

type Compliance struct {
	SignificantControlThreshold float64 `yaml:"significantControlThreshold"`
	ControllingThreshold        float64 `yaml:"controllingThreshold"`
	VerificationFreshnessMonths int     `yaml:"verificationFreshnessMonths"`
	SummaryCacheTTL             string  `yaml:"summaryCacheTTL"`
	CacheBackend                string  `yaml:"cacheBackend"` // memory, redis, memcached
}

const (
	CacheMemory    = "memory"
	CacheRedis     = "redis"
	CacheMemcached = "memcached"
)

func Default() Config {
	return Config{
		Server: Server{
			Listen:   ":8000",
			LogLevel: "info",
		},
		Compliance: Compliance{
			SignificantControlThreshold: domain.SignificantControlThreshold,
			ControllingThreshold:        domain.ControllingThreshold,
			VerificationFreshnessMonths: domain.VerificationFreshnessMonths,
			SummaryCacheTTL:             "5m",
			CacheBackend:                CacheMemory,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies a .env
// file if present and the KYC_* environment overrides. An empty path skips
// the file.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "open config")
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "decode config")
		}
	}

	_ = godotenv.Load()
	if err := config.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("KYC_POSTGRES_DSN"); ok {
		c.Server.PostgresDsn = v
	}
	if v, ok := os.LookupEnv("KYC_REDIS_ADDR"); ok {
		c.Server.RedisAddr = v
	}
	if v, ok := os.LookupEnv("KYC_MEMCACHED_ADDR"); ok {
		c.Server.MemcachedAddr = v
	}
	if v, ok := os.LookupEnv("KYC_LISTEN"); ok {
		c.Server.Listen = v
	}
	if v, ok := os.LookupEnv("KYC_LOG_LEVEL"); ok {
		c.Server.LogLevel = v
	}
	if v, ok := os.LookupEnv("KYC_CACHE_BACKEND"); ok {
		c.Compliance.CacheBackend = v
	}
	if v, ok := os.LookupEnv("KYC_VERIFICATION_FRESHNESS_MONTHS"); ok {
		months, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "KYC_VERIFICATION_FRESHNESS_MONTHS")
		}
		c.Compliance.VerificationFreshnessMonths = months
	}
	if v, ok := os.LookupEnv("KYC_ENABLE_TRACE"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "KYC_ENABLE_TRACE")
		}
		c.Server.EnableTrace = enabled
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.PostgresDsn == "" {
		return errors.New("server.postgresDsn is required")
	}
	if _, err := c.Thresholds(); err != nil {
		return errors.Wrap(err, "compliance thresholds")
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	switch c.Compliance.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.Server.RedisAddr == "" {
			return errors.New("server.redisAddr is required for the redis cache backend")
		}
	case CacheMemcached:
		if c.Server.MemcachedAddr == "" {
			return errors.New("server.memcachedAddr is required for the memcached cache backend")
		}
	default:
		return errors.Errorf("unknown cache backend %q", c.Compliance.CacheBackend)
	}
	return nil
}

func (c Config) Thresholds() (domain.ControlThresholds, error) {
	t := domain.ControlThresholds{
		Significant:     c.Compliance.SignificantControlThreshold,
		Controlling:     c.Compliance.ControllingThreshold,
		FreshnessMonths: c.Compliance.VerificationFreshnessMonths,
	}
	return t, t.Validate()
}

func (c Config) CacheTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Compliance.SummaryCacheTTL)
	if err != nil || ttl <= 0 {
		return 0, errors.Errorf("invalid compliance.summaryCacheTTL %q", c.Compliance.SummaryCacheTTL)
	}
	return ttl, nil
}
