package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	Login   RateLimitBucketConfig `yaml:"login"`
	TempURL RateLimitBucketConfig `yaml:"tempUrl"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port      int    `yaml:"port"`
	RedisAddr string `yaml:"redisAddr"`
	RedisPass string `yaml:"redisPassword"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
	Env       string `yaml:"env"`

	// SigningSecret signs access tokens. It is required, has no default,
	// and must be at least 32 bytes; startup fails otherwise.
	SigningSecret string `yaml:"signingSecret"`

	// LoginSecret is the shared secret clients present to the login
	// endpoints to obtain tokens. Required outside dev.
	LoginSecret string `yaml:"loginSecret"`

	TokenTTLHours        int `yaml:"tokenTtlHours"`
	TempURLTTLMinutes    int `yaml:"tempUrlTtlMinutes"`
	TempURLMaxTTLMinutes int `yaml:"tempUrlMaxTtlMinutes"`

	ImagesDir        string `yaml:"imagesDir"`
	MaxFileSizeBytes int64  `yaml:"maxFileSizeBytes"`
	PublicBaseURL    string `yaml:"publicBaseUrl"`
	SyncOnStartup    bool   `yaml:"syncOnStartup"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoadConfigOptional loads configuration from filePath when it exists and
// falls back to env/defaults otherwise. An unreadable or invalid file is an
// error; a missing one is not.
func LoadConfigOptional(filePath string) (*Config, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		c := &Config{}
		c.applyEnv()
		c.applyDefaults()
		return c, nil
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c := &Config{}
		c.applyEnv()
		c.applyDefaults()
		return c, nil
	}
	return LoadConfig(filePath)
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPass = v
	}
	if v := os.Getenv("SIGNING_SECRET"); v != "" {
		c.SigningSecret = v
	}
	if v := os.Getenv("LOGIN_SECRET"); v != "" {
		c.LoginSecret = v
	}
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TokenTTLHours = n
		}
	}
	if v := os.Getenv("TEMP_URL_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TempURLTTLMinutes = n
		}
	}
	if v := os.Getenv("TEMP_URL_MAX_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TempURLMaxTTLMinutes = n
		}
	}
	if v := os.Getenv("IMAGES_DIR"); v != "" {
		c.ImagesDir = v
	}
	if v := os.Getenv("MAX_FILE_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxFileSizeBytes = n
		}
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.TokenTTLHours <= 0 {
		c.TokenTTLHours = 24
	}
	if c.TempURLTTLMinutes <= 0 {
		c.TempURLTTLMinutes = 10
	}
	if c.TempURLMaxTTLMinutes <= 0 {
		c.TempURLMaxTTLMinutes = 24 * 60
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "./images"
	}
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
}

// Validate enforces startup requirements. The signing secret deliberately
// has no fallback: a missing or short secret means forgeable tokens, so it
// halts startup in every environment.
func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev" || env == "test"

	if strings.TrimSpace(c.SigningSecret) == "" {
		errs = append(errs, "signingSecret is required")
	} else if len(c.SigningSecret) < 32 {
		errs = append(errs, "signingSecret must be at least 32 bytes")
	}
	if strings.TrimSpace(c.LoginSecret) == "" && !dev {
		errs = append(errs, "loginSecret is required in non-dev")
	}
	if c.TempURLMaxTTLMinutes < c.TempURLTTLMinutes {
		errs = append(errs, "tempUrlMaxTtlMinutes must be >= tempUrlTtlMinutes")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
