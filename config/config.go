package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the portal.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Autolab   AutolabConfig   `mapstructure:"autolab"`
	Tango     TangoConfig     `mapstructure:"tango"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	GAT       GATConfig       `mapstructure:"gat"`
	Log       LogConfig       `mapstructure:"log"`
	Feature   FeatureConfig   `mapstructure:"feature"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL settings.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig session and API key settings.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	EmailDomain    string        `mapstructure:"email_domain"`
	UserAPIKeyHash string        `mapstructure:"user_api_key_hash"` // bcrypt hash
	Cookie         CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig session cookie settings.
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// AutolabConfig connection to the learning platform.
type AutolabConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	ClientID         string        `mapstructure:"client_id"`
	ClientSecret     string        `mapstructure:"client_secret"`
	RedirectURI      string        `mapstructure:"redirect_uri"`
	RefreshTokenFile string        `mapstructure:"refresh_token_file"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// TangoConfig autograding backend queried for submission activity. An
// empty host disables the histogram endpoint.
type TangoConfig struct {
	Host        string        `mapstructure:"host"`
	Key         string        `mapstructure:"key"`
	MaxPollRate time.Duration `mapstructure:"max_poll_rate"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig TTLs of cached platform reads.
type CacheConfig struct {
	UserCoursesTTL time.Duration `mapstructure:"user_courses_ttl"`
	CourseUsersTTL time.Duration `mapstructure:"course_users_ttl"`
	AssessmentsTTL time.Duration `mapstructure:"assessments_ttl"`
	SubmissionsTTL time.Duration `mapstructure:"submissions_ttl"`
}

// RateLimitConfig per-user request windows.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Window  time.Duration `mapstructure:"window"`
	Read    int           `mapstructure:"read"`  // requests per window on read routes
	Write   int           `mapstructure:"write"` // requests per window on mutating routes
}

// GATConfig grading assignment tool settings.
type GATConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// LogConfig logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureConfig feature switches.
type FeatureConfig struct {
	DeveloperMode bool `mapstructure:"developer_mode"`
	Metrics       bool `mapstructure:"metrics"`
}

// Load reads configuration.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 5<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "autolab_portal")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/New_York")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.email_domain", "buffalo.edu")
	v.SetDefault("auth.cookie.name", "portal_session")
	v.SetDefault("auth.cookie.secure", true)
	v.SetDefault("auth.cookie.same_site", "Lax")

	v.SetDefault("autolab.base_url", "https://autolab.cse.buffalo.edu")
	v.SetDefault("autolab.refresh_token_file", "autolab_refresh_token.txt")
	v.SetDefault("autolab.timeout", "20s")

	v.SetDefault("tango.max_poll_rate", "10s")
	v.SetDefault("tango.timeout", "10s")

	v.SetDefault("cache.user_courses_ttl", "60s")
	v.SetDefault("cache.course_users_ttl", "60s")
	v.SetDefault("cache.assessments_ttl", "60s")
	v.SetDefault("cache.submissions_ttl", "10s")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", "5s")
	v.SetDefault("rate_limit.read", 5)
	v.SetDefault("rate_limit.write", 1)

	v.SetDefault("gat.lock_ttl", "2m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("feature.developer_mode", false)
	v.SetDefault("feature.metrics", true)

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings the portal cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must be set")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Autolab.BaseURL == "" {
		return fmt.Errorf("invalid config: autolab.base_url must be set")
	}
	for name, ttl := range map[string]time.Duration{
		"cache.user_courses_ttl": c.Cache.UserCoursesTTL,
		"cache.course_users_ttl": c.Cache.CourseUsersTTL,
		"cache.assessments_ttl":  c.Cache.AssessmentsTTL,
		"cache.submissions_ttl":  c.Cache.SubmissionsTTL,
	} {
		if ttl <= 0 {
			return fmt.Errorf("invalid config: %s must be positive", name)
		}
	}
	if c.Tango.Host != "" && c.Tango.Key == "" {
		return fmt.Errorf("invalid config: tango.key must be set when tango.host is")
	}
	if c.GAT.LockTTL <= 0 {
		return fmt.Errorf("invalid config: gat.lock_ttl must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Window <= 0 || c.RateLimit.Read <= 0 || c.RateLimit.Write <= 0) {
		return fmt.Errorf("invalid config: rate_limit window and limits must be positive when enabled")
	}
	return nil
}
