package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/booking-api/internal/email"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/push"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	envPrefix = "booking"
)

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Booking       BookingConfig      `mapstructure:"booking"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Push          PushConfig         `mapstructure:"push"`
	RateLimit     RateLimitConfig    `mapstructure:"ratelimit"`
	CORS          CORSConfig         `mapstructure:"cors"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Outbox        OutboxConfig       `mapstructure:"outbox"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Log           LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	HSTS            bool          `mapstructure:"hsts"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	PoolSize      int           `mapstructure:"pool_size"`
	MinIdleConns  int           `mapstructure:"min_idle_conns"`
	ChannelPrefix string        `mapstructure:"channel_prefix"`
}

type BookingConfig struct {
	ReleaseSlotOnDecline bool `mapstructure:"release_slot_on_decline"`
}

type NotificationConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
}

type PushConfig struct {
	FCM  FCMConfig  `mapstructure:"fcm"`
	SMTP SMTPConfig `mapstructure:"smtp"`
}

type FCMConfig struct {
	ProjectID string `mapstructure:"project_id"`
	// CredentialsFile is a service account key; empty uses application default credentials
	CredentialsFile string        `mapstructure:"credentials_file"`
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxDeliveries   int           `mapstructure:"max_deliveries"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Port      int    `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// overrides are read from BOOKING_* variables, falling back to the bare
// names operators already use for these services
type overrides struct {
	ServerPort     *int    `envconfig:"PORT"`
	DBDriver       *string `envconfig:"DB_DRIVER"`
	DBHost         *string `envconfig:"DB_HOST"`
	DBPort         *int    `envconfig:"DB_PORT"`
	DBUser         *string `envconfig:"DB_USER"`
	DBPassword     *string `envconfig:"DB_PASSWORD"`
	DBName         *string `envconfig:"DB_NAME"`
	DBSSLMode      *string `envconfig:"DB_SSLMODE"`
	RedisURL       *string `envconfig:"REDIS_URL"`
	JWTSecret      *string `envconfig:"JWT_SECRET"`
	FCMProject     *string `envconfig:"FCM_PROJECT_ID"`
	FCMCredentials *string `envconfig:"FCM_CREDENTIALS_FILE"`
	SMTPHost       *string `envconfig:"SMTP_HOST"`
	SMTPUser       *string `envconfig:"SMTP_USERNAME"`
	SMTPPass       *string `envconfig:"SMTP_PASSWORD"`
	LogLevel       *string `envconfig:"LOG_LEVEL"`
	ReleaseSlot    *bool   `envconfig:"RELEASE_SLOT_ON_DECLINE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.hsts", true)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "booking")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.issuer", "booking-api")
	v.SetDefault("jwt.token_ttl", 24*time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.channel_prefix", "booking")

	v.SetDefault("booking.release_slot_on_decline", true)

	v.SetDefault("notifications.workers", 4)
	v.SetDefault("notifications.queue_size", 256)
	v.SetDefault("notifications.retry_attempts", 3)
	v.SetDefault("notifications.retry_delay", 500*time.Millisecond)
	v.SetDefault("notifications.delivery_timeout", 10*time.Second)

	v.SetDefault("push.fcm.endpoint", "https://fcm.googleapis.com")
	v.SetDefault("push.fcm.timeout", 5*time.Second)
	v.SetDefault("push.smtp.port", 587)

	v.SetDefault("ratelimit.requests_per_second", 10)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("ratelimit.idle_ttl", 10*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("outbox.batch_size", 100)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	v.SetDefault("outbox.max_deliveries", 5)
	v.SetDefault("outbox.retention", 7*24*time.Hour)
	v.SetDefault("outbox.cleanup_interval", time.Hour)

	v.SetDefault("metrics.namespace", "booking")
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
}

// LoadConfig builds the configuration from defaults, an optional
// config.yml, an optional .env file and the environment, in that order
// of increasing precedence. CONFIG_FILE names an explicit file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env overrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	env.apply(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (o overrides) apply(c *Config) {
	setInt(&c.Server.Port, o.ServerPort)
	setString(&c.Database.Driver, o.DBDriver)
	setString(&c.Database.Host, o.DBHost)
	setInt(&c.Database.Port, o.DBPort)
	setString(&c.Database.User, o.DBUser)
	setString(&c.Database.Password, o.DBPassword)
	setString(&c.Database.Name, o.DBName)
	setString(&c.Database.SSLMode, o.DBSSLMode)
	setString(&c.Redis.URL, o.RedisURL)
	setString(&c.JWT.Secret, o.JWTSecret)
	setString(&c.Push.FCM.ProjectID, o.FCMProject)
	setString(&c.Push.FCM.CredentialsFile, o.FCMCredentials)
	setString(&c.Push.SMTP.Host, o.SMTPHost)
	setString(&c.Push.SMTP.Username, o.SMTPUser)
	setString(&c.Push.SMTP.Password, o.SMTPPass)
	setString(&c.Log.Level, o.LogLevel)
	if o.ReleaseSlot != nil {
		c.Booking.ReleaseSlotOnDecline = *o.ReleaseSlot
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func (c *DatabaseConfig) ToPostgresConfig() postgres.Config {
	return postgres.Config{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

func (c *JWTConfig) ToAuthConfig() auth.JWTConfig {
	return auth.JWTConfig{Secret: c.Secret, Issuer: c.Issuer, TokenTTL: c.TokenTTL}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:           c.URL,
		MaxRetries:    c.MaxRetries,
		RetryBackoff:  c.RetryBackoff,
		PoolSize:      c.PoolSize,
		MinIdleConns:  c.MinIdleConns,
		ChannelPrefix: c.ChannelPrefix,
	}
}

func (c *NotificationConfig) ToPoolConfig() worker.PoolConfig {
	return worker.PoolConfig{
		Workers:     c.Workers,
		QueueSize:   c.QueueSize,
		TaskTimeout: c.DeliveryTimeout,
	}
}

func (c *FCMConfig) Enabled() bool {
	return c.ProjectID != "" || c.CredentialsFile != ""
}

func (c *FCMConfig) ToSenderConfig() push.FCMConfig {
	return push.FCMConfig{
		ProjectID:       c.ProjectID,
		CredentialsFile: c.CredentialsFile,
		Endpoint:        c.Endpoint,
		Timeout:         c.Timeout,
	}
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func (c *SMTPConfig) ToEmailConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}

func (c *RateLimitConfig) ToMiddlewareConfig() middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		RPS:     c.RequestsPerSecond,
		Burst:   c.Burst,
		IdleTTL: c.IdleTTL,
	}
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		MaxDeliveries: c.MaxDeliveries,
	}
}

func (c *LogConfig) ToLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:      logger.ParseLevel(c.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		JSON:       c.JSON,
	}
}
