package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/shopspring/decimal"

	"github.com/yungbote/boostcart-backend/internal/data/db"
	"github.com/yungbote/boostcart-backend/internal/events"
	"github.com/yungbote/boostcart-backend/internal/platform/envutil"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type Config struct {
	Port    string `default:"8080"`
	LogMode string `default:"development"`

	DB DBConfig

	JWTSecretKey   string
	TaxDefaultRate string `default:"0.18"`
	SnowflakeNode  int64  `default:"0"`
	CORSOrigins    []string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int           `default:"0"`
	IdempotencyTTL time.Duration `default:"24h"`

	EventsBackend string        `default:"none"`
	EventsChannel string        `default:"order_events"`
	KafkaBrokers  []string
	KafkaTopic    string        `default:"order-events"`
	NotifyTimeout time.Duration `default:"5s"`

	CheckoutRatePerMinute float64 `default:"10"`
	CheckoutBurst         int     `default:"3"`

	MetricsAddr string `default:":9090"`
}

type DBConfig struct {
	Driver       string `default:"postgres"`
	Host         string `default:"localhost"`
	Port         string `default:"5432"`
	User         string `default:"postgres"`
	Password     string
	Name         string `default:"boostcart"`
	SSLMode      string `default:"disable"`
	SQLitePath   string
	MaxOpenConns int           `default:"20"`
	MaxIdleConns int           `default:"5"`
	ConnMaxLife  time.Duration `default:"30m"`
}

func (c DBConfig) toDB() db.Config {
	return db.Config{
		Driver:           c.Driver,
		PostgresHost:     c.Host,
		PostgresPort:     c.Port,
		PostgresUser:     c.User,
		PostgresPassword: c.Password,
		PostgresName:     c.Name,
		PostgresSSLMode:  c.SSLMode,
		SQLitePath:       c.SQLitePath,
		MaxOpenConns:     c.MaxOpenConns,
		MaxIdleConns:     c.MaxIdleConns,
		ConnMaxLife:      c.ConnMaxLife,
	}
}

// LoadConfig applies struct defaults, then environment overrides.
func LoadConfig(log *logger.Logger) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("config defaults: %w", err)
	}

	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)

	cfg.DB.Driver = envutil.String("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.Host = envutil.String("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envutil.String("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envutil.String("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Password = envutil.String("POSTGRES_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = envutil.String("POSTGRES_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)
	cfg.DB.MaxOpenConns = envutil.Int("POSTGRES_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = envutil.Int("POSTGRES_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.ConnMaxLife = envutil.Seconds("POSTGRES_CONN_MAX_LIFE_SECONDS", cfg.DB.ConnMaxLife)

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.TaxDefaultRate = envutil.String("TAX_DEFAULT_RATE", cfg.TaxDefaultRate)
	cfg.SnowflakeNode = int64(envutil.Int("SNOWFLAKE_NODE", int(cfg.SnowflakeNode)))
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envutil.String("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = envutil.Int("REDIS_DB", cfg.RedisDB)
	cfg.IdempotencyTTL = envutil.Seconds("IDEMPOTENCY_TTL_SECONDS", cfg.IdempotencyTTL)

	cfg.EventsBackend = strings.ToLower(envutil.String("ORDER_EVENTS_BACKEND", cfg.EventsBackend))
	cfg.EventsChannel = envutil.String("ORDER_EVENTS_CHANNEL", cfg.EventsChannel)
	cfg.KafkaBrokers = envutil.List("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envutil.String("KAFKA_ORDER_TOPIC", cfg.KafkaTopic)
	cfg.NotifyTimeout = envutil.Seconds("NOTIFY_TIMEOUT_SECONDS", cfg.NotifyTimeout)

	cfg.CheckoutRatePerMinute = envutil.Float("CHECKOUT_RATE_PER_MINUTE", cfg.CheckoutRatePerMinute)
	cfg.CheckoutBurst = envutil.Int("CHECKOUT_BURST", cfg.CheckoutBurst)

	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if log != nil {
		log.Info("config loaded",
			"port", cfg.Port,
			"db_driver", cfg.DB.Driver,
			"events_backend", cfg.EventsBackend,
			"redis", cfg.RedisAddr != "",
		)
	}
	return cfg, nil
}

func (c Config) TaxRate() decimal.Decimal {
	return decimal.RequireFromString(c.TaxDefaultRate)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := decimal.NewFromString(c.TaxDefaultRate); err != nil {
		return fmt.Errorf("TAX_DEFAULT_RATE %q: %w", c.TaxDefaultRate, err)
	}
	switch c.EventsBackend {
	case events.BackendNone, events.BackendRedis, events.BackendKafka:
	default:
		return fmt.Errorf("unsupported ORDER_EVENTS_BACKEND %q", c.EventsBackend)
	}
	if c.EventsBackend == events.BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("ORDER_EVENTS_BACKEND=redis requires REDIS_ADDR")
	}
	if c.EventsBackend == events.BackendKafka && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("ORDER_EVENTS_BACKEND=kafka requires KAFKA_BROKERS")
	}
	return nil
}

// envLogMode is read before the config so the config loader itself can log.
func envLogMode() string {
	return envutil.String("LOG_MODE", "development")
}
