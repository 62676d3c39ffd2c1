package app

import (
	"testing"
	"time"

	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.DB.Driver != "postgres" || cfg.EventsBackend != "none" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IdempotencyTTL != 24*time.Hour || cfg.NotifyTimeout != 5*time.Second || cfg.DB.ConnMaxLife != 30*time.Minute {
		t.Fatalf("duration defaults: ttl=%s notify=%s life=%s", cfg.IdempotencyTTL, cfg.NotifyTimeout, cfg.DB.ConnMaxLife)
	}
	if cfg.TaxRate().String() != "0.18" {
		t.Fatalf("tax default: %s", cfg.TaxRate())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TAX_DEFAULT_RATE", "0.2")
	t.Setenv("ORDER_EVENTS_BACKEND", "KAFKA")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "2")
	t.Setenv("CHECKOUT_RATE_PER_MINUTE", "30")
	t.Setenv("SNOWFLAKE_NODE", "7")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9000" || cfg.DB.Driver != "sqlite" || cfg.TaxDefaultRate != "0.2" {
		t.Fatalf("overrides: %+v", cfg)
	}
	if cfg.EventsBackend != "kafka" || len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("kafka: backend=%s brokers=%v", cfg.EventsBackend, cfg.KafkaBrokers)
	}
	if cfg.NotifyTimeout != 2*time.Second || cfg.CheckoutRatePerMinute != 30 || cfg.SnowflakeNode != 7 {
		t.Fatalf("numeric overrides: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":        {"JWT_SECRET_KEY": ""},
		"bad tax":               {"JWT_SECRET_KEY": "s", "TAX_DEFAULT_RATE": "abc"},
		"unknown backend":       {"JWT_SECRET_KEY": "s", "ORDER_EVENTS_BACKEND": "sqs"},
		"redis without addr":    {"JWT_SECRET_KEY": "s", "ORDER_EVENTS_BACKEND": "redis"},
		"kafka without brokers": {"JWT_SECRET_KEY": "s", "ORDER_EVENTS_BACKEND": "kafka"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(logger.Nop()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
