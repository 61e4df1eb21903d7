package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "PORT", "CORS_ORIGINS", "RESERVATION_TTL_SEC",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_KEY_PREFIX", "CACHE_TTL_SEC",
		"KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DatabaseURL != defaultDatabaseURL {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.ReservationTTL != 30*time.Minute {
		t.Errorf("ReservationTTL = %v, want 30m", cfg.ReservationTTL)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v, want nil", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "shop.reservations" {
		t.Errorf("KafkaTopic = %q", cfg.KafkaTopic)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://prod:prod@db:5432/shop")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://zglowawpiorach.pl, https://www.zglowawpiorach.pl")
	t.Setenv("RESERVATION_TTL_SEC", "600")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg := Load()

	if cfg.DatabaseURL != "postgres://prod:prod@db:5432/shop" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	wantOrigins := []string{"https://zglowawpiorach.pl", "https://www.zglowawpiorach.pl"}
	if !reflect.DeepEqual(cfg.CORSOrigins, wantOrigins) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, wantOrigins)
	}
	if cfg.ReservationTTL != 10*time.Minute {
		t.Errorf("ReservationTTL = %v, want 10m", cfg.ReservationTTL)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	wantBrokers := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(cfg.KafkaBrokers, wantBrokers) {
		t.Errorf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, wantBrokers)
	}
}

func TestLoadBadInts(t *testing.T) {
	t.Setenv("RESERVATION_TTL_SEC", "not-a-number")
	t.Setenv("CACHE_TTL_SEC", "")

	cfg := Load()

	if cfg.ReservationTTL != 30*time.Minute {
		t.Errorf("ReservationTTL = %v, want the default on a bad value", cfg.ReservationTTL)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want the default", cfg.CacheTTL)
	}
}
