package cmd

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPPort string
	Storage  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	KafkaHost                   string
	KafkaConsumerGroup          string
	KafkaCheckoutConfirmedTopic string
	KafkaOrderChangedTopic      string
	KafkaNotificationsTopic     string

	RoutingURL     string
	RoutingTimeout time.Duration
	RouteMaxAge    time.Duration

	LLMURL     string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration

	JWTSecret     string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string
}

// DSN is the libpq connection string for the configured database.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSslMode),
	}
	return u.String()
}

// KafkaBrokers splits KafkaHost on commas.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage)
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AdminUser == "" || c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_USER and ADMIN_PASSWORD are required")
	}
	if c.RoutingURL == "" {
		return fmt.Errorf("ROUTING_URL is required")
	}
	if c.Storage == StoragePostgres && (c.DBHost == "" || c.DBName == "") {
		return fmt.Errorf("DB_HOST and DB_NAME are required for postgres storage")
	}
	if len(c.KafkaBrokers()) > 0 && c.KafkaConsumerGroup == "" {
		return fmt.Errorf("KAFKA_CONSUMER_GROUP is required when KAFKA_HOST is set")
	}
	return nil
}
