package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		HTTPPort:      "8080",
		Storage:       StorageMemory,
		RoutingURL:    "http://osrm:5000",
		JWTSecret:     "signing-key",
		AdminUser:     "console",
		AdminPassword: "password",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"memory storage", func(*Config) {}, ""},
		{"unknown storage", func(c *Config) { c.Storage = "mongo" }, "STORAGE"},
		{"postgres without host", func(c *Config) { c.Storage = StoragePostgres }, "DB_HOST"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"missing admin", func(c *Config) { c.AdminPassword = "" }, "ADMIN_USER"},
		{"kafka without group", func(c *Config) { c.KafkaHost = "kafka:9092" }, "KAFKA_CONSUMER_GROUP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "dispatch",
		DBPassword: "p@ss word",
		DBName:     "gas",
		DBSslMode:  "disable",
	}

	assert.Equal(t, "postgres://dispatch:p%40ss%20word@db:5432/gas?sslmode=disable", cfg.DSN())
}

func TestConfig_KafkaBrokers(t *testing.T) {
	cfg := Config{KafkaHost: " kafka-1:9092, ,kafka-2:9092"}

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers())
	assert.Empty(t, Config{}.KafkaBrokers())
}
