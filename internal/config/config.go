package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
	Payments  PaymentsConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	// Driver is "postgres" (lib/pq) or "pgx" (jackc/pgx stdlib).
	Driver          string
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value string built from the parts.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type JWTConfig struct {
	SecretKey string
	TTLHours  int
}

// RedisConfig is optional: an empty Addr disables idempotency-key claiming.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	SalesTopic  string
	OrdersTopic string
	GroupID     string
}

type InventoryConfig struct {
	AutoLinkIngredients bool
}

// MobileMoneyConfig holds one operator's credentials. An empty APIKey leaves
// the operator unregistered.
type MobileMoneyConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Env       string
}

type PaymentsConfig struct {
	MTNMomo MobileMoneyConfig
	Airtel  MobileMoneyConfig
}

// BootstrapConfig seeds the first admin account when none exists.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "development"),
			HTTPPort: getEnv("APP_PORT", "8080"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "restaurant"),
			Password:        getEnv("POSTGRES_PASSWORD", "restaurant"),
			DBName:          getEnv("POSTGRES_DB", "restaurant_pos"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "change-me"),
			TTLHours:  getEnvInt("JWT_TTL_HOURS", 12),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
			Brokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			SalesTopic:  getEnv("KAFKA_TOPIC_SALES", "pos.sales"),
			OrdersTopic: getEnv("KAFKA_TOPIC_ORDERS", "pos.orders"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "inventory-deduction"),
		},
		Inventory: InventoryConfig{
			AutoLinkIngredients: getEnvBool("INGREDIENT_AUTOLINK_ENABLED", true),
		},
		Payments: PaymentsConfig{
			MTNMomo: MobileMoneyConfig{
				APIKey:    getEnv("MTN_MOMO_API_KEY", ""),
				APISecret: getEnv("MTN_MOMO_API_SECRET", ""),
				BaseURL:   getEnv("MTN_MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
				Env:       getEnv("MTN_MOMO_ENV", "sandbox"),
			},
			Airtel: MobileMoneyConfig{
				APIKey:    getEnv("AIRTEL_CLIENT_ID", ""),
				APISecret: getEnv("AIRTEL_CLIENT_SECRET", ""),
				BaseURL:   getEnv("AIRTEL_BASE_URL", "https://openapiuat.airtel.africa"),
				Env:       getEnv("AIRTEL_ENV", "sandbox"),
			},
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}
}

// IsDevelopment reports whether console logging and debug output should be used.
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
