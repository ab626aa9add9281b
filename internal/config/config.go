package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Persistencia
	SQLitePath  string
	PostgresURL string
	MongoURI    string
	UseMongo    bool

	// Cache
	RedisAddr string
	CacheTTL  time.Duration

	// Broker
	UseKafka          bool
	KafkaBrokers      []string
	ProductTopic      string
	ConversationTopic string

	// Outbox
	OutboxPeriod         time.Duration
	OutboxLimit          int
	OutboxPublishTimeout time.Duration
	OutboxMaxRetries     int
	OutboxRetention      time.Duration
	JanitorPeriod        time.Duration

	// Modelos de extracción de preferencias
	ChatAPIURL   string
	ChatAPIKey   string
	ChatModel    string
	HFAPIURL     string
	HFAPIKey     string
	ModelTimeout time.Duration

	// Servicio de embeddings
	EmbeddingURL     string
	EmbeddingTimeout time.Duration

	// Analítica
	ClickHouseAddr string
	ClickHouseDB   string

	HTTPPort string
	LogLevel string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	getDuration := func(key string, fallback time.Duration) time.Duration {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return fallback
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		SQLitePath:  getEnv("SQLITE_PATH", "./tiendalab.db"),
		PostgresURL: getEnv("POSTGRES_URL", ""),
		MongoURI:    getEnv("MONGO_URI", ""),
		UseMongo:    getEnv("USE_MONGO", "") == "true",

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getDuration("CACHE_TTL", 5*time.Minute),

		UseKafka:          getEnv("USE_KAFKA", "") == "true",
		KafkaBrokers:      kafkaBrokers,
		ProductTopic:      getEnv("KAFKA_TOPIC_PRODUCT", "product-events"),
		ConversationTopic: getEnv("KAFKA_TOPIC_CONVERSATION", "conversation-events"),

		OutboxPeriod:         getDuration("OUTBOX_PERIOD", 200*time.Millisecond),
		OutboxLimit:          getInt("OUTBOX_LIMIT", 500),
		OutboxPublishTimeout: getDuration("OUTBOX_PUBLISH_TIMEOUT", 2*time.Second),
		OutboxMaxRetries:     getInt("OUTBOX_MAX_RETRIES", 3),
		OutboxRetention:      getDuration("OUTBOX_RETENTION", 72*time.Hour),
		JanitorPeriod:        getDuration("OUTBOX_JANITOR_PERIOD", time.Hour),

		ChatAPIURL:   getEnv("CHAT_API_URL", "https://api.openai.com/v1/chat/completions"),
		ChatAPIKey:   getEnv("CHAT_API_KEY", ""),
		ChatModel:    getEnv("CHAT_MODEL", "gpt-4o"),
		HFAPIURL:     getEnv("HF_API_URL", ""),
		HFAPIKey:     getEnv("HF_API_KEY", ""),
		ModelTimeout: getDuration("MODEL_TIMEOUT", 5*time.Second),

		EmbeddingURL:     getEnv("EMBEDDING_URL", "http://localhost:8000"),
		EmbeddingTimeout: getDuration("EMBEDDING_TIMEOUT", 5*time.Second),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "tiendalab"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}
