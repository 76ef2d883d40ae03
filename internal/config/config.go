package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 配置（床位占用事件推送，默认禁用）
type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
}

// EventsConfig 领域事件投递配置；各通道留空即不启用
type EventsConfig struct {
	RedisStream   string
	WebhookURL    string
	WebhookSecret string
	AMQPURL       string
	AMQPExchange  string
}

// Config payguest-data（HTTP API）配置
type Config struct {
	ServiceName string
	HTTP        struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	// TxTimeout bounds every store transaction; exceeding it yields domain.ErrTimeout.
	TxTimeout time.Duration
	Redis     RedisConfig
	MQTT      MQTTConfig
	Events    EventsConfig
	Log       struct {
		Level  string
		Format string
	}
	IdempotencyTTL time.Duration
}

// Load 从环境变量加载配置；当前目录存在 .env 时先加载（不覆盖已有环境变量）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.ServiceName = getEnv("SERVICE_NAME", "payguest-data")
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// DB 不可用时服务回退到内存 store（本地联调）
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "payguest")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)
	cfg.TxTimeout = parseDuration(getEnv("STORE_TX_TIMEOUT", "5s"), 5*time.Second)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "payguest-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "payguest")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Events.RedisStream = getEnv("EVENTS_REDIS_STREAM", "payguest:events")
	cfg.Events.WebhookURL = getEnv("WEBHOOK_URL", "")
	cfg.Events.WebhookSecret = getEnv("WEBHOOK_SECRET", "")
	cfg.Events.AMQPURL = getEnv("AMQP_URL", "")
	cfg.Events.AMQPExchange = getEnv("AMQP_EXCHANGE", "payguest.events")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.IdempotencyTTL = parseDuration(getEnv("IDEMPOTENCY_TTL", "24h"), 24*time.Hour)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
