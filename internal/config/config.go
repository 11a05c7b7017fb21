package config

import (
	"errors"
	"fmt"
	"time"
)

type AppConfig struct {
	Env                    string `mapstructure:"env"`
	Port                   int    `mapstructure:"port"`
	JWTSecret              string `mapstructure:"jwt_secret"`
	TokenTTLMinutes        int    `mapstructure:"token_ttl_minutes"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Transactions   bool   `mapstructure:"transactions"`
}

type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Pass               string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	Prefix             string `mapstructure:"prefix"`
	PresenceTTLSeconds int    `mapstructure:"presence_ttl_seconds"`
}

type KafkaConfig struct {
	Brokers               []string `mapstructure:"brokers"`
	TopicMessageSent      string   `mapstructure:"topic_message_sent"`
	TopicConnectionEvents string   `mapstructure:"topic_connection_events"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
	AuthTimeoutSeconds   int   `mapstructure:"auth_timeout_seconds"`
	SendBuffer           int   `mapstructure:"send_buffer"`
	MessagesPerSecond    int   `mapstructure:"messages_per_second"`
}

type RateLimitConfig struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type ConnectionsConfig struct {
	AllowRequestAfterReject bool `mapstructure:"allow_request_after_reject"`
}

type ConsulConfig struct {
	Addr           string `mapstructure:"addr"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceAddress string `mapstructure:"service_address"`
}

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Log         LogConfig         `mapstructure:"log"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	WS          WSConfig          `mapstructure:"ws"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Connections ConnectionsConfig `mapstructure:"connections"`
	Consul      ConsulConfig      `mapstructure:"consul"`

	// derived/timeouts
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
	MongoTimeout    time.Duration
	PresenceTTL     time.Duration
	PingInterval    time.Duration
	WriteDeadline   time.Duration
	AuthTimeout     time.Duration
	RateLimitWindow time.Duration
}

func (a AppConfig) Addr() string { return fmt.Sprintf(":%d", a.Port) }

func (a AppConfig) Development() bool { return a.Env == "development" }

func (c *Config) derive() {
	c.TokenTTL = time.Duration(c.App.TokenTTLMinutes) * time.Minute
	c.ShutdownTimeout = time.Duration(c.App.ShutdownTimeoutSeconds) * time.Second
	c.MongoTimeout = time.Duration(c.Mongo.TimeoutSeconds) * time.Second
	c.PresenceTTL = time.Duration(c.Redis.PresenceTTLSeconds) * time.Second
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.AuthTimeout = time.Duration(c.WS.AuthTimeoutSeconds) * time.Second
	c.RateLimitWindow = time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

func (c *Config) validate() error {
	if c.App.JWTSecret == "" {
		return errors.New("app.jwt_secret is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port %d out of range", c.App.Port)
	}
	if c.WS.MaxMessageSizeBytes <= 0 {
		return errors.New("ws.max_message_size_bytes must be positive")
	}
	if c.WS.SendBuffer <= 0 {
		return errors.New("ws.send_buffer must be positive")
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("mongo.uri and mongo.database are required")
	}
	return nil
}
