package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "NEXUS"

// getenv is swapped in tests.
var getenv = os.Getenv

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")
	v.SetDefault("app.port", 5000)
	v.SetDefault("app.jwt_secret", "")
	v.SetDefault("app.token_ttl_minutes", 7*24*60)
	v.SetDefault("app.shutdown_timeout_seconds", 10)

	v.SetDefault("log.level", "info")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "business_nexus")
	v.SetDefault("mongo.timeout_seconds", 3)
	v.SetDefault("mongo.transactions", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "nexus")
	v.SetDefault("redis.presence_ttl_seconds", 24*60*60)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_message_sent", "message.sent")
	v.SetDefault("kafka.topic_connection_events", "connection.events")

	v.SetDefault("ws.ping_interval_seconds", 25)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 65536)
	v.SetDefault("ws.auth_timeout_seconds", 5)
	v.SetDefault("ws.send_buffer", 64)
	v.SetDefault("ws.messages_per_second", 20)

	v.SetDefault("ratelimit.limit", 120)
	v.SetDefault("ratelimit.window_seconds", 60)

	v.SetDefault("connections.allow_request_after_reject", true)

	v.SetDefault("consul.addr", "")
	v.SetDefault("consul.service_name", "business-nexus")
	v.SetDefault("consul.service_address", "")
}

// Load reads configuration from path (optional; CONFIG_PATH when empty),
// a .env file in the working directory, and NEXUS_* environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	// viper does not split env-provided lists.
	if raw := getenv(envPrefix + "_KAFKA_BROKERS"); raw != "" {
		c.Kafka.Brokers = splitList(raw)
	}
	c.derive()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
