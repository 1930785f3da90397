package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIELDCOUNTER_"

// Defaults returns the configuration used before any file or environment
// overrides are applied.
func Defaults() Config {
	return Config{
		PubSubSystem:       "channel",
		InputQueue:         "input",
		CounterName:        "field-value-counter",
		CounterStore:       StoreMemory,
		KafkaConsumerGroup: "field-value-counter",
		HTTPServerAddress:  ":8080",
		LogBackend:         "slog",
		LogLevel:           "info",
		MetricsPort:        9090,
		WebUIPort:          8081,
	}
}

// Load builds a Config from defaults, an optional YAML file and FIELDCOUNTER_*
// environment variables, in that order. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays FIELDCOUNTER_* variables onto cfg. Every malformed value
// is reported; fields with malformed values keep their previous setting.
func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + name)) }
	intVar := func(dst *int, name string) {
		v, err := envInt(EnvPrefix+name, env(name), *dst)
		errs = append(errs, err)
		*dst = v
	}
	durationVar := func(dst *time.Duration, name string) {
		v, err := envDuration(EnvPrefix+name, env(name), *dst)
		errs = append(errs, err)
		*dst = v
	}
	boolVar := func(dst *bool, name string) {
		v, err := envBool(EnvPrefix+name, env(name), *dst)
		errs = append(errs, err)
		*dst = v
	}

	cfg.PubSubSystem = envOrDefault(env("TRANSPORT"), cfg.PubSubSystem)
	cfg.InputQueue = envOrDefault(env("INPUT"), cfg.InputQueue)
	cfg.FieldName = envOrDefault(env("FIELD_NAME"), cfg.FieldName)
	cfg.NameExpression = envOrDefault(env("NAME_EXPRESSION"), cfg.NameExpression)
	cfg.CounterName = envOrDefault(env("NAME"), cfg.CounterName)
	cfg.CounterStore = envOrDefault(env("COUNTER_STORE"), cfg.CounterStore)
	boolVar(&cfg.MirrorToPrometheus, "MIRROR_TO_PROMETHEUS")
	cfg.RedisURL = envOrDefault(env("REDIS_URL"), cfg.RedisURL)
	cfg.PostgresURL = envOrDefault(env("POSTGRES_URL"), cfg.PostgresURL)
	cfg.KafkaBrokers = envCSV(env("KAFKA_BROKERS"), cfg.KafkaBrokers)
	cfg.KafkaClientID = envOrDefault(env("KAFKA_CLIENT_ID"), cfg.KafkaClientID)
	cfg.KafkaConsumerGroup = envOrDefault(env("KAFKA_CONSUMER_GROUP"), cfg.KafkaConsumerGroup)
	cfg.RabbitMQURL = envOrDefault(env("RABBITMQ_URL"), cfg.RabbitMQURL)
	cfg.NATSURL = envOrDefault(env("NATS_URL"), cfg.NATSURL)
	cfg.HTTPServerAddress = envOrDefault(env("HTTP_SERVER_ADDRESS"), cfg.HTTPServerAddress)
	cfg.HTTPPublisherURL = envOrDefault(env("HTTP_PUBLISHER_URL"), cfg.HTTPPublisherURL)
	cfg.PoisonQueue = envOrDefault(env("POISON_QUEUE"), cfg.PoisonQueue)
	cfg.AWSRegion = envOrDefault(env("AWS_REGION"), cfg.AWSRegion)
	cfg.AWSAccountID = envOrDefault(env("AWS_ACCOUNT_ID"), cfg.AWSAccountID)
	cfg.AWSAccessKeyID = envOrDefault(env("AWS_ACCESS_KEY_ID"), cfg.AWSAccessKeyID)
	cfg.AWSSecretAccessKey = envOrDefault(env("AWS_SECRET_ACCESS_KEY"), cfg.AWSSecretAccessKey)
	cfg.AWSEndpoint = envOrDefault(env("AWS_ENDPOINT"), cfg.AWSEndpoint)
	intVar(&cfg.RetryMaxRetries, "RETRY_MAX_RETRIES")
	durationVar(&cfg.RetryInitialInterval, "RETRY_INITIAL_INTERVAL")
	durationVar(&cfg.RetryMaxInterval, "RETRY_MAX_INTERVAL")
	cfg.LogBackend = envOrDefault(env("LOG_BACKEND"), cfg.LogBackend)
	cfg.LogLevel = envOrDefault(env("LOG_LEVEL"), cfg.LogLevel)
	boolVar(&cfg.MetricsEnabled, "METRICS_ENABLED")
	intVar(&cfg.MetricsPort, "METRICS_PORT")
	boolVar(&cfg.WebUIEnabled, "WEBUI_ENABLED")
	intVar(&cfg.WebUIPort, "WEBUI_PORT")
	cfg.WebUICORSAllowedOrigins = envCSV(env("WEBUI_CORS_ALLOWED_ORIGINS"), cfg.WebUICORSAllowedOrigins)

	return errors.Join(errs...)
}

func envOrDefault(raw, fallback string) string {
	if raw != "" {
		return raw
	}
	return fallback
}

func envInt(key, raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

// envDuration accepts Go duration syntax or a bare number of seconds.
func envDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	return fallback, fmt.Errorf("%s: invalid duration %q", key, raw)
}

func envBool(key, raw string, fallback bool) (bool, error) {
	switch strings.ToLower(raw) {
	case "":
		return fallback, nil
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	default:
		return fallback, fmt.Errorf("%s: invalid boolean %q", key, raw)
	}
}
func envCSV(raw string, fallback []string) []string {
	if raw == "" {
		return fallback
	}
	out := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
