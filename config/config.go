package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "enrollpay/errors"
)

var DefaultConfig = []byte(`
application: "enrollpay"

logger:
  level: "debug"

is_prod_mode: false

http:
  addr: ":8080"
  allowed_origins:
    - "http://localhost:3000"
  verify_timeout: "90s"

store:
  driver: "mongo"

mongo:
  uri: "mongodb://localhost:27017/?replicaSet=rs0"
  database: "enrollpay"

redis:
  uri: "localhost:6379"
  password: ""
  notify_ttl: "720h"

kafka:
  brokers:
    - "localhost:9092"
  consume: true
  topic: "payment-events"
  records_per_poll: 500
  consumer_name: "enrollpay-materializer"

gateway:
  provider: "paystack"
  base_url: "https://api.paystack.co"
  secret_key: ""
  webhook_secret: ""
  callback_url: "http://localhost:3000/verify"
  currency: "NGN"

reconcile:
  max_attempts: 10
  base_delay: "1s"
  max_delay: "10s"

notify:
  driver: "http"
  url: "http://localhost:3000/api/send-email"
  subject: "Enrollment confirmed"
  smtp:
    host: ""
    port: 465
    user: ""
    pass: ""
    sender: ""

pricing:
  default_minor: 0
  programs: {}
`)

type Config struct {
	Application string    `koanf:"application"`
	Logger      Logger    `koanf:"logger"`
	IsProdMode  bool      `koanf:"is_prod_mode"`
	HTTP        HTTP      `koanf:"http"`
	Store       Store     `koanf:"store"`
	Mongo       Mongo     `koanf:"mongo"`
	Redis       Redis     `koanf:"redis"`
	Kafka       Kafka     `koanf:"kafka"`
	Gateway     Gateway   `koanf:"gateway"`
	Reconcile   Reconcile `koanf:"reconcile"`
	Notify      Notify    `koanf:"notify"`
	Pricing     Pricing   `koanf:"pricing"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Addr           string        `koanf:"addr"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	VerifyTimeout  time.Duration `koanf:"verify_timeout"`
}

type Store struct {
	Driver string `koanf:"driver"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI       string        `koanf:"uri"`
	Password  string        `koanf:"password"`
	NotifyTTL time.Duration `koanf:"notify_ttl"`
}

type Kafka struct {
	Brokers        []string `koanf:"brokers"`
	Consume        bool     `koanf:"consume"`
	Topic          string   `koanf:"topic"`
	RecordsPerPoll int      `koanf:"records_per_poll"`
	ConsumerName   string   `koanf:"consumer_name"`
}

type Gateway struct {
	Provider      string `koanf:"provider"`
	BaseURL       string `koanf:"base_url"`
	SecretKey     string `koanf:"secret_key"`
	WebhookSecret string `koanf:"webhook_secret"`
	CallbackURL   string `koanf:"callback_url"`
	Currency      string `koanf:"currency"`
}

type Reconcile struct {
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	MaxDelay    time.Duration `koanf:"max_delay"`
}

type Notify struct {
	Driver  string `koanf:"driver"`
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
	SMTP    SMTP   `koanf:"smtp"`
}

type SMTP struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Sender string `koanf:"sender"`
}

type Pricing struct {
	DefaultMinor int64            `koanf:"default_minor"`
	Programs     map[string]int64 `koanf:"programs"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.HTTP.Addr == "" {
		ve.Add("http.addr", "cannot be empty")
	}

	switch c.Store.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			ve.Add("mongo.uri", "cannot be empty")
		}
		if c.Mongo.Database == "" {
			ve.Add("mongo.database", "cannot be empty")
		}
		if c.Redis.URI == "" {
			ve.Add("redis.uri", "cannot be empty")
		}
	case "memory":
	default:
		ve.Add("store.driver", "must be one of mongo, memory")
	}

	if c.Kafka.Consume {
		if len(c.Kafka.Brokers) == 0 {
			ve.Add("kafka.brokers", "cannot be empty")
		}
		if c.Kafka.Topic == "" {
			ve.Add("kafka.topic", "cannot be empty")
		}
	}

	switch c.Gateway.Provider {
	case "paystack", "stripe":
	default:
		ve.Add("gateway.provider", "must be one of paystack, stripe")
	}
	if c.Gateway.CallbackURL == "" {
		ve.Add("gateway.callback_url", "cannot be empty")
	}

	if c.Reconcile.MaxAttempts < 1 {
		ve.Add("reconcile.max_attempts", "must be at least 1")
	}
	if c.Reconcile.BaseDelay <= 0 {
		ve.Add("reconcile.base_delay", "must be positive")
	}
	if c.Reconcile.MaxDelay < c.Reconcile.BaseDelay {
		ve.Add("reconcile.max_delay", "cannot be lower than base_delay")
	}

	switch c.Notify.Driver {
	case "http":
		if c.Notify.URL == "" {
			ve.Add("notify.url", "cannot be empty")
		}
	case "smtp":
		if c.Notify.SMTP.Host == "" {
			ve.Add("notify.smtp.host", "cannot be empty")
		}
	case "log":
	default:
		ve.Add("notify.driver", "must be one of http, smtp, log")
	}

	return ve.Err()
}
