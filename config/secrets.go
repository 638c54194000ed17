package config

import (
	// Go Internal Packages
	"os"

	// External Packages
	"github.com/joho/godotenv"
)

// secretEnv maps environment variables onto the fields they override. Secrets never
// live in the yaml file.
var secretEnv = map[string]func(c *Config, v string){
	"ENROLLPAY_MONGO_URI":              func(c *Config, v string) { c.Mongo.URI = v },
	"ENROLLPAY_REDIS_PASSWORD":         func(c *Config, v string) { c.Redis.Password = v },
	"ENROLLPAY_GATEWAY_SECRET_KEY":     func(c *Config, v string) { c.Gateway.SecretKey = v },
	"ENROLLPAY_GATEWAY_WEBHOOK_SECRET": func(c *Config, v string) { c.Gateway.WebhookSecret = v },
	"ENROLLPAY_SMTP_PASS":              func(c *Config, v string) { c.Notify.SMTP.Pass = v },
}

// LoadSecrets reads the optional env files and applies every secret that is set.
// A missing .env is not an error.
func (c *Config) LoadSecrets(envFiles ...string) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}
	for key, apply := range secretEnv {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			apply(c, v)
		}
	}
}
