package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr        string `mapstructure:"REDIS_ADDR"`
	RedisPassword    string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB     int    `mapstructure:"REDIS_CACHE_DB"`
	RedisExpiryQueue int    `mapstructure:"REDIS_EXPIRY_QUEUE_DB"`

	// Stripe credentials. Either the single-key shape (STRIPE_SECRET_KEY) or the
	// per-environment shape (STRIPE_TEST_SECRET_KEY / STRIPE_LIVE_SECRET_KEY) may be
	// set; both resolve into PaymentKeys exactly once at load time.
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeTestSecretKey string `mapstructure:"STRIPE_TEST_SECRET_KEY"`
	StripeLiveSecretKey string `mapstructure:"STRIPE_LIVE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Booking engine knobs.
	Currency          string `mapstructure:"CURRENCY"`
	MinChargeCents    int64  `mapstructure:"MIN_CHARGE_CENTS"`
	FeePolicy         string `mapstructure:"FEE_POLICY"` // "capped_percent" or "gross_up"
	AuthWindowHours   int    `mapstructure:"AUTH_WINDOW_HOURS"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

// PaymentKeys is the resolved, immutable credential set the payment layer uses.
// Handlers never look at the raw key shape again after LoadConfig.
type PaymentKeys struct {
	SecretKey     string
	WebhookSecret string
}

var (
	AppConfig      Config
	ResolvedStripe PaymentKeys
)

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	// Secrets default to empty so AutomaticEnv can materialize them even when
	// no config file registers the keys.
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("STRIPE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_TEST_SECRET_KEY", "")
	viper.SetDefault("STRIPE_LIVE_SECRET_KEY", "")
	viper.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	viper.SetDefault("REDIS_EXPIRY_QUEUE_DB", 3)
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("MIN_CHARGE_CENTS", 50)
	viper.SetDefault("FEE_POLICY", "capped_percent")
	viper.SetDefault("AUTH_WINDOW_HOURS", 144)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ResolvedStripe = resolvePaymentKeys(AppConfig)
}

// resolvePaymentKeys collapses the legacy single-key and the per-environment key
// shapes into one value. Per-environment keys win when both shapes are present.
func resolvePaymentKeys(cfg Config) PaymentKeys {
	keys := PaymentKeys{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	}
	if cfg.Env == "production" && cfg.StripeLiveSecretKey != "" {
		keys.SecretKey = cfg.StripeLiveSecretKey
	} else if cfg.Env != "production" && cfg.StripeTestSecretKey != "" {
		keys.SecretKey = cfg.StripeTestSecretKey
	}
	if keys.SecretKey == "" {
		log.Println("Warning: no Stripe secret key configured; payment calls will fail")
	}
	return keys
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
