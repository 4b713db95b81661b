package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Mailjet   MailjetConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	Razorpay  RazorpayConfig
	Xendit    XenditConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

type AppConfig struct {
	Name                    string
	Version                 string
	Environment             string
	AppDeploymentUrl        string
	AppEmailVerificationKey string
	// PaymentTokenKey encrypts saved payment method tokens at rest.
	PaymentTokenKey string
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
	TTL       time.Duration
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

type XenditConfig struct {
	XenditSecretKey                string
	XenditUrl                      string
	RedirectUrl                    string
	XenditWebhookVerificationToken string
	Currency                       string
}

type PaymentConfig struct {
	DefaultGateway     string
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	GatewayHTTPTimeout time.Duration
}

type RateLimitConfig struct {
	AuthRequests    int
	WebhookRequests int
	Window          time.Duration
}

type StoreConfig struct {
	FreeShippingThreshold decimal.Decimal
	BaseShipping          decimal.Decimal
	RemoteSurcharge       decimal.Decimal
	DefaultTaxRate        decimal.Decimal
	LowStockThreshold     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("missing redis database")
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	breakerFailures, err := strconv.ParseUint(getEnv("PAYMENT_BREAKER_MAX_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_BREAKER_MAX_FAILURES: %w", err)
	}

	breakerTimeout, err := time.ParseDuration(getEnv("PAYMENT_BREAKER_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_BREAKER_OPEN_TIMEOUT: %w", err)
	}

	gatewayTimeout, err := time.ParseDuration(getEnv("PAYMENT_GATEWAY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_GATEWAY_TIMEOUT: %w", err)
	}

	authRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_AUTH_REQUESTS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_AUTH_REQUESTS: %w", err)
	}

	webhookRequests, err := strconv.Atoi(getEnv("RATE_LIMIT_WEBHOOK_REQUESTS", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WEBHOOK_REQUESTS: %w", err)
	}

	rateWindow, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}

	lowStock, err := strconv.Atoi(getEnv("STORE_LOW_STOCK_THRESHOLD", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_LOW_STOCK_THRESHOLD: %w", err)
	}

	store := StoreConfig{LowStockThreshold: lowStock}
	if store.FreeShippingThreshold, err = getDecimal("STORE_FREE_SHIPPING_THRESHOLD", "2000"); err != nil {
		return nil, err
	}
	if store.BaseShipping, err = getDecimal("STORE_BASE_SHIPPING", "100"); err != nil {
		return nil, err
	}
	if store.RemoteSurcharge, err = getDecimal("STORE_REMOTE_SURCHARGE", "50"); err != nil {
		return nil, err
	}
	if store.DefaultTaxRate, err = getDecimal("STORE_DEFAULT_TAX_RATE", "0.18"); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                    getEnv("APP_NAME", "Abaya Store API"),
			Version:                 getEnv("APP_VERSION", "1.0.0"),
			Environment:             getEnv("APP_ENV", "development"),
			AppDeploymentUrl:        getEnv("APP_DEPLOYMENT_URL", "http://localhost:8080"),
			AppEmailVerificationKey: getEnv("APP_EMAIL_VERIFICATION_KEY", ""),
			PaymentTokenKey:         getEnv("APP_PAYMENT_TOKEN_KEY", ""),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "abaya_store"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TTL:       jwtTTL,
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("STRIPE_BASE_URL", "https://api.stripe.com"),
			Currency:      getEnv("STRIPE_CURRENCY", "inr"),
		},
		Razorpay: RazorpayConfig{
			KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Currency:      getEnv("RAZORPAY_CURRENCY", "INR"),
		},
		Xendit: XenditConfig{
			XenditSecretKey:                getEnv("XENDIT_SECRET_KEY", ""),
			XenditUrl:                      getEnv("XENDIT_URL", "https://api.xendit.co/v2/invoices"),
			RedirectUrl:                    getEnv("REDIRECT_URL", ""),
			XenditWebhookVerificationToken: getEnv("XENDIT_WEBHOOK_VERIFICATION_TOKEN", ""),
			Currency:                       getEnv("XENDIT_CURRENCY", "IDR"),
		},
		Payment: PaymentConfig{
			DefaultGateway:     strings.ToLower(getEnv("PAYMENT_DEFAULT_GATEWAY", "stripe")),
			BreakerMaxFailures: uint32(breakerFailures),
			BreakerOpenTimeout: breakerTimeout,
			GatewayHTTPTimeout: gatewayTimeout,
		},
		RateLimit: RateLimitConfig{
			AuthRequests:    authRequests,
			WebhookRequests: webhookRequests,
			Window:          rateWindow,
		},
		Store: store,
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.App.AppEmailVerificationKey == "" {
		return nil, errors.New("missing app email verification key")
	}

	if !validAESKey(cfg.App.AppEmailVerificationKey) {
		return nil, errors.New("app email verification key must be 16, 24 or 32 bytes")
	}

	if cfg.App.PaymentTokenKey == "" {
		cfg.App.PaymentTokenKey = cfg.App.AppEmailVerificationKey
	}

	if !validAESKey(cfg.App.PaymentTokenKey) {
		return nil, errors.New("payment token key must be 16, 24 or 32 bytes")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func validAESKey(key string) bool {
	switch len(key) {
	case 16, 24, 32:
		return true
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getDecimal(key, defaultVal string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultVal))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
