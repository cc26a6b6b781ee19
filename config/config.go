package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

// AIProvider holds the connection settings for the identification model provider.
// APIKey names the environment variable that carries the actual key; the resolved
// value replaces it during LoadConfig.
type AIProvider struct {
	APIKey  string `mapstructure:"api_key_env"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// StripeConfig holds the payment provider settings. Secrets are resolved from the
// environment variables named in config.yaml.
type StripeConfig struct {
	SecretKey      string `mapstructure:"secret_key_env"`
	WebhookSecret  string `mapstructure:"webhook_secret_env"`
	PremiumPriceID string `mapstructure:"premium_price_id"`
	SuccessURL     string `mapstructure:"success_url"`
	CancelURL      string `mapstructure:"cancel_url"`
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // "memory" or a SQLite file path
	}
	AI     AIProvider   `mapstructure:"ai"`
	Stripe StripeConfig `mapstructure:"stripe"`
}

// AppConfig is the global configuration instance.
var AppConfig Config

// LoadConfig loads configuration from config.yaml and environment variables.
// Environment variables always win over file values.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "memory")
	viper.SetDefault("ai.api_key_env", "OPENAI_API_KEY")
	viper.SetDefault("ai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.model", "gpt-4o")
	viper.SetDefault("stripe.secret_key_env", "STRIPE_SECRET_KEY")
	viper.SetDefault("stripe.webhook_secret_env", "STRIPE_WEBHOOK_SECRET")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		AppConfig.Database.DSN = dsn
		log.Printf("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}

	// Resolve the AI API key from the environment variable named in config.
	if envValue := os.Getenv(AppConfig.AI.APIKey); envValue != "" {
		log.Printf("INFO: [Config] Loaded AI API key from environment variable '%s'.", AppConfig.AI.APIKey)
		AppConfig.AI.APIKey = envValue
	} else {
		log.Printf("WARN: [Config] AI API key environment variable '%s' is not set. Identification requests will fail.", AppConfig.AI.APIKey)
		AppConfig.AI.APIKey = ""
	}

	// Resolve Stripe secrets the same way.
	if envValue := os.Getenv(AppConfig.Stripe.SecretKey); envValue != "" {
		log.Printf("INFO: [Config] Loaded Stripe secret key from environment variable '%s'.", AppConfig.Stripe.SecretKey)
		AppConfig.Stripe.SecretKey = envValue
	} else {
		log.Printf("WARN: [Config] Stripe secret key environment variable '%s' is not set. Subscription checkout is disabled.", AppConfig.Stripe.SecretKey)
		AppConfig.Stripe.SecretKey = ""
	}
	if envValue := os.Getenv(AppConfig.Stripe.WebhookSecret); envValue != "" {
		AppConfig.Stripe.WebhookSecret = envValue
	} else {
		AppConfig.Stripe.WebhookSecret = ""
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}
