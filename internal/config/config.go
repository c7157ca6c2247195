package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Token    TokenConfig    `mapstructure:"token"`
	SMS      SMSConfig      `mapstructure:"sms"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenTTLHrs int    `mapstructure:"token_ttl_hours"`
}

type TokenConfig struct {
	// HMACSecret signs QR credential payloads. Required; startup fails
	// without it so a missing secret can never degrade to a guessable one.
	HMACSecret string `mapstructure:"hmac_secret"`
	ExpiryDays int    `mapstructure:"expiry_days"`
}

type SMSConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config.yaml (if present) and environment variables, with env
// taking precedence. Missing required secrets are fatal.
func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "conf_user")
	v.SetDefault("database.name", "conf_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("token.expiry_days", 7)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not surface env-only keys through Unmarshal; every
	// key must be bound explicitly or setting it in the environment alone
	// is silently ignored.
	for _, key := range []string{
		"server.port",
		"database.host", "database.port", "database.user",
		"database.password", "database.name", "database.sslmode",
		"auth.jwt_secret", "auth.token_ttl_hours",
		"token.hmac_secret", "token.expiry_days",
		"sms.api_key",
		"cors.allowed_origins",
	} {
		if err := v.BindEnv(key); err != nil {
			log.Fatalf("Failed to bind %s: %v", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Failed to read config file: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Failed to parse configuration: %v", err)
	}

	if cfg.Token.HMACSecret == "" {
		log.Fatalf("TOKEN_HMAC_SECRET is not set; refusing to start without a signing secret")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("AUTH_JWT_SECRET is not set; refusing to start without a session secret")
	}

	return &cfg
}
