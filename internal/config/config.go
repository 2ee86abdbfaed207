package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Load registers defaults and binds configuration to the environment.
func Load() error {
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("TOKEN_TTL", "4h")
	viper.SetDefault("BCRYPT_COST", 10)
	viper.SetDefault("FRONTEND_URL", "")
	viper.SetDefault("SEED_MANIFEST", "seed/seed.yaml")
	viper.SetDefault("WS_SEND_BUFFER", 16)

	viper.AutomaticEnv()

	if DatabaseURL() == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if JWTSecret() == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	return nil
}

func HTTPAddr() string     { return viper.GetString("HTTP_ADDR") }
func DatabaseURL() string  { return viper.GetString("DATABASE_URL") }
func JWTSecret() string    { return viper.GetString("JWT_SECRET") }
func FrontendURL() string  { return viper.GetString("FRONTEND_URL") }
func SeedManifest() string { return viper.GetString("SEED_MANIFEST") }
func BcryptCost() int      { return viper.GetInt("BCRYPT_COST") }
func WSSendBuffer() int    { return viper.GetInt("WS_SEND_BUFFER") }

// TokenTTL returns the JWT lifetime, defaulting to four hours on parse error.
func TokenTTL() time.Duration {
	ttl, err := time.ParseDuration(viper.GetString("TOKEN_TTL"))
	if err != nil || ttl <= 0 {
		return 4 * time.Hour
	}
	return ttl
}
