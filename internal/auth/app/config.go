package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/tokend/internal/auth/service"
	"github.com/aussiebroadwan/tokend/pkg/jwtx"
	"github.com/spf13/viper"
)

// Token store engines.
const (
	TokenStoreSQLite = "sqlite"
	TokenStoreRedis  = "redis"
)

// Key storage modes.
const (
	KeyStorageEphemeral  = "ephemeral"
	KeyStoragePersistent = "persistent"
)

type Config struct {
	Issuer string // issuer claim and externally visible base URL

	Algorithm      string        // JWT signing algorithm (RS256, ES256, EdDSA)
	RSABits        int           // RSA key size for RS256 (0: library default)
	NumKeys        int           // number of active signing keys
	KeyStorageMode string        // ephemeral or persistent
	KeyGracePeriod time.Duration // how long retired keys keep verifying
	MasterKeyPath  string        // master encryption key file for persistent keys
	DatabaseFile   string        // SQLite database file
	PepperFile     string        // pepper for password and secret hashing

	TokenStore    string // sqlite or redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	AccessTokenMode      string // auto, jwt or opaque
	TokenMaxAge          time.Duration
	PublicInactivity     time.Duration
	PublicLifetime       time.Duration
	ConfidentialInactive time.Duration
	ConfidentialLifetime time.Duration
	FirstPartyInactive   time.Duration
	FirstPartyLifetime   time.Duration
	CodeTTL              time.Duration
	EnablePasswordGrant  bool
	IntrospectionFloor   time.Duration
	DPoPMaxAge           time.Duration

	Env                  string // dev, staging, prod
	LogLevel             string // debug, info, warn, error
	LogFormat            string // json, text
	Port                 int
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

// SetDefaults registers every configuration key with its default.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("AUTH_ISSUER", "http://localhost:8080")
	v.SetDefault("AUTH_ALGORITHM", jwtx.AlgorithmEdDSA)
	v.SetDefault("AUTH_RSA_BITS", 0)
	v.SetDefault("AUTH_NUM_KEYS", 3)
	v.SetDefault("AUTH_KEY_STORAGE_MODE", KeyStorageEphemeral)
	v.SetDefault("AUTH_KEY_GRACE_PERIOD", "720h")
	v.SetDefault("AUTH_MASTER_KEY_PATH", "")
	v.SetDefault("AUTH_DATABASE_FILE", "auth.db")
	v.SetDefault("AUTH_PEPPER_FILE", "pepper")

	v.SetDefault("AUTH_TOKEN_STORE", TokenStoreSQLite)
	v.SetDefault("AUTH_REDIS_ADDR", "localhost:6379")
	v.SetDefault("AUTH_REDIS_PASSWORD", "")
	v.SetDefault("AUTH_REDIS_DB", 0)
	v.SetDefault("AUTH_REDIS_PREFIX", "tokend:")

	v.SetDefault("AUTH_ACCESS_TOKEN_MODE", string(service.AccessTokenAuto))
	v.SetDefault("AUTH_TOKEN_MAX_AGE", "60m")
	v.SetDefault("AUTH_PUBLIC_INACTIVITY", "48h")
	v.SetDefault("AUTH_PUBLIC_LIFETIME", "168h")
	v.SetDefault("AUTH_CONFIDENTIAL_INACTIVITY", "720h")
	v.SetDefault("AUTH_CONFIDENTIAL_LIFETIME", "8760h")
	v.SetDefault("AUTH_FIRST_PARTY_INACTIVITY", "2160h")
	v.SetDefault("AUTH_FIRST_PARTY_LIFETIME", "17520h")
	v.SetDefault("AUTH_CODE_TTL", "5m")
	v.SetDefault("AUTH_ENABLE_PASSWORD_GRANT", false)
	v.SetDefault("AUTH_INTROSPECTION_FLOOR", "750ms")
	v.SetDefault("AUTH_DPOP_MAX_AGE", "5m")

	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_GRACE_PERIOD", "10s")
	v.SetDefault("HOUSEKEEPING_INTERVAL", "1h")
}

// NewViper returns a viper instance reading the environment with every
// default registered.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the configuration from v and validates it.
func LoadConfig(v *viper.Viper) (Config, error) {
	var (
		cfg  Config
		errs []string
	)

	dur := func(key string) time.Duration {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
		return d
	}

	cfg = Config{
		Issuer:         strings.TrimSpace(v.GetString("AUTH_ISSUER")),
		Algorithm:      v.GetString("AUTH_ALGORITHM"),
		RSABits:        v.GetInt("AUTH_RSA_BITS"),
		NumKeys:        v.GetInt("AUTH_NUM_KEYS"),
		KeyStorageMode: strings.ToLower(v.GetString("AUTH_KEY_STORAGE_MODE")),
		KeyGracePeriod: dur("AUTH_KEY_GRACE_PERIOD"),
		MasterKeyPath:  v.GetString("AUTH_MASTER_KEY_PATH"),
		DatabaseFile:   v.GetString("AUTH_DATABASE_FILE"),
		PepperFile:     v.GetString("AUTH_PEPPER_FILE"),

		TokenStore:    strings.ToLower(v.GetString("AUTH_TOKEN_STORE")),
		RedisAddr:     v.GetString("AUTH_REDIS_ADDR"),
		RedisPassword: v.GetString("AUTH_REDIS_PASSWORD"),
		RedisDB:       v.GetInt("AUTH_REDIS_DB"),
		RedisPrefix:   v.GetString("AUTH_REDIS_PREFIX"),

		AccessTokenMode:      strings.ToLower(v.GetString("AUTH_ACCESS_TOKEN_MODE")),
		TokenMaxAge:          dur("AUTH_TOKEN_MAX_AGE"),
		PublicInactivity:     dur("AUTH_PUBLIC_INACTIVITY"),
		PublicLifetime:       dur("AUTH_PUBLIC_LIFETIME"),
		ConfidentialInactive: dur("AUTH_CONFIDENTIAL_INACTIVITY"),
		ConfidentialLifetime: dur("AUTH_CONFIDENTIAL_LIFETIME"),
		FirstPartyInactive:   dur("AUTH_FIRST_PARTY_INACTIVITY"),
		FirstPartyLifetime:   dur("AUTH_FIRST_PARTY_LIFETIME"),
		CodeTTL:              dur("AUTH_CODE_TTL"),
		EnablePasswordGrant:  v.GetBool("AUTH_ENABLE_PASSWORD_GRANT"),
		IntrospectionFloor:   dur("AUTH_INTROSPECTION_FLOOR"),
		DPoPMaxAge:           dur("AUTH_DPOP_MAX_AGE"),

		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		Port:                 v.GetInt("PORT"),
		ShutdownGracePeriod:  dur("SHUTDOWN_GRACE_PERIOD"),
		HousekeepingInterval: dur("HOUSEKEEPING_INTERVAL"),
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("AUTH_ISSUER is required")
	}
	switch c.Algorithm {
	case jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA:
	default:
		return fmt.Errorf("AUTH_ALGORITHM: unsupported algorithm %q", c.Algorithm)
	}
	switch c.KeyStorageMode {
	case KeyStorageEphemeral, KeyStoragePersistent:
	default:
		return fmt.Errorf("AUTH_KEY_STORAGE_MODE: unknown mode %q", c.KeyStorageMode)
	}
	switch c.TokenStore {
	case TokenStoreSQLite, TokenStoreRedis:
	default:
		return fmt.Errorf("AUTH_TOKEN_STORE: unknown store %q", c.TokenStore)
	}
	if _, err := service.ParseAccessTokenMode(c.AccessTokenMode); err != nil {
		return fmt.Errorf("AUTH_ACCESS_TOKEN_MODE: %w", err)
	}
	if c.TokenMaxAge <= 0 {
		return fmt.Errorf("AUTH_TOKEN_MAX_AGE must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT: %d out of range", c.Port)
	}
	return nil
}

// Lifetimes builds the refresh tier configuration.
func (c Config) Lifetimes() service.Lifetimes {
	return service.Lifetimes{
		TokenMaxAge:  c.TokenMaxAge,
		Public:       service.Tier{Inactivity: c.PublicInactivity, Total: c.PublicLifetime},
		Confidential: service.Tier{Inactivity: c.ConfidentialInactive, Total: c.ConfidentialLifetime},
		FirstParty:   service.Tier{Inactivity: c.FirstPartyInactive, Total: c.FirstPartyLifetime},
	}
}

// parseDuration accepts Go durations ("1h", "90s") and, for backwards
// compatibility, bare integers as minutes.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if minutes, err := strconv.Atoi(s); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}
	return 0, fmt.Errorf("invalid duration %q", s)
}
