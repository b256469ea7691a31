package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	ProviderModeRemote = "remote"
	ProviderModeLocal  = "local"
)

// ProviderConfig selects and configures the auth provider backing both
// session namespaces. Mode "remote" talks to a hosted endpoint over HTTP;
// mode "local" serves identities from this deployment's own Postgres.
type ProviderConfig struct {
	Mode   string
	URL    string
	APIKey string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketAvatars string
	UseSSL        bool
	Region        string
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
}

type PresenceConfig struct {
	Heartbeat        time.Duration
	IdleThreshold    time.Duration
	OfflineThreshold time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Provider         ProviderConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Presence         PresenceConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SCRIBEMARKET")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *AppConfig) validate() error {
	switch cfg.Provider.Mode {
	case ProviderModeRemote:
		// Without either value the service cannot authenticate anyone,
		// so refuse to start.
		if cfg.Provider.URL == "" {
			return fmt.Errorf("provider.url is required in remote mode")
		}
		if cfg.Provider.APIKey == "" {
			return fmt.Errorf("provider.apikey is required in remote mode")
		}
	case ProviderModeLocal:
		if cfg.Security.JWTAccessSecret == "" {
			return fmt.Errorf("security.jwtaccesssecret is required in local mode")
		}
	default:
		return fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("provider.mode", "remote")

	v.SetDefault("storage.bucketavatars", "scribemarket-avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "720h") // 30 days

	v.SetDefault("presence.heartbeat", "60s")
	v.SetDefault("presence.idlethreshold", "30m")
	v.SetDefault("presence.offlinethreshold", "60m")
}
