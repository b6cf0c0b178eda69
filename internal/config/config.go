package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
		Company  string
	} `mapstructure:"app"`

	HTTP struct {
		Addr        string
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Redis struct {
		Addr string
		TTL  time.Duration
	} `mapstructure:"redis"`

	Telegram struct {
		Enabled bool
		Token   string
		Timeout int
	} `mapstructure:"telegram"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Table struct {
		DefaultPageSize int `mapstructure:"default_page_size"`
	} `mapstructure:"table"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Asia/Kolkata")
	v.SetDefault("app.company", "CPQ")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", "1m")
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.timeout", 30)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("table.default_page_size", 10)
}

// Load reads .env (if present), then the YAML file at path, then APP_*
// environment variables, e.g. APP_POSTGRES_DSN.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	defaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Auth.JWTSecret == "" {
		return c, errors.New("auth.jwt_secret is required")
	}
	return c, nil
}
