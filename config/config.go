package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"quadro-kanban/utilities"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeLocal    = "local"

	GatewayFirestore = "firestore"
	GatewayMemory    = "memory"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config reúne tudo que o servidor lê do ambiente
type Config struct {
	ServerPort     string
	AllowedOrigins []string
	LogLevel       string

	AuthMode        string
	CredentialsPath string
	LocalAuthSecret string

	Gateway string

	UsersDBDriver string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBPath        string

	RedisURL string
	CacheTTL time.Duration

	RefreshAfterCreate     time.Duration
	RollbackOnWriteFailure bool
	WriteTimeout           time.Duration
	ViewIdleTTL            time.Duration
	DragActivationDistance float64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_MODE", AuthModeFirebase)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("LOCAL_AUTH_SECRET", "")
	v.SetDefault("GATEWAY", GatewayFirestore)
	v.SetDefault("USERS_DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "kanban.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("REFRESH_AFTER_CREATE", "1s")
	v.SetDefault("ROLLBACK_ON_WRITE_FAILURE", true)
	v.SetDefault("WRITE_TIMEOUT", "0s")
	v.SetDefault("VIEW_IDLE_TTL", "30m")
	v.SetDefault("DRAG_ACTIVATION_DISTANCE", 8)
}

// Load carrega o .env (se existir) e monta a Config a partir das variáveis de ambiente
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("erro ao carregar o arquivo .env: %w", err)
		}
		utilities.LogInfo("Arquivo .env não encontrado, usando apenas variáveis de ambiente")
	}
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerPort:             v.GetString("SERVER_PORT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		AuthMode:               strings.ToLower(v.GetString("AUTH_MODE")),
		CredentialsPath:        v.GetString("FIREBASE_CREDENTIALS_PATH"),
		LocalAuthSecret:        v.GetString("LOCAL_AUTH_SECRET"),
		Gateway:                strings.ToLower(v.GetString("GATEWAY")),
		UsersDBDriver:          strings.ToLower(v.GetString("USERS_DB_DRIVER")),
		DBHost:                 v.GetString("DB_HOST"),
		DBPort:                 v.GetString("DB_PORT"),
		DBUser:                 v.GetString("DB_USER"),
		DBPassword:             v.GetString("DB_PASSWORD"),
		DBName:                 v.GetString("DB_NAME"),
		DBSSLMode:              v.GetString("DB_SSLMODE"),
		DBPath:                 v.GetString("DB_PATH"),
		RedisURL:               v.GetString("REDIS_URL"),
		RollbackOnWriteFailure: v.GetBool("ROLLBACK_ON_WRITE_FAILURE"),
		DragActivationDistance: v.GetFloat64("DRAG_ACTIVATION_DISTANCE"),
	}

	if origins := strings.TrimSpace(v.GetString("CORS_ALLOWED_ORIGINS")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CACHE_TTL", &cfg.CacheTTL},
		{"REFRESH_AFTER_CREATE", &cfg.RefreshAfterCreate},
		{"WRITE_TIMEOUT", &cfg.WriteTimeout},
		{"VIEW_IDLE_TTL", &cfg.ViewIdleTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("%s inválido: %w", d.key, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("%s não pode ser negativo", d.key)
		}
		*d.dst = parsed
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case AuthModeFirebase:
		if c.CredentialsPath == "" {
			return errors.New("FIREBASE_CREDENTIALS_PATH não está definido nas variáveis de ambiente")
		}
	case AuthModeLocal:
		if c.LocalAuthSecret == "" {
			return errors.New("LOCAL_AUTH_SECRET é obrigatório quando AUTH_MODE=local")
		}
	default:
		return fmt.Errorf("AUTH_MODE desconhecido: %q", c.AuthMode)
	}
	switch c.Gateway {
	case GatewayFirestore:
		if c.CredentialsPath == "" {
			return errors.New("GATEWAY=firestore exige FIREBASE_CREDENTIALS_PATH")
		}
	case GatewayMemory:
	default:
		return fmt.Errorf("GATEWAY desconhecido: %q", c.Gateway)
	}
	switch c.UsersDBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("USERS_DB_DRIVER desconhecido: %q", c.UsersDBDriver)
	}
	if c.DragActivationDistance < 0 {
		return errors.New("DRAG_ACTIVATION_DISTANCE não pode ser negativo")
	}
	return nil
}

// PostgresDSN monta a string de conexão como o projeto sempre fez (variáveis DB_*)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// NeedsFirebase indica se o app do Firebase precisa ser inicializado
func (c *Config) NeedsFirebase() bool {
	return c.AuthMode == AuthModeFirebase || c.Gateway == GatewayFirestore
}
