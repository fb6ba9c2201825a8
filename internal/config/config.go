package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pelusa-v/speakset/internal/oracle"
)

const (
	OracleNative = "native"
	OracleLocal  = "local"
)

type Config struct {
	Env       string
	Host      string
	Port      int
	StaticDir string
	Oracle    string
	Native    oracle.NativeConfig
	NodeID    int64
	HTTP      HTTPConfig
}

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Load reads configuration from the environment. In development a .env
// file in the working directory is loaded first when present.
func Load() (Config, error) {
	if getEnv("SPEAKSET_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	def := oracle.DefaultNativeConfig()
	cfg := Config{
		Env:       getEnv("SPEAKSET_ENV", "development"),
		Host:      getEnv("HOST", "0.0.0.0"),
		StaticDir: getEnv("STATIC_DIR", "public"),
		Oracle:    strings.ToLower(getEnv("ID_ORACLE", OracleNative)),
		Native: oracle.NativeConfig{
			Source:    getEnv("NATIVE_SOURCE", def.Source),
			Binary:    getEnv("NATIVE_BINARY", def.Binary),
			Compiler:  getEnv("NATIVE_COMPILER", def.Compiler),
			BuildArgs: def.BuildArgs,
			Workdir:   getEnv("NATIVE_WORKDIR", def.Workdir),
		},
	}
	if args := strings.Fields(getEnv("NATIVE_BUILD_ARGS", "")); len(args) > 0 {
		cfg.Native.BuildArgs = args
	}
	// the default dependency set only describes the default source
	if deps, ok := os.LookupEnv("NATIVE_DEPS"); ok {
		cfg.Native.Deps = strings.Fields(deps)
	} else if cfg.Native.Source == def.Source {
		cfg.Native.Deps = def.Deps
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 4173); err != nil {
		return Config{}, err
	}
	if cfg.NodeID, err = getEnvInt64("NODE_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ReadTimeout, err = getEnvDuration("READ_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.WriteTimeout, err = getEnvDuration("WRITE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.IdleTimeout, err = getEnvDuration("IDLE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("SPEAKSET_ENV must be development or production, got %q", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Oracle != OracleNative && c.Oracle != OracleLocal {
		return fmt.Errorf("ID_ORACLE must be %q or %q, got %q", OracleNative, OracleLocal, c.Oracle)
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", c.NodeID)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Backend is the descriptor reported by the health endpoint.
func (c Config) Backend() string {
	return "go+" + c.Oracle
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
