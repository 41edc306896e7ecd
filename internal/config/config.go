package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// Server es la dirección donde escucha el transporte RPC.
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Driver         string `yaml:"driver"` // mysql | memory
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		Database       string `yaml:"database"`
		ConnectTimeout string `yaml:"connect_timeout"`
	} `yaml:"storage"`

	Executor struct {
		Workers         int    `yaml:"workers"`
		QueueSize       int    `yaml:"queue_size"`
		DispatchTimeout string `yaml:"dispatch_timeout"` // vacío o "0" = sin límite
	} `yaml:"executor"`

	Cache struct {
		Kind       string `yaml:"kind"` // memory | redis | none
		DefaultTTL string `yaml:"default_ttl"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	// Client lo usan los comandos en modo cliente.
	Client struct {
		Address string `yaml:"address"`
		Timeout string `yaml:"timeout"`
	} `yaml:"client"`
}

// Default retorna una configuración con todos los defaults aplicados y sin leer archivo.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// Load lee el YAML en path (si path es vacío sólo usa defaults), aplica overrides
// FABRIC_* del entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "localhost:32274"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mysql"
	}
	if c.Storage.Host == "" {
		c.Storage.Host = "localhost"
	}
	if c.Storage.Port == 0 {
		c.Storage.Port = 3306
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "fabric"
	}
	if c.Storage.ConnectTimeout == "" {
		c.Storage.ConnectTimeout = "5s"
	}
	if c.Executor.Workers == 0 {
		c.Executor.Workers = 4
	}
	if c.Executor.QueueSize == 0 {
		c.Executor.QueueSize = 128
	}
	if c.Executor.DispatchTimeout == "" {
		c.Executor.DispatchTimeout = "30s"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.DefaultTTL == "" {
		c.Cache.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "fabric:"
	}
	if c.Client.Address == "" {
		c.Client.Address = c.Server.Addr
	}
	if c.Client.Timeout == "" {
		c.Client.Timeout = "60s"
	}
}

// ---- Helpers env ----

const envPrefix = "FABRIC_"

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno FABRIC_*.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_HOST"); ok {
		c.Storage.Host = v
	}
	if v, ok := getEnvInt("STORAGE_PORT"); ok {
		c.Storage.Port = v
	}
	if v, ok := getEnvStr("STORAGE_USER"); ok {
		c.Storage.User = v
	}
	if v, ok := getEnvStr("STORAGE_PASSWORD"); ok {
		c.Storage.Password = v
	}
	if v, ok := getEnvStr("STORAGE_DATABASE"); ok {
		c.Storage.Database = v
	}
	if v, ok := getEnvStr("STORAGE_CONNECT_TIMEOUT"); ok {
		c.Storage.ConnectTimeout = v
	}

	// EXECUTOR
	if v, ok := getEnvInt("EXECUTOR_WORKERS"); ok {
		c.Executor.Workers = v
	}
	if v, ok := getEnvInt("EXECUTOR_QUEUE_SIZE"); ok {
		c.Executor.QueueSize = v
	}
	if v, ok := getEnvStr("EXECUTOR_DISPATCH_TIMEOUT"); ok {
		c.Executor.DispatchTimeout = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CACHE_DEFAULT_TTL"); ok {
		c.Cache.DefaultTTL = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// CLIENT
	if v, ok := getEnvStr("CLIENT_ADDRESS"); ok {
		c.Client.Address = v
	}
	if v, ok := getEnvStr("CLIENT_TIMEOUT"); ok {
		c.Client.Timeout = v
	}
}

// Validate verifica enums y duraciones.
func (c *Config) Validate() error {
	var problems []error

	switch c.Storage.Driver {
	case "mysql", "memory":
	default:
		problems = append(problems, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	switch c.Cache.Kind {
	case "memory", "redis", "none":
	default:
		problems = append(problems, fmt.Errorf("cache.kind: unknown kind %q", c.Cache.Kind))
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		problems = append(problems, errors.New("cache.redis.addr: required when cache.kind=redis"))
	}
	if c.Executor.Workers < 1 {
		problems = append(problems, fmt.Errorf("executor.workers: must be >= 1 (got %d)", c.Executor.Workers))
	}
	if c.Executor.QueueSize < 1 {
		problems = append(problems, fmt.Errorf("executor.queue_size: must be >= 1 (got %d)", c.Executor.QueueSize))
	}

	durations := map[string]string{
		"storage.connect_timeout":   c.Storage.ConnectTimeout,
		"executor.dispatch_timeout": c.Executor.DispatchTimeout,
		"cache.default_ttl":         c.Cache.DefaultTTL,
		"client.timeout":            c.Client.Timeout,
	}
	for _, key := range []string{"storage.connect_timeout", "executor.dispatch_timeout", "cache.default_ttl", "client.timeout"} {
		if _, err := parseDuration(durations[key]); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(problems...)
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ConnectTimeout retorna storage.connect_timeout ya parseado.
func (c *Config) ConnectTimeout() time.Duration {
	d, _ := parseDuration(c.Storage.ConnectTimeout)
	return d
}

// DispatchTimeout retorna executor.dispatch_timeout ya parseado (0 = sin límite).
func (c *Config) DispatchTimeout() time.Duration {
	d, _ := parseDuration(c.Executor.DispatchTimeout)
	return d
}

// CacheTTL retorna cache.default_ttl ya parseado.
func (c *Config) CacheTTL() time.Duration {
	d, _ := parseDuration(c.Cache.DefaultTTL)
	return d
}

// ClientTimeout retorna client.timeout ya parseado.
func (c *Config) ClientTimeout() time.Duration {
	d, _ := parseDuration(c.Client.Timeout)
	return d
}
