package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ListenAddr      string        `yaml:"listen_addr"`
	LogLevel        string        `yaml:"log_level"`
	LogJSON         bool          `yaml:"log_json"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	SessionStore    string        `yaml:"session_store"` // "redis" or "memory"
	SecureCookies   bool          `yaml:"secure_cookies"`
	PasswordMinLen  int           `yaml:"password_min_len"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	WelcomeMarkdown string        `yaml:"welcome_markdown"`
	Redis           Redis         `yaml:"redis"`
}

type Redis struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type Private struct {
	Pg            Pg     `yaml:"pg"`
	RedisPassword string `yaml:"redis_password"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a lib/pq connection string.
func (p Pg) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Dbname, sslMode)
}

// Defaults returns the public settings used when a key is absent from public.yaml.
func Defaults() Public {
	return Public{
		ListenAddr:     ":3000",
		LogLevel:       "info",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		SessionTTL:     24 * time.Hour,
		SessionStore:   SessionStoreRedis,
		PasswordMinLen: 5,
		BcryptCost:     12,
		Redis:          Redis{Addr: "127.0.0.1:6379"},
	}
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	switch c.Public.SessionStore {
	case SessionStoreRedis:
		if c.Public.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when session_store is %q", SessionStoreRedis)
		}
	case SessionStoreMemory:
	default:
		return fmt.Errorf("unknown session_store %q", c.Public.SessionStore)
	}
	if c.Public.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.Public.PasswordMinLen < 1 {
		return fmt.Errorf("password_min_len must be at least 1")
	}
	if c.Public.BcryptCost < 4 || c.Public.BcryptCost > 31 {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31")
	}
	if c.Private.Pg.Host == "" || c.Private.Pg.Dbname == "" {
		return fmt.Errorf("pg.host and pg.dbname are required")
	}
	return nil
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder.
// Secrets may be overridden by PG_PASSWORD and REDIS_PASSWORD.
func MustLoad(configFolder string) *Config {
	public := Defaults()
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	if v := os.Getenv("PG_PASSWORD"); v != "" {
		private.Pg.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		private.RedisPassword = v
	}

	cfg := &Config{Public: public, Private: private}
	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}
