package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
// Секреты (JWT, ключ каталога) задаются через ENV и никогда
// не зашиваются в код.

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type AuthConfig struct {
	// JWTSecret — base64-кодированный секрет подписи (минимум 32 байта).
	JWTSecret string `yaml:"jwt_secret"`
	// TokenExpiryHours — срок жизни токена; 0 означает дефолт (3 часа).
	TokenExpiryHours int `yaml:"token_expiry_hours"`
}

type StorageConfig struct {
	// Backend: "mongo" (по умолчанию), "maria" или "memory".
	Backend string `yaml:"backend"`

	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`

	MariaHost     string `yaml:"maria_host"`
	MariaPort     int    `yaml:"maria_port"`
	MariaDatabase string `yaml:"maria_database"`
	MariaUsername string `yaml:"maria_username"`
	MariaPassword string `yaml:"maria_password"`
}

type CacheConfig struct {
	// Enabled включает Redis-кеш ответов каталога.
	Enabled       bool   `yaml:"enabled"`
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	// TTLSeconds — срок жизни закешированных ответов каталога.
	TTLSeconds int `yaml:"ttl_seconds"`
}

type CatalogConfig struct {
	// BaseURL API каталога игр, например https://api.rawg.io/api.
	BaseURL string `yaml:"base_url"`
	// APIKey — ключ каталога; раньше был зашит в клиенте, теперь только здесь.
	APIKey string `yaml:"api_key"`
}

type ObservabilityConfig struct {
	// OTLPEndpoint — адрес OTLP коллектора (host:port, без схемы).
	// Пусто — используется дефолт экспортера (localhost:4318).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// GetOTLPEndpoint возвращает адрес коллектора с приоритетом: env -> config.
func (o *ObservabilityConfig) GetOTLPEndpoint() string {
	if v := os.Getenv("GALLERY_OTLP_ENDPOINT"); v != "" {
		return v
	}
	return o.OTLPEndpoint
}

// GetRESTPort возвращает REST порт с приоритетом: config -> env -> default.
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GALLERY_REST_PORT", 3001)
}

// GetJWTSecret возвращает секрет подписи с приоритетом: env -> config.
// ENV выигрывает, чтобы секрет не обязан был лежать в файле.
func (a *AuthConfig) GetJWTSecret() string {
	if v := os.Getenv("GALLERY_JWT_SECRET"); v != "" {
		return v
	}
	return a.JWTSecret
}

// GetMongoURI возвращает строку подключения Mongo с приоритетом: env -> config.
func (s *StorageConfig) GetMongoURI() string {
	if v := os.Getenv("GALLERY_MONGO_URI"); v != "" {
		return v
	}
	if s.MongoURI != "" {
		return s.MongoURI
	}
	return "mongodb://localhost:27017"
}

// GetAPIKey возвращает ключ каталога с приоритетом: env -> config.
func (c *CatalogConfig) GetAPIKey() string {
	if v := os.Getenv("GALLERY_RAWG_KEY"); v != "" {
		return v
	}
	return c.APIKey
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV GALLERY_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GALLERY_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
