package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Upload    UploadConfig
	S3        S3Config
	Search    SearchConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	MigrationsDir  string
}

type DatabaseConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Database               string
	Schema                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// Expiry is the lifetime of issued tokens.
func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type UploadConfig struct {
	Driver   string // local or s3
	Dir      string
	URLPath  string
	MaxBytes int64
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type SearchConfig struct {
	DefaultLimit int
	AllLimit     int
	SimilarLimit int
	MaxLimit     int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CacheConfig struct {
	FeaturedTTL time.Duration
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

func Load() *Config {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	viper.SetDefault("REDIS_ENABLED", true)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_EXPIRY_HOURS", 720)
	viper.SetDefault("STORAGE_DRIVER", "local")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("UPLOAD_URL_PATH", "/uploads")
	viper.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	viper.SetDefault("S3_BUCKET", "car-images")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("SEARCH_DEFAULT_LIMIT", 10)
	viper.SetDefault("SEARCH_ALL_LIMIT", 1000)
	viper.SetDefault("SEARCH_SIMILAR_LIMIT", 6)
	viper.SetDefault("SEARCH_MAX_LIMIT", 1000)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("CACHE_FEATURED_TTL_SECONDS", 300)
	viper.SetDefault("ADMIN_NAME", "Administrator")

	if viper.GetString("JWT_SECRET") == "" {
		log.Printf("Warning: JWT_SECRET is not set")
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			MigrationsDir:  viper.GetString("MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:                   viper.GetString("DB_HOST"),
			Port:                   viper.GetString("DB_PORT"),
			User:                   viper.GetString("DB_USER"),
			Password:               viper.GetString("DB_PASSWORD"),
			Database:               viper.GetString("DB_DATABASE"),
			Schema:                 viper.GetString("DB_SCHEMA"),
			SSLMode:                viper.GetString("DB_SSLMODE"),
			MaxOpenConns:           viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: viper.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: viper.GetInt("JWT_EXPIRY_HOURS"),
		},
		Upload: UploadConfig{
			Driver:   viper.GetString("STORAGE_DRIVER"),
			Dir:      viper.GetString("UPLOAD_DIR"),
			URLPath:  viper.GetString("UPLOAD_URL_PATH"),
			MaxBytes: viper.GetInt64("UPLOAD_MAX_BYTES"),
		},
		S3: S3Config{
			Endpoint:  viper.GetString("S3_ENDPOINT"),
			AccessKey: viper.GetString("S3_ACCESS_KEY"),
			SecretKey: viper.GetString("S3_SECRET_KEY"),
			Bucket:    viper.GetString("S3_BUCKET"),
			UseSSL:    viper.GetBool("S3_USE_SSL"),
			PublicURL: viper.GetString("S3_PUBLIC_URL"),
		},
		Search: SearchConfig{
			DefaultLimit: viper.GetInt("SEARCH_DEFAULT_LIMIT"),
			AllLimit:     viper.GetInt("SEARCH_ALL_LIMIT"),
			SimilarLimit: viper.GetInt("SEARCH_SIMILAR_LIMIT"),
			MaxLimit:     viper.GetInt("SEARCH_MAX_LIMIT"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
		Cache: CacheConfig{
			FeaturedTTL: time.Duration(viper.GetInt("CACHE_FEATURED_TTL_SECONDS")) * time.Second,
		},
		Admin: AdminConfig{
			Name:     viper.GetString("ADMIN_NAME"),
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
		},
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
