package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends understood by sources.Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendMinIO    = "minio"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogDir   string `yaml:"log_dir"`

	StorageBackend string `yaml:"storage_backend"`
	DataDir        string `yaml:"data_dir"`
	SQLitePath     string `yaml:"sqlite_path"`

	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBName     string `yaml:"db_name"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"minio_access_key"`
	MinIOSecretKey string `yaml:"minio_secret_key"`
	MinIOBucket    string `yaml:"minio_bucket"`
	MinIOSecure    bool   `yaml:"minio_secure"`

	JWTSecret      string `yaml:"jwt_secret"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr:       ":8000",
		LogDir:         "./logs",
		StorageBackend: BackendFile,
		DataDir:        "./data",
		SQLitePath:     "./data/stickgpt.db",
		DBPort:         "5432",
		RedisPrefix:    "stickgpt:",
		MinIOBucket:    "stickgpt",
		MetricsEnabled: true,
	}
}

// LoadConfig reads .env, then the YAML file named by STICKGPT_CONFIG, then
// the environment. Later sources win.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "config: reading .env:", err)
	}

	cfg := Defaults()
	if path := os.Getenv("STICKGPT_CONFIG"); path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
		} else {
			cfg = fileCfg
		}
	}
	return applyEnv(cfg)
}

// LoadFile overlays the YAML document at path on top of base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.StorageBackend = getEnv("STORAGE_BACKEND", cfg.StorageBackend)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = getEnv("REDIS_PREFIX", cfg.RedisPrefix)
	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.MinIOAccessKey)
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", cfg.MinIOSecretKey)
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)
	cfg.MinIOSecure = getEnvBool("MINIO_SECURE", cfg.MinIOSecure)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	return cfg
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}
