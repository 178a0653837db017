package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends understood by STORAGE_BACKEND.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Config stores the application configuration.
type Config struct {
	ServerAddr        string
	WebAppDir         string // Optional directory with the browser UI, served at /
	StorageBackend    string // local or minio
	UploadDir         string // Directory for stored audio when StorageBackend is local
	MaxUploadBytes    int64
	AllowedExtensions []string // Lower-case, without the leading dot
	WatchUploads      bool     // Invalidate cached metadata when files change on disk
	PlaylistChecks    bool     // Walk the whole playlist after every mutation

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPrefix    string // Object key prefix for stored audio

	// Redis metadata cache, disabled when RedisHost is empty
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	MetadataCacheTTL time.Duration

	// Logging
	LogLevel      string
	LogConsole    bool
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// parseExtensions turns "mp3, .WAV,ogg" into ["mp3" "wav" "ogg"].
func parseExtensions(raw string) []string {
	var exts []string
	for _, part := range strings.Split(raw, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load does not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() *Config {
	return &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		WebAppDir:         getEnv("WEB_APP_DIR", ""),
		StorageBackend:    strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		UploadDir:         getEnv("UPLOAD_DIR", "static/music"),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,
		AllowedExtensions: parseExtensions(getEnv("ALLOWED_EXTENSIONS", "mp3,wav,ogg,flac,m4a")),
		WatchUploads:      getEnvBool("WATCH_UPLOADS", true),
		PlaylistChecks:    getEnvBool("PLAYLIST_CHECKS", false),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "playdeck"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPrefix:    getEnv("MINIO_PREFIX", "music/"),

		RedisHost:        getEnv("REDIS_HOST", ""),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		MetadataCacheTTL: getEnvDuration("METADATA_CACHE_TTL", 24*time.Hour),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogConsole:    getEnvBool("LOG_CONSOLE", false),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
	}
}

// RedisEnabled reports whether a metadata cache should be used.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}
