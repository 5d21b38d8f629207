package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultActiveColors are the colors on sale unless APP_ACTIVE_COLORS says otherwise.
var DefaultActiveColors = []string{
	"木青绿四季款",
	"米白四季款",
	"丁香紫四季款",
	"雨雾蓝四季款",
	"羊绒棕四季款",
	"暮云粉四季款",
	"繁星黄加暖款",
	"暮光褐加暖款",
	"松烟灰四季款",
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	MaxUploadMB    int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BOM sources.
const (
	BOMSourceFile     = "file"
	BOMSourcePostgres = "postgres"
)

type AppConfig struct {
	SafetyFactor    float64
	ActiveColors    []string
	Workers         int
	RulesFile       string
	BOMFile         string
	BOMSource       string
	LabelColumn     string
	AvailableColumn string
	OutputDir       string
}

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type CacheConfig struct {
	Enabled       bool
	Backend       string
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once and returns the shared config.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()
		instance = load(viper.GetViper())
	})

	return instance
}

func load(v *viper.Viper) *Config {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bedding")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("APP_SAFETY_FACTOR", 0.3)
	v.SetDefault("APP_ACTIVE_COLORS", strings.Join(DefaultActiveColors, ","))
	v.SetDefault("APP_WORKERS", 4)
	v.SetDefault("APP_RULES_FILE", "")
	v.SetDefault("APP_BOM_FILE", "")
	v.SetDefault("APP_BOM_SOURCE", BOMSourceFile)
	v.SetDefault("APP_LABEL_COLUMN", "商品名称")
	v.SetDefault("APP_AVAILABLE_COLUMN", "可用数")
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 600)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			MaxUploadMB:    v.GetInt("SERVER_MAX_UPLOAD_MB"),
			AllowedOrigins: SplitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			SafetyFactor:    v.GetFloat64("APP_SAFETY_FACTOR"),
			ActiveColors:    SplitList(v.GetString("APP_ACTIVE_COLORS")),
			Workers:         v.GetInt("APP_WORKERS"),
			RulesFile:       v.GetString("APP_RULES_FILE"),
			BOMFile:         v.GetString("APP_BOM_FILE"),
			BOMSource:       strings.ToLower(v.GetString("APP_BOM_SOURCE")),
			LabelColumn:     v.GetString("APP_LABEL_COLUMN"),
			AvailableColumn: v.GetString("APP_AVAILABLE_COLUMN"),
			OutputDir:       v.GetString("APP_OUTPUT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:       v.GetBool("CACHE_ENABLED"),
			Backend:       strings.ToLower(v.GetString("CACHE_BACKEND")),
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTLSeconds:    v.GetInt("CACHE_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
	}
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
