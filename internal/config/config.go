package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Storage       StorageConfig
	Redis         RedisConfig
	Elasticsearch ElasticsearchConfig
	Pipeline      PipelineConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

type StorageConfig struct {
	Provider         string
	Path             string
	AllowedUploadDir string
	SeaweedFS        SeaweedFSConfig
	S3               S3Config
}

type SeaweedFSConfig struct {
	MasterURL  string
	VolumePort int
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Endpoint        string
	ForcePathStyle  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ElasticsearchConfig struct {
	URL      string
	Username string
	Password string
}

type PipelineConfig struct {
	ThumbnailSize   int
	FolderCacheTTL  time.Duration
	FFmpegTimeout   time.Duration
	ReindexSchedule string
	WorkerCount     int
	VirusScan       bool
}

func Load() (*Config, error) {
	// .env is optional outside local development; the environment itself
	// is authoritative in containers.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %v", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "media_platform"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Storage: StorageConfig{
			Provider:         getEnv("STORAGE_PROVIDER", "local"),
			Path:             getEnv("STORAGE_PATH", "./storage/media"),
			AllowedUploadDir: getEnv("ALLOWED_UPLOAD_DIRECTORY", "./storage/media"),
			SeaweedFS: SeaweedFSConfig{
				MasterURL:  getEnv("SEAWEEDFS_MASTER_URL", "http://localhost:9333"),
				VolumePort: getEnvAsInt("SEAWEED_VOLUME_PORT", 8080),
			},
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-1"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				BucketName:      getEnv("AWS_BUCKET_NAME", ""),
				PublicURL:       getEnv("AWS_PUBLIC_URL", ""),
				Endpoint:        getEnv("AWS_ENDPOINT", ""),
				ForcePathStyle:  getEnvAsBool("AWS_FORCE_PATH_STYLE", false),
			},
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username: getEnv("ELASTICSEARCH_USERNAME", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Pipeline: PipelineConfig{
			ThumbnailSize:   getEnvAsInt("THUMBNAIL_SIZE", 200),
			FolderCacheTTL:  time.Duration(getEnvAsInt("FOLDER_CACHE_TTL", 600)) * time.Second,
			FFmpegTimeout:   time.Duration(getEnvAsInt("FFMPEG_TIMEOUT", 30)) * time.Second,
			ReindexSchedule: getEnv("REINDEX_SCHEDULE", ""),
			WorkerCount:     getEnvAsInt("WORKER_COUNT", 10),
			VirusScan:       getEnvAsBool("VIRUS_SCAN_ENABLED", false),
		},
	}

	return config, nil
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
