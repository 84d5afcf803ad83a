// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // SEATSYNC_DATABASE_URL (required)
	HTTPAddr    string // SEATSYNC_HTTP_ADDR (default ":8080")
	NATSURL     string // SEATSYNC_NATS_URL (optional, empty = no events)
	AuthToken   string // SEATSYNC_AUTH_TOKEN (optional, empty = auth disabled)

	// Backup settings
	BackupInterval   time.Duration // SEATSYNC_BACKUP_INTERVAL (default 3m; 0 = disabled)
	BackupS3Bucket   string        // SEATSYNC_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // SEATSYNC_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // SEATSYNC_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // SEATSYNC_BACKUP_S3_KEY (default "seatsync/backup.jsonl")
	BackupFile       string        // SEATSYNC_BACKUP_FILE (enables local file when set)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("SEATSYNC_DATABASE_URL"),
		HTTPAddr:         envOrDefault("SEATSYNC_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("SEATSYNC_NATS_URL"),
		AuthToken:        os.Getenv("SEATSYNC_AUTH_TOKEN"),
		BackupS3Bucket:   os.Getenv("SEATSYNC_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("SEATSYNC_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("SEATSYNC_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("SEATSYNC_BACKUP_S3_KEY", "seatsync/backup.jsonl"),
		BackupFile:       os.Getenv("SEATSYNC_BACKUP_FILE"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("SEATSYNC_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("SEATSYNC_BACKUP_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("SEATSYNC_BACKUP_INTERVAL: %w", err)
		}
		c.BackupInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
