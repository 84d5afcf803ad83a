package config

import (
	"testing"
	"time"
)

// backupEnvVars lists all backup-related env vars that must be cleared between tests.
var backupEnvVars = []string{
	"SEATSYNC_BACKUP_INTERVAL", "SEATSYNC_BACKUP_S3_BUCKET", "SEATSYNC_BACKUP_S3_ENDPOINT",
	"SEATSYNC_BACKUP_S3_REGION", "SEATSYNC_BACKUP_S3_KEY", "SEATSYNC_BACKUP_FILE",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SEATSYNC_DATABASE_URL", "SEATSYNC_HTTP_ADDR", "SEATSYNC_NATS_URL", "SEATSYNC_AUTH_TOKEN"} {
		t.Setenv(key, "")
	}
	for _, key := range backupEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"SEATSYNC_DATABASE_URL": "postgres://localhost/seatsync"},
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"SEATSYNC_DATABASE_URL": "postgres://db:5432/seatsync",
				"SEATSYNC_HTTP_ADDR":    ":3000",
				"SEATSYNC_NATS_URL":     "nats://localhost:4222",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["SEATSYNC_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["SEATSYNC_DATABASE_URL"])
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoad_BackupSettings(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SEATSYNC_DATABASE_URL", "postgres://localhost/seatsync")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackupInterval != 3*time.Minute {
		t.Errorf("BackupInterval = %v, want 3m", cfg.BackupInterval)
	}
	if cfg.BackupS3Key != "seatsync/backup.jsonl" {
		t.Errorf("BackupS3Key = %q", cfg.BackupS3Key)
	}

	t.Setenv("SEATSYNC_BACKUP_INTERVAL", "30s")
	t.Setenv("SEATSYNC_BACKUP_FILE", "/var/backups/seatsync.jsonl")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BackupInterval != 30*time.Second {
		t.Errorf("BackupInterval = %v, want 30s", cfg.BackupInterval)
	}
	if cfg.BackupFile != "/var/backups/seatsync.jsonl" {
		t.Errorf("BackupFile = %q", cfg.BackupFile)
	}
}

func TestLoad_BadInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("SEATSYNC_DATABASE_URL", "postgres://localhost/seatsync")
	t.Setenv("SEATSYNC_BACKUP_INTERVAL", "whenever")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid interval")
	}
}
