package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"oms_pandemic"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Quellen: lokaler Pfad, s3://bucket/key oder http(s)-URL, optional .gz
	CovidSource string `envconfig:"COVID_SOURCE" default:"data/raw/covid19_global_cases.csv"`
	MpoxSource  string `envconfig:"MPOX_SOURCE" default:"data/raw/mpox_global_cases.csv"`

	LogDevelopment bool `envconfig:"LOG_DEVELOPMENT" default:"false"`

	// Nur für cmd/scheduler
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// S3 ist optional; ohne Bucket wird weder gelesen noch archiviert
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Key       string `envconfig:"S3_KEY"`
	S3Secret    string `envconfig:"S3_SECRET"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	ArchiveKeep int    `envconfig:"ARCHIVE_KEEP" default:"10"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// S3Enabled meldet, ob ein Archiv-Bucket konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
