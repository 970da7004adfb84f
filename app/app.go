// Package app verdrahtet Konfiguration, Datenbank, Quellen und Pipeline
// für die beiden Einstiegspunkte (einmaliger Lauf und Scheduler).
package app

import (
	"epi-etl/config"
	"epi-etl/models"
	"epi-etl/services"
	"epi-etl/storage"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// App hält die gemeinsam genutzten Ressourcen eines Prozesses.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Pipeline *services.Pipeline
}

// NewLogger erstellt den Prozess-Logger; LOG_DEVELOPMENT schaltet auf lesbare Ausgabe.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New öffnet die Datenbank, migriert das Schema und baut die Pipeline.
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, eris.Wrap(err, "connect to database")
	}
	log.Info("Successfully connected to database.", zap.String("db", cfg.DBName))

	log.Info("Running database auto-migration...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		closeDB(db)
		return nil, eris.Wrap(err, "auto-migrate")
	}

	var objects storage.ObjectAPI
	var archive services.Archive
	if cfg.S3Enabled() {
		client, err := storage.NewS3Client(cfg)
		if err != nil {
			closeDB(db)
			return nil, eris.Wrap(err, "create s3 client")
		}
		objects = client
		archive = storage.NewArchiver(client, cfg.S3Bucket, cfg.ArchiveKeep, log)
		log.Info("Extract archiving enabled", zap.String("bucket", cfg.S3Bucket), zap.Int("keep", cfg.ArchiveKeep))
	}

	opener := storage.NewOpener(objects)
	pipeline := services.NewPipeline(db, log, services.DefaultSources(cfg, opener, log), archive)

	return &App{Config: cfg, Logger: log, DB: db, Pipeline: pipeline}, nil
}

// Close schließt die Datenbankverbindung.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
