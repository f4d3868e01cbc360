package config

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"campus_map/internal/logger"
	"campus_map/internal/models"
)

var (
	// DB is the globally accessible database handle
	DB *gorm.DB
)

// indexes gorm's tags cannot express.
var caseInsensitiveIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_building_name_lower ON building (LOWER(building_name))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_room_name_lower ON room (LOWER(room_name))`,
}

// DSN builds the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s statement_timeout=%d",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone,
		c.DBStatementTimeout.Milliseconds(),
	)
}

// InitDB opens the bounded connection pool, migrates the schema and stores the handle in DB.
func InitDB(cfg Config) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.GormLogger(),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("auto-migration failed: %v", err)
	}

	DB = db
}

// Migrate creates or updates the tables and the case-insensitive name indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.Building{}, &models.Floor{}, &models.Room{}, &models.ReferenceRegion{}, &models.Route{})
	if err != nil {
		return err
	}
	for _, stmt := range caseInsensitiveIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// GetDB returns the initialized DB handle
func GetDB() *gorm.DB {
	return DB
}
