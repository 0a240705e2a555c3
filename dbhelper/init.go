package dbhelper

import (
	"fmt"
	"os"
	"time"

	"dopplapi/models"
	"dopplapi/services"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB connects using the DB_* environment and migrates the settings table.
func OpenDB() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(
		fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			services.GetEnv("DB_USERNAME", ""),
			services.GetEnv("DB_PASSWORD", ""),
			services.GetEnv("DB_HOST", ""),
			services.GetEnv("DB_PORT", "5432"),
			services.GetEnv("DB_NAME", ""),
		),
	), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		return nil, fmt.Errorf("error while migrating settings: %w", err)
	}
	return db, nil
}

func SetupDB() *gorm.DB {
	db, err := OpenDB()
	if err != nil {
		panic(err)
	}
	return db
}

// SetupTestDB points DB_* at the local test database unless already set.
func SetupTestDB() (*gorm.DB, error) {
	for key, value := range map[string]string{
		"DB_USERNAME": "doppl",
		"DB_PASSWORD": "doppl",
		"DB_HOST":     "localhost",
		"DB_NAME":     "doppl_test",
		"DB_PORT":     "5432",
	} {
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return OpenDB()
}
