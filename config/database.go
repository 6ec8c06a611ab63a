package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/maskyy/caketruth/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DSN builds the driver-specific connection string.
func (c DBConfig) DSN() string {
	if c.Driver == "sqlite" {
		return fmt.Sprintf("file:%s?_foreign_keys=on", c.SQLitePath)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

// OpenDB connects to the configured database.
func OpenDB(c DBConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if c.Debug {
		logLevel = logger.Info
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch c.Driver {
	case "sqlite":
		dialector = sqlite.Open(c.DSN())
	case "postgres":
		dialector = postgres.Open(c.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if c.Driver == "sqlite" && c.SQLitePath == ":memory:" {
		// every connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.FoodType{},
		&models.Food{},
		&models.ProductCategory{},
		&models.ProductBrand{},
		&models.RecipeCategory{},
		&models.Product{},
		&models.Recipe{},
		&models.RecipeComponent{},
		&models.Meal{},
		&models.DiaryEntry{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return nil
}

// Seed inserts the fixed roles and food types. It is safe to run repeatedly.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DefaultRoles).Error; err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.DefaultFoodTypes).Error; err != nil {
			return fmt.Errorf("seed food types: %w", err)
		}
		return nil
	})
}
