package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "motomar-api/logger"
	"motomar-api/models"
	"motomar-api/utils"
)

// Initialize opens the database for driver ("mysql" or "sqlite").
func Initialize(driver, databaseURL string, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "mysql" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Account{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Favorite{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	addCustomIndexes(db)
	return nil
}

type customIndex struct {
	table string
	name  string
	stmt  string
}

// Public search always filters on active/sold and orders by recency.
var customIndexes = []customIndex{
	{table: "listings", name: "idx_listings_public_recent", stmt: "CREATE INDEX idx_listings_public_recent ON listings(active, sold, created_at)"},
	{table: "listings", name: "idx_listings_seller_recent", stmt: "CREATE INDEX idx_listings_seller_recent ON listings(seller_id, created_at)"},
	{table: "favorites", name: "idx_favorites_account_recent", stmt: "CREATE INDEX idx_favorites_account_recent ON favorites(account_id, created_at)"},
}

func addCustomIndexes(db *gorm.DB) {
	for _, idx := range customIndexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		if err := db.Exec(idx.stmt).Error; err != nil {
			applog.Log.Warnw("could not create index", "index", idx.name, "error", err)
		}
	}
}

// SeedData creates the administrator account on an empty database.
func SeedData(db *gorm.DB, adminPassword string) error {
	var accountCount int64
	if err := db.Model(&models.Account{}).Count(&accountCount).Error; err != nil {
		return err
	}

	if accountCount > 0 {
		applog.Log.Debugw("database already has data, skipping seed")
		return nil
	}
	if adminPassword == "" {
		applog.Log.Warnw("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	nationalID := "1234567890"
	now := time.Now()
	admin := models.Account{
		ID:               uuid.New().String(),
		Email:            "admin@motomar.com",
		Password:         hash,
		FirstName:        "Administrador",
		LastName:         "MotoMar",
		NationalID:       &nationalID,
		City:             "Bogotá",
		Department:       "Cundinamarca",
		EmailVerified:    true,
		IDVerified:       true,
		Rating:           5.0,
		Role:             models.RoleAdmin,
		Active:           true,
		PolicyAcceptedAt: &now,
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	applog.Log.Infow("database seeded", "admin_email", admin.Email)
	return nil
}

// Ping checks connectivity for health reporting.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
