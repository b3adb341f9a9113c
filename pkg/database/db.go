package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID                   uint   `gorm:"primaryKey" json:"id"`
	KeyID                uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date                 string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount         int    `gorm:"default:0" json:"request_count"`
	TotalSuggestions     int    `gorm:"default:0" json:"total_suggestions"`
	TotalClassifications int    `gorm:"default:0" json:"total_classifications"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SelectionCount represents the selection_counts table, one row per person per day
type SelectionCount struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Date       string `gorm:"uniqueIndex:idx_date_person;not null" json:"date"`
	PersonName string `gorm:"uniqueIndex:idx_date_person;not null" json:"person_name"`
	Count      int    `gorm:"default:0" json:"count"`
}

// Options selects the database. A non-empty DSN means postgres, otherwise
// SQLitePath is opened (created if missing).
type Options struct {
	DSN        string
	SQLitePath string
	Quiet      bool
}

// Open connects to the database and migrates the schema
func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if opts.Quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	var (
		db  *gorm.DB
		err error
	)
	if opts.DSN != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		path := opts.SQLitePath
		if path == "" {
			path = "oncall.db"
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &SelectionCount{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
