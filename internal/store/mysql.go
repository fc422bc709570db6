package store

import (
	"fmt"
	"offer-calculator/internal/models"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormBackend persists storage documents in MySQL. It also owns the
// schema for the sync retry queue, which is only available on this
// backend.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(host, port, user, password, dbname string) (*GormBackend, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormBackend{db: db}, nil
}

// NewGormBackendFromDB wraps an existing gorm.DB instance.
func NewGormBackendFromDB(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// DB returns the underlying gorm.DB instance.
func (b *GormBackend) DB() *gorm.DB {
	return b.db
}

func (b *GormBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (b *GormBackend) InitSchema() error {
	return b.db.AutoMigrate(
		&models.StorageEntry{},
		&models.SyncRetry{},
	)
}

// Load returns the document for the key, or (nil, nil) when absent.
func (b *GormBackend) Load(key string) ([]byte, error) {
	var entry models.StorageEntry
	result := b.db.Where("storage_key = ?", key).First(&entry)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return []byte(entry.Document), nil
}

// Save upserts the document under the key.
func (b *GormBackend) Save(key string, document []byte) error {
	entry := models.StorageEntry{
		StorageKey: key,
		Document:   string(document),
		UpdatedAt:  time.Now(),
	}

	// Upsert: try to find existing row by key
	var existing models.StorageEntry
	result := b.db.Where("storage_key = ?", key).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return b.db.Create(&entry).Error
	} else if result.Error != nil {
		return result.Error
	}

	return b.db.Model(&models.StorageEntry{}).
		Where("storage_key = ?", key).
		Updates(map[string]interface{}{
			"document":   entry.Document,
			"updated_at": entry.UpdatedAt,
		}).Error
}

// Delete removes the key; a missing row is not an error.
func (b *GormBackend) Delete(key string) error {
	return b.db.Where("storage_key = ?", key).Delete(&models.StorageEntry{}).Error
}
