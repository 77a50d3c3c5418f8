// Package mysqlstore persists chunk map state in a MySQL table, one row per
// slot.
package mysqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/phanxgames/chunkmap"
)

const TB_CHUNKMAP_SLOT = "chunkmap_slot"

// Slot is one saved state document.
type Slot struct {
	Key       string    `gorm:"column:slot_key;primary_key;size:128"`
	Doc       string    `gorm:"column:doc;type:mediumtext"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Slot) TableName() string {
	return TB_CHUNKMAP_SLOT
}

// Store is a chunkmap.Store backed by a gorm connection.
type Store struct {
	db   *gorm.DB
	slot string
}

// Open connects to dsn and migrates the slot table.
func Open(dsn, slot string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: open: %w", err)
	}
	return New(db, slot)
}

// New wraps an existing connection and migrates the slot table.
func New(db *gorm.DB, slot string) (*Store, error) {
	if slot == "" {
		slot = chunkmap.DefaultSlot
	}
	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("mysqlstore: migrate: %w", err)
	}
	return &Store{db: db, slot: slot}, nil
}

// Load returns the slot's document, or chunkmap.ErrSlotEmpty.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var row Slot
	err := s.db.WithContext(ctx).Where("slot_key = ?", s.slot).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("mysqlstore: slot %q: %w", s.slot, chunkmap.ErrSlotEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("mysqlstore: load %q: %w", s.slot, err)
	}
	return []byte(row.Doc), nil
}

// Save upserts the slot's document.
func (s *Store) Save(ctx context.Context, data []byte) error {
	row := Slot{Key: s.slot, Doc: string(data), UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"doc", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("mysqlstore: save %q: %w", s.slot, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
