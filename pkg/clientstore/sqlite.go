package clientstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/aura-storefront/pkg/db"
)

type stateRow struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (stateRow) TableName() string { return "client_state" }

// SQLite keeps client state in a local sqlite file so it survives restarts.
type SQLite struct {
	client *db.Client
	closed atomic.Bool
}

// NewSQLite opens (creating if needed) the state file at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("state path required")
	}
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
		NowFunc:                db.NowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("open client state: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("client state handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(&stateRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate client state: %w", err)
	}
	return &SQLite{client: db.Wrap(conn)}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	var row stateRow
	err := s.client.DB().WithContext(ctx).Where(map[string]any{"key": key}).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Value, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	row := stateRow{Key: key, Value: value}
	return s.client.DB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.client.DB().WithContext(ctx).Where(map[string]any{"key": key}).Delete(&stateRow{}).Error
}

func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}
