package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aura-storefront/pkg/config"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
)

type stockRow struct {
	ProductID    string `gorm:"primaryKey"`
	CountInStock int
	CreatedAt    time.Time
}

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.DBConfig{
		Driver:       config.DBDriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "aura.db"),
		MaxOpenConns: 1,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to open sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.DB().AutoMigrate(&stockRow{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return client
}

func countRows(t *testing.T, client *Client) int64 {
	t.Helper()
	var count int64
	if err := client.DB().Model(&stockRow{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func TestNew_RequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite}, nil); err == nil {
		t.Fatal("expected missing DSN to fail")
	}
}

func TestNew_OpensSQLiteWithPoolSettings(t *testing.T) {
	client := newSQLiteClient(t)

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	if name := client.DB().Dialector.Name(); name != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %q", name)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected max open conns 1, got %d", got)
	}
}

func TestNowUTC(t *testing.T) {
	if loc := NowUTC().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}

	client := newSQLiteClient(t)
	if err := client.DB().Create(&stockRow{ProductID: "p1", CountInStock: 3}).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var row stockRow
	if err := client.DB().First(&row, "product_id = ?", "p1").Error; err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected autoCreateTime to be stamped")
	}
	if _, offset := row.CreatedAt.Zone(); offset != 0 {
		t.Fatalf("expected UTC timestamp, got offset %d", offset)
	}
}

func TestWithTx_RollsBackStockChanges(t *testing.T) {
	client := newSQLiteClient(t)
	ctx := context.Background()

	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&stockRow{ProductID: "p1", CountInStock: 5}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&stockRow{}).Where("product_id = ?", "p1").
			Update("count_in_stock", 0).Error; err != nil {
			return err
		}
		return errors.New("insufficient stock for p2")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}

	var row stockRow
	if err := client.DB().First(&row, "product_id = ?", "p1").Error; err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if row.CountInStock != 5 {
		t.Fatalf("expected rollback to keep stock at 5, got %d", row.CountInStock)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	client := newSQLiteClient(t)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&stockRow{ProductID: "p9"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if got := countRows(t, client); got != 0 {
		t.Fatalf("expected panic to roll back, got %d rows", got)
	}
}

func TestWrap_SharesConnection(t *testing.T) {
	client := newSQLiteClient(t)
	wrapped := Wrap(client.DB())

	if err := wrapped.Exec(context.Background(), "INSERT INTO stock_rows (product_id, count_in_stock) VALUES (?, ?)", "p2", 7).Error; err != nil {
		t.Fatalf("exec failed: %v", err)
	}
	var stock int
	if err := client.Raw(context.Background(), "SELECT count_in_stock FROM stock_rows WHERE product_id = ?", "p2").Scan(&stock).Error; err != nil {
		t.Fatalf("raw failed: %v", err)
	}
	if stock != 7 {
		t.Fatalf("expected stock 7, got %d", stock)
	}
}
