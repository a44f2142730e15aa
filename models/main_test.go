package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the models at a fresh in-memory database.
// A single connection keeps every statement on the same database, so
// helpers must not query config.GetDB() while a transaction is open.
func setupTestDB(t *testing.T) context.Context {
	t.Helper()
	t.Setenv("GST_RATE", "0")
	t.Setenv("SALE_MARKUP", "")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	prev := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	return context.Background()
}

func seedInvoiceItem(t *testing.T, ctx context.Context, quantity int, cost string) *models.SupplierInvoiceItem {
	t.Helper()
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Supplier " + t.Name()})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	invoice, err := models.CreateSupplierInvoice(ctx, &models.NewSupplierInvoice{
		SupplierId:    supplier.ID,
		InvoiceNumber: "INV-1",
		InvoiceDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Items: []*models.NewSupplierInvoiceItem{
			{Description: "Brake pads", Quantity: quantity, CostPrice: decimal.RequireFromString(cost)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSupplierInvoice: %v", err)
	}
	return invoice.Items[0]
}

func addInvoiceItem(t *testing.T, ctx context.Context, supplierInvoiceId int, description string, quantity int, cost string) *models.SupplierInvoiceItem {
	t.Helper()
	item := &models.SupplierInvoiceItem{
		SupplierInvoiceId: supplierInvoiceId,
		Description:       description,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		CostPrice:         decimal.RequireFromString(cost),
	}
	if err := config.GetDB().WithContext(ctx).Create(item).Error; err != nil {
		t.Fatalf("create invoice item: %v", err)
	}
	return item
}

func seedJobSheet(t *testing.T, ctx context.Context) *models.JobSheet {
	t.Helper()
	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{Notes: "test"})
	if err != nil {
		t.Fatalf("CreateJobSheet: %v", err)
	}
	return jobSheet
}

func reloadInvoiceItem(t *testing.T, ctx context.Context, id int) *models.SupplierInvoiceItem {
	t.Helper()
	var item models.SupplierInvoiceItem
	if err := config.GetDB().WithContext(ctx).First(&item, id).Error; err != nil {
		t.Fatalf("reload invoice item %d: %v", id, err)
	}
	return &item
}

func reloadJobSheet(t *testing.T, ctx context.Context, id int) *models.JobSheet {
	t.Helper()
	jobSheet, err := models.GetJobSheet(ctx, id)
	if err != nil {
		t.Fatalf("GetJobSheet(%d): %v", id, err)
	}
	return jobSheet
}

func countRows(t *testing.T, ctx context.Context, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := config.GetDB().WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
