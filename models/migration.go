package models

import (
	"log"

	"github.com/motoworks/workshop_backend/config"
	"gorm.io/gorm"
)

func MigrateTable() {
	db := config.GetDB()

	if err := AutoMigrate(db); err != nil {
		log.Fatal(err)
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{}, &Vehicle{},
		&Product{},
		&Supplier{}, &SupplierInvoice{}, &SupplierInvoiceItem{},
		&JobSheet{}, &JobSheetItem{}, &LaborEntry{}, &Payment{},
		&ItemAllocation{},
		&ReconciliationReport{},
	)
}
