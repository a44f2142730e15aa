// seed-dev loads a small data set for local development: one customer with a
// vehicle, a supplier invoice with stock, and an open job sheet.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/shopspring/decimal"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Walk-in Customer"})
	exitOnError("customer", err)

	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{
		CustomerId:  &customer.ID,
		PlateNumber: fmt.Sprintf("DEV%d", time.Now().Unix()%100000),
		Make:        "Honda",
		Model:       "ADV 160",
		Year:        2023,
	})
	exitOnError("vehicle", err)

	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: fmt.Sprintf("Parts Supplier %d", time.Now().Unix())})
	exitOnError("supplier", err)

	invoice, err := models.CreateSupplierInvoice(ctx, &models.NewSupplierInvoice{
		SupplierId:    supplier.ID,
		InvoiceNumber: "INV-DEV-1",
		InvoiceDate:   time.Now(),
		Items: []*models.NewSupplierInvoiceItem{
			{Description: "Engine oil 10W-40 1L", Quantity: 24, CostPrice: decimal.NewFromInt(8)},
			{Description: "Brake pads (front)", Quantity: 10, CostPrice: decimal.NewFromInt(5)},
			{Description: "Spark plug", Quantity: 20, CostPrice: decimal.RequireFromString("6.50")},
		},
	})
	exitOnError("supplier invoice", err)

	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{VehicleId: &vehicle.ID, Notes: "seeded"})
	exitOnError("job sheet", err)

	fmt.Printf("customer=%d vehicle=%d supplier=%d invoice=%d jobsheet=%d\n",
		customer.ID, vehicle.ID, supplier.ID, invoice.ID, jobSheet.ID)
}

func exitOnError(what string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeding %s failed: %v\n", what, err)
		os.Exit(1)
	}
}
