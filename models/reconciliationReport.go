package models

import (
	"context"
	"fmt"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	ReconciliationCheckAllocationQuantity = "ALLOCATION_QUANTITY"
	ReconciliationCheckJobSheetTotal      = "JOBSHEET_TOTAL"
)

// Drift detection output (admin-triggered).
type ReconciliationReport struct {
	ID            int       `gorm:"primary_key" json:"id"`
	CheckType     string    `gorm:"size:50;index;not null" json:"check_type"`  // e.g. ALLOCATION_QUANTITY, JOBSHEET_TOTAL
	EntityType    string    `gorm:"size:50;index;not null" json:"entity_type"` // e.g. SupplierInvoiceItem, JobSheet
	EntityId      int       `gorm:"index;not null" json:"entity_id"`
	Details       string    `gorm:"type:text" json:"details"` // human-readable mismatch detail
	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type allocationQuantityRow struct {
	EntityId          int
	Quantity          int
	RemainingQuantity int
	Allocated         int
}

type jobSheetTotalRow struct {
	EntityId int
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

// CheckAllocationDrift compares stored stock and totals against what the
// allocation and item rows imply. Nothing is modified.
func CheckAllocationDrift(ctx context.Context) ([]*ReconciliationReport, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var quantityRows []*allocationQuantityRow
	err := db.WithContext(ctx).Raw(`
		SELECT sii.id AS entity_id, sii.quantity, sii.remaining_quantity,
			COALESCE(SUM(ia.quantity), 0) AS allocated
		FROM supplier_invoice_items sii
		LEFT JOIN item_allocations ia ON ia.supplier_invoice_item_id = sii.id
		GROUP BY sii.id, sii.quantity, sii.remaining_quantity
		ORDER BY sii.id`).Scan(&quantityRows).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}

	var reports []*ReconciliationReport
	for _, row := range quantityRows {
		if row.RemainingQuantity >= 0 && row.Quantity-row.RemainingQuantity == row.Allocated {
			continue
		}
		reports = append(reports, &ReconciliationReport{
			CheckType:     ReconciliationCheckAllocationQuantity,
			EntityType:    "SupplierInvoiceItem",
			EntityId:      row.EntityId,
			Details:       fmt.Sprintf("quantity %d, remaining %d, allocated %d", row.Quantity, row.RemainingQuantity, row.Allocated),
			CorrelationId: correlationId,
		})
	}

	var totalRows []*jobSheetTotalRow
	err = db.WithContext(ctx).Raw(`
		SELECT js.id AS entity_id, js.total_amount AS stored,
			COALESCE(SUM(i.price * i.quantity), 0) AS computed
		FROM job_sheets js
		LEFT JOIN job_sheet_items i ON i.job_sheet_id = js.id
		GROUP BY js.id, js.total_amount
		ORDER BY js.id`).Scan(&totalRows).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}
	for _, row := range totalRows {
		if row.Stored.Round(4).Equal(row.Computed.Round(4)) {
			continue
		}
		reports = append(reports, &ReconciliationReport{
			CheckType:     ReconciliationCheckJobSheetTotal,
			EntityType:    "JobSheet",
			EntityId:      row.EntityId,
			Details:       fmt.Sprintf("stored %s, computed %s", row.Stored.String(), row.Computed.String()),
			CorrelationId: correlationId,
		})
	}
	return reports, nil
}

func SaveReconciliationReports(ctx context.Context, reports []*ReconciliationReport) error {
	if len(reports) == 0 {
		return nil
	}
	db := config.GetDB()
	if db == nil {
		return errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&reports).Error; err != nil {
		return errTransactionFailure(err)
	}
	return nil
}

// RepairJobSheetTotal rewrites the stored items total of one job sheet.
// Terminal job sheets are included.
func RepairJobSheetTotal(ctx context.Context, id int) error {
	tx, err := beginTx(ctx)
	if err != nil {
		return err
	}
	if _, err := fetchForUpdate[JobSheet](tx, ctx, id, "job sheet"); err != nil {
		return rollbackWith(tx, "RepairJobSheetTotal", err)
	}
	if err := recomputeJobSheetTotal(tx, ctx, id); err != nil {
		return rollbackWith(tx, "RepairJobSheetTotal", err)
	}
	return commitTx(tx, "RepairJobSheetTotal")
}
