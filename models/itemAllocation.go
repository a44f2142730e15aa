package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ItemAllocation records stock drawn from a supplier invoice item onto a job sheet.
type ItemAllocation struct {
	ID                    int       `gorm:"primary_key" json:"id"`
	SupplierInvoiceItemId int       `gorm:"index;not null" json:"invoice_item_id"`
	JobSheetId            int       `gorm:"index;not null" json:"jobsheet_id"`
	Quantity              int       `gorm:"not null" json:"quantity"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewItemAllocation struct {
	InvoiceItemId int `json:"invoice_item_id" validate:"required,gt=0"`
	JobsheetId    int `json:"jobsheet_id" validate:"required,gt=0"`
	Quantity      int `json:"quantity" validate:"required,gt=0"`
}

// AllocationView joins an allocation with its invoice item, invoice and supplier.
type AllocationView struct {
	ID                    int             `json:"id"`
	SupplierInvoiceItemId int             `json:"invoice_item_id"`
	JobSheetId            int             `json:"jobsheet_id"`
	Quantity              int             `json:"quantity"`
	CreatedAt             time.Time       `json:"created_at"`
	Description           string          `json:"description"`
	CostPrice             decimal.Decimal `json:"cost_price"`
	InvoiceNumber         string          `json:"invoice_number"`
	InvoiceDate           time.Time       `json:"invoice_date"`
	SupplierName          string          `json:"supplier_name"`
}

// AllocationResult is one allocation together with the job sheet line it produced.
type AllocationResult struct {
	Allocation *ItemAllocation `json:"allocation"`
	Item       *JobSheetItem   `json:"item"`
}

// AllocateInventory(allocations) ([]AllocationResult,error)
// GetAllocationsForJobsheet(jobSheetId) ([]AllocationView,error)

func AllocateInventory(ctx context.Context, allocations []*NewItemAllocation) ([]*AllocationResult, error) {
	return AllocateInventoryWithPricing(ctx, DefaultPricing(), allocations)
}

// AllocateInventoryWithPricing draws every requested quantity from supplier
// stock in a single transaction. Either all allocations apply or none do.
// Each allocation decrements remaining quantity, adds a priced job sheet
// line and refreshes the job sheet's stored total.
func AllocateInventoryWithPricing(ctx context.Context, pricing PricingStrategy, allocations []*NewItemAllocation) ([]*AllocationResult, error) {
	ctx, span := tracer.Start(ctx, "AllocateInventory")
	defer span.End()
	span.SetAttributes(attribute.Int("allocations.count", len(allocations)))

	if len(allocations) == 0 {
		return nil, errInvalidInput("at least one allocation is required")
	}
	lockKeys := make([]string, 0, len(allocations))
	for i, input := range allocations {
		if input == nil {
			return nil, errInvalidInput(fmt.Sprintf("allocation %d is empty", i+1))
		}
		if err := utils.ValidateStruct(input); err != nil {
			return nil, errInvalidInput(fmt.Sprintf("allocation %d: %s", i+1, utils.DescribeValidationErrors(err)))
		}
		lockKeys = append(lockKeys, fmt.Sprintf("SupplierInvoiceItem:%d", input.InvoiceItemId))
	}

	release := utils.ObtainLocks(ctx, "itemAllocation.go", "AllocateInventory", lockKeys...)
	defer release()

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}

	jobSheetIds, invoiceItemIds := allocationLockOrder(allocations)
	if err := lockAllocationRows(tx, ctx, jobSheetIds, invoiceItemIds); err != nil {
		return nil, rollbackWith(tx, "AllocateInventory", err)
	}

	results := make([]*AllocationResult, 0, len(allocations))
	for _, input := range allocations {
		result, err := allocateOne(tx, ctx, pricing, input)
		if err != nil {
			return nil, rollbackWith(tx, "AllocateInventory", err)
		}
		if err := recomputeJobSheetTotal(tx, ctx, input.JobsheetId); err != nil {
			return nil, rollbackWith(tx, "AllocateInventory", err)
		}
		results = append(results, result)
	}

	for _, id := range jobSheetIds {
		if _, err := evaluateCompletion(tx, ctx, id); err != nil {
			return nil, rollbackWith(tx, "AllocateInventory", err)
		}
	}

	if err := commitTx(tx, "AllocateInventory"); err != nil {
		return nil, err
	}
	return results, nil
}

// allocationLockOrder returns the distinct job sheet and invoice item ids of
// a batch in ascending order.
func allocationLockOrder(allocations []*NewItemAllocation) ([]int, []int) {
	jobSheetIds := make([]int, 0, len(allocations))
	invoiceItemIds := make([]int, 0, len(allocations))
	for _, input := range allocations {
		jobSheetIds = append(jobSheetIds, input.JobsheetId)
		invoiceItemIds = append(invoiceItemIds, input.InvoiceItemId)
	}
	jobSheetIds = utils.UniqueSlice(jobSheetIds)
	invoiceItemIds = utils.UniqueSlice(invoiceItemIds)
	sort.Ints(jobSheetIds)
	sort.Ints(invoiceItemIds)
	return jobSheetIds, invoiceItemIds
}

// lockAllocationRows locks every row a batch touches before any write:
// job sheets first, then invoice items, each in ascending id order.
func lockAllocationRows(tx *gorm.DB, ctx context.Context, jobSheetIds []int, invoiceItemIds []int) error {
	for _, id := range jobSheetIds {
		if _, err := lockJobSheetForChange(tx, ctx, id); err != nil {
			return err
		}
	}
	for _, id := range invoiceItemIds {
		// a missing invoice item is NotFound, not InsufficientQuantity
		if _, err := fetchForUpdate[SupplierInvoiceItem](tx, ctx, id, "supplier invoice item"); err != nil {
			return err
		}
	}
	return nil
}

func allocateOne(tx *gorm.DB, ctx context.Context, pricing PricingStrategy, input *NewItemAllocation) (*AllocationResult, error) {
	invoiceItem, err := fetchForUpdate[SupplierInvoiceItem](tx, ctx, input.InvoiceItemId, "supplier invoice item")
	if err != nil {
		return nil, err
	}
	if input.Quantity > invoiceItem.RemainingQuantity {
		return nil, errInsufficientQuantity()
	}

	allocation := ItemAllocation{
		SupplierInvoiceItemId: invoiceItem.ID,
		JobSheetId:            input.JobsheetId,
		Quantity:              input.Quantity,
	}
	if err := tx.WithContext(ctx).Create(&allocation).Error; err != nil {
		return nil, err
	}

	// guarded decrement; zero rows means someone else took the stock first
	res := tx.WithContext(ctx).Model(&SupplierInvoiceItem{}).
		Where("id = ? AND remaining_quantity >= ?", invoiceItem.ID, input.Quantity).
		Update("remaining_quantity", gorm.Expr("remaining_quantity - ?", input.Quantity))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errInsufficientQuantity()
	}

	cost := invoiceItem.CostPrice
	item := JobSheetItem{
		JobSheetId:       input.JobsheetId,
		ProductId:        invoiceItem.ProductId,
		ItemAllocationId: &allocation.ID,
		Description:      invoiceItem.Description,
		Quantity:         input.Quantity,
		Price:            pricing.SalePrice(cost),
		CostPrice:        &cost,
	}
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &AllocationResult{Allocation: &allocation, Item: &item}, nil
}

// reverseAllocation returns allocated stock to its invoice item and drops the allocation.
func reverseAllocation(tx *gorm.DB, ctx context.Context, allocationId int) error {
	allocation, err := fetchForUpdate[ItemAllocation](tx, ctx, allocationId, "item allocation")
	if err != nil {
		if appErr, ok := AsAppError(err); ok && appErr.Kind == ErrorKindNotFound {
			return nil
		}
		return err
	}
	if _, err := fetchForUpdate[SupplierInvoiceItem](tx, ctx, allocation.SupplierInvoiceItemId, "supplier invoice item"); err != nil {
		return err
	}
	err = tx.WithContext(ctx).Model(&SupplierInvoiceItem{}).
		Where("id = ?", allocation.SupplierInvoiceItemId).
		Update("remaining_quantity", gorm.Expr("remaining_quantity + ?", allocation.Quantity)).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(allocation).Error
}

func GetAllocationsForJobsheet(ctx context.Context, jobSheetId int) ([]*AllocationView, error) {
	if err := ensureExists[JobSheet](ctx, jobSheetId, "job sheet"); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	var results []*AllocationView
	err := db.WithContext(ctx).Raw(`
		SELECT ia.id, ia.supplier_invoice_item_id, ia.job_sheet_id, ia.quantity, ia.created_at,
			sii.description, sii.cost_price,
			si.invoice_number, si.invoice_date,
			COALESCE(s.name, '') AS supplier_name
		FROM item_allocations ia
		JOIN supplier_invoice_items sii ON sii.id = ia.supplier_invoice_item_id
		JOIN supplier_invoices si ON si.id = sii.supplier_invoice_id
		LEFT JOIN suppliers s ON s.id = si.supplier_id
		WHERE ia.job_sheet_id = ?
		ORDER BY ia.id`, jobSheetId).Scan(&results).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
