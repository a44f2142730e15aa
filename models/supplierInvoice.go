package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

type SupplierInvoice struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	SupplierId    int                    `gorm:"index;not null" json:"supplier_id"`
	InvoiceNumber string                 `gorm:"size:50;not null" json:"invoice_number"`
	InvoiceDate   time.Time              `gorm:"not null" json:"invoice_date"`
	Notes         string                 `gorm:"type:text" json:"notes"`
	Items         []*SupplierInvoiceItem `gorm:"foreignKey:SupplierInvoiceId" json:"items"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

// SupplierInvoiceItem is a stock line; RemainingQuantity is what is still
// available for allocation to job sheets.
type SupplierInvoiceItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	SupplierInvoiceId int             `gorm:"index;not null" json:"supplier_invoice_id"`
	ProductId         *int            `gorm:"index" json:"product_id"`
	Description       string          `gorm:"size:255;not null" json:"description"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	RemainingQuantity int             `gorm:"not null" json:"remaining_quantity"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_price"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplierInvoice struct {
	SupplierId    int                       `json:"supplier_id" validate:"required,gt=0"`
	InvoiceNumber string                    `json:"invoice_number" validate:"required,max=50"`
	InvoiceDate   time.Time                 `json:"invoice_date" validate:"required"`
	Notes         string                    `json:"notes"`
	Items         []*NewSupplierInvoiceItem `json:"items" validate:"required,min=1,dive"`
}

type NewSupplierInvoiceItem struct {
	ProductId   *int            `json:"product_id"`
	Description string          `json:"description" validate:"max=255"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// StockFilter narrows the available-stock listing.
type StockFilter struct {
	ProductId   *int
	Description string
}

func (input *NewSupplierInvoice) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return lookupError(err, "supplier")
	}

	var productIds []int
	for _, item := range input.Items {
		if item.CostPrice.IsNegative() || item.TotalPrice.IsNegative() {
			return errInvalidInput("prices must not be negative")
		}
		if item.ProductId != nil && *item.ProductId <= 0 {
			return errInvalidInput("product_id must be positive when given")
		}
		if item.ProductId != nil {
			productIds = append(productIds, *item.ProductId)
		} else if strings.TrimSpace(item.Description) == "" {
			return errInvalidInput("description is required for items without a product")
		}
	}
	if err := utils.ValidateResourcesId[Product](ctx, productIds); err != nil {
		return lookupError(err, "product")
	}
	return nil
}

func CreateSupplierInvoice(ctx context.Context, input *NewSupplierInvoice) (*SupplierInvoice, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	// product names fill in blank descriptions
	productNames := make(map[int]string)
	var productIds []int
	for _, item := range input.Items {
		if item.ProductId != nil {
			productIds = append(productIds, *item.ProductId)
		}
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if len(productIds) > 0 {
		var products []*Product
		if err := db.WithContext(ctx).Where("id IN ?", utils.UniqueSlice(productIds)).Find(&products).Error; err != nil {
			return nil, errTransactionFailure(err)
		}
		for _, p := range products {
			productNames[p.ID] = p.Name
		}
	}

	invoice := SupplierInvoice{
		SupplierId:    input.SupplierId,
		InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
		InvoiceDate:   input.InvoiceDate,
		Notes:         input.Notes,
	}
	for _, item := range input.Items {
		description := strings.TrimSpace(item.Description)
		if description == "" && item.ProductId != nil {
			description = productNames[*item.ProductId]
		}
		totalPrice := item.TotalPrice
		if totalPrice.IsZero() {
			totalPrice = item.CostPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		invoice.Items = append(invoice.Items, &SupplierInvoiceItem{
			ProductId:         item.ProductId,
			Description:       description,
			Quantity:          item.Quantity,
			RemainingQuantity: item.Quantity,
			CostPrice:         item.CostPrice,
			TotalPrice:        totalPrice,
		})
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&invoice).Error; err != nil {
		return nil, rollbackWith(tx, "CreateSupplierInvoice", err)
	}
	if err := commitTx(tx, "CreateSupplierInvoice"); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetSupplierInvoice(ctx context.Context, id int) (*SupplierInvoice, error) {
	invoice, err := utils.FetchModel[SupplierInvoice](ctx, id, "Items")
	if err != nil {
		return nil, lookupError(err, "supplier invoice")
	}
	return invoice, nil
}

func GetSupplierInvoices(ctx context.Context, supplierId *int) ([]*SupplierInvoice, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx).Preload("Items")
	if supplierId != nil {
		dbCtx = dbCtx.Where("supplier_id = ?", *supplierId)
	}
	var results []*SupplierInvoice
	if err := dbCtx.Order("invoice_date DESC, id DESC").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}

// GetAvailableStock lists invoice items that still have quantity to allocate, oldest first.
func GetAvailableStock(ctx context.Context, filter StockFilter) ([]*SupplierInvoiceItem, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx).Where("remaining_quantity > 0")
	if filter.ProductId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *filter.ProductId)
	}
	if filter.Description != "" {
		dbCtx = dbCtx.Where("description LIKE ?", "%"+filter.Description+"%")
	}
	var results []*SupplierInvoiceItem
	if err := dbCtx.Order("id").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
