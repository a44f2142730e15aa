package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JobSheetItem struct {
	ID         int  `gorm:"primary_key" json:"id"`
	JobSheetId int  `gorm:"index;not null" json:"jobsheet_id"`
	ProductId  *int `gorm:"index" json:"product_id"`
	// set when the line came from supplier stock
	ItemAllocationId *int             `gorm:"index" json:"item_allocation_id"`
	Description      string           `gorm:"size:255;not null" json:"description"`
	Quantity         int              `gorm:"not null" json:"quantity"`
	Price            decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"price"`
	CostPrice        *decimal.Decimal `gorm:"type:decimal(20,4)" json:"cost_price"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJobSheetItem struct {
	JobsheetId  int              `json:"jobsheet_id" validate:"required,gt=0"`
	ProductId   *int             `json:"product_id"`
	Description string           `json:"description" validate:"max=255"`
	Quantity    int              `json:"quantity" validate:"required,gt=0"`
	Price       decimal.Decimal  `json:"price"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
}

type UpdateJobSheetItemInput struct {
	Quantity    *int             `json:"quantity" validate:"omitempty,gt=0"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description" validate:"omitempty,max=255"`
}

func (item JobSheetItem) LineTotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func (item JobSheetItem) IsAllocated() bool {
	return item.ItemAllocationId != nil
}

// AddJobSheetItem(input) (JobSheetItem,error)
// UpdateJobSheetItem(id, input) (JobSheetItem,error)
// DeleteJobSheetItem(id) (JobSheetItem,error)

func (input *NewJobSheetItem) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if input.Price.IsNegative() || (input.CostPrice != nil && input.CostPrice.IsNegative()) {
		return errInvalidInput("prices must not be negative")
	}
	input.Description = strings.TrimSpace(input.Description)
	if input.ProductId != nil && *input.ProductId <= 0 {
		return errInvalidInput("product_id must be positive when given")
	}
	if input.ProductId != nil {
		product, err := utils.FetchModel[Product](ctx, *input.ProductId)
		if err != nil {
			return lookupError(err, "product")
		}
		if input.Description == "" {
			input.Description = product.Name
		}
		if input.CostPrice == nil {
			cost := product.CostPrice
			input.CostPrice = &cost
		}
	}
	if input.Description == "" {
		return errInvalidInput("description is required")
	}
	return nil
}

// AddJobSheetItem adds an ad hoc line that does not draw on supplier stock.
func AddJobSheetItem(ctx context.Context, input *NewJobSheetItem) (*JobSheetItem, error) {
	ctx, span := tracer.Start(ctx, "AddJobSheetItem")
	defer span.End()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := lockJobSheetForChange(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddJobSheetItem", err)
	}

	item := JobSheetItem{
		JobSheetId:  input.JobsheetId,
		ProductId:   input.ProductId,
		Description: input.Description,
		Quantity:    input.Quantity,
		Price:       input.Price,
		CostPrice:   input.CostPrice,
	}
	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, rollbackWith(tx, "AddJobSheetItem", err)
	}
	if err := afterItemChange(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddJobSheetItem", err)
	}
	if err := commitTx(tx, "AddJobSheetItem"); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateJobSheetItem edits price and description. Quantity can only change
// on ad hoc lines; allocated stock has to be removed and allocated again.
func UpdateJobSheetItem(ctx context.Context, id int, input *UpdateJobSheetItemInput) (*JobSheetItem, error) {
	ctx, span := tracer.Start(ctx, "UpdateJobSheetItem")
	defer span.End()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, errInvalidInput("price must not be negative")
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return nil, errInvalidInput("description is required")
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	item, err := fetchForUpdate[JobSheetItem](tx, ctx, id, "job sheet item")
	if err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheetItem", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, item.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheetItem", err)
	}

	updates := map[string]interface{}{}
	if input.Quantity != nil && *input.Quantity != item.Quantity {
		if item.IsAllocated() {
			return nil, rollbackWith(tx, "UpdateJobSheetItem", errInvalidInput("quantity of allocated stock cannot be changed; remove the item and allocate again"))
		}
		updates["Quantity"] = *input.Quantity
	}
	if input.Price != nil {
		updates["Price"] = *input.Price
	}
	if input.Description != nil {
		updates["Description"] = strings.TrimSpace(*input.Description)
	}
	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
			return nil, rollbackWith(tx, "UpdateJobSheetItem", err)
		}
	}
	if err := afterItemChange(tx, ctx, item.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheetItem", err)
	}
	updated, err := utils.FetchModelTx[JobSheetItem](tx, ctx, id)
	if err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheetItem", err)
	}
	if err := commitTx(tx, "UpdateJobSheetItem"); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteJobSheetItem removes a line; allocated stock goes back to its invoice item.
func DeleteJobSheetItem(ctx context.Context, id int) (*JobSheetItem, error) {
	ctx, span := tracer.Start(ctx, "DeleteJobSheetItem")
	defer span.End()

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	item, err := fetchForUpdate[JobSheetItem](tx, ctx, id, "job sheet item")
	if err != nil {
		return nil, rollbackWith(tx, "DeleteJobSheetItem", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, item.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "DeleteJobSheetItem", err)
	}
	if err := tx.WithContext(ctx).Delete(item).Error; err != nil {
		return nil, rollbackWith(tx, "DeleteJobSheetItem", err)
	}
	if item.ItemAllocationId != nil {
		if err := reverseAllocation(tx, ctx, *item.ItemAllocationId); err != nil {
			return nil, rollbackWith(tx, "DeleteJobSheetItem", err)
		}
	}
	if err := afterItemChange(tx, ctx, item.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "DeleteJobSheetItem", err)
	}
	if err := commitTx(tx, "DeleteJobSheetItem"); err != nil {
		return nil, err
	}
	return item, nil
}

func afterItemChange(tx *gorm.DB, ctx context.Context, jobSheetId int) error {
	if err := recomputeJobSheetTotal(tx, ctx, jobSheetId); err != nil {
		return err
	}
	_, err := evaluateCompletion(tx, ctx, jobSheetId)
	return err
}
