package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

type LaborEntry struct {
	ID           int             `gorm:"primary_key" json:"id"`
	JobSheetId   int             `gorm:"index;not null" json:"jobsheet_id"`
	Description  string          `gorm:"size:255;not null" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	IsCompleted  bool            `gorm:"not null" json:"is_completed"`
	IsBilled     bool            `gorm:"not null" json:"is_billed"`
	WorkflowType string          `gorm:"size:20;not null" json:"workflow_type"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLaborEntry struct {
	JobsheetId   int             `json:"jobsheet_id" validate:"required,gt=0"`
	Description  string          `json:"description" validate:"required,max=255"`
	Price        decimal.Decimal `json:"price"`
	IsCompleted  bool            `json:"is_completed"`
	IsBilled     bool            `json:"is_billed"`
	WorkflowType string          `json:"workflow_type" validate:"max=20"`
}

type UpdateLaborEntryInput struct {
	Description  *string          `json:"description" validate:"omitempty,max=255"`
	Price        *decimal.Decimal `json:"price"`
	IsCompleted  *bool            `json:"is_completed"`
	IsBilled     *bool            `json:"is_billed"`
	WorkflowType *string          `json:"workflow_type" validate:"omitempty,max=20"`
}

// only completed and billed labor counts towards totals
func (entry LaborEntry) IsBillable() bool {
	return entry.IsCompleted && entry.IsBilled
}

func normalizeWorkflowType(workflowType string) string {
	code := strings.ToLower(strings.TrimSpace(workflowType))
	if code == "" {
		return WorkflowTypeGeneralLabor
	}
	return code
}

// AddLaborEntry(input) (LaborEntry,error)
// UpdateLaborEntry(id, input) (LaborEntry,error)
// DeleteLaborEntry(id) (LaborEntry,error)

func AddLaborEntry(ctx context.Context, input *NewLaborEntry) (*LaborEntry, error) {
	ctx, span := tracer.Start(ctx, "AddLaborEntry")
	defer span.End()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if input.Price.IsNegative() {
		return nil, errInvalidInput("price must not be negative")
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := lockJobSheetForChange(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddLaborEntry", err)
	}
	entry := LaborEntry{
		JobSheetId:   input.JobsheetId,
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		IsCompleted:  input.IsCompleted,
		IsBilled:     input.IsBilled,
		WorkflowType: normalizeWorkflowType(input.WorkflowType),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, rollbackWith(tx, "AddLaborEntry", err)
	}
	if _, err := evaluateCompletion(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddLaborEntry", err)
	}
	if err := commitTx(tx, "AddLaborEntry"); err != nil {
		return nil, err
	}
	return &entry, nil
}

func UpdateLaborEntry(ctx context.Context, id int, input *UpdateLaborEntryInput) (*LaborEntry, error) {
	ctx, span := tracer.Start(ctx, "UpdateLaborEntry")
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
	entry, err := fetchForUpdate[LaborEntry](tx, ctx, id, "labor entry")
	if err != nil {
		return nil, rollbackWith(tx, "UpdateLaborEntry", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, entry.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdateLaborEntry", err)
	}

	updates := map[string]interface{}{}
	if input.Description != nil {
		updates["Description"] = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		updates["Price"] = *input.Price
	}
	if input.IsCompleted != nil {
		updates["IsCompleted"] = *input.IsCompleted
	}
	if input.IsBilled != nil {
		updates["IsBilled"] = *input.IsBilled
	}
	if input.WorkflowType != nil {
		updates["WorkflowType"] = normalizeWorkflowType(*input.WorkflowType)
	}
	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
			return nil, rollbackWith(tx, "UpdateLaborEntry", err)
		}
	}
	if _, err := evaluateCompletion(tx, ctx, entry.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdateLaborEntry", err)
	}
	updated, err := utils.FetchModelTx[LaborEntry](tx, ctx, id)
	if err != nil {
		return nil, rollbackWith(tx, "UpdateLaborEntry", err)
	}
	if err := commitTx(tx, "UpdateLaborEntry"); err != nil {
		return nil, err
	}
	return updated, nil
}

func DeleteLaborEntry(ctx context.Context, id int) (*LaborEntry, error) {
	ctx, span := tracer.Start(ctx, "DeleteLaborEntry")
	defer span.End()

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := fetchForUpdate[LaborEntry](tx, ctx, id, "labor entry")
	if err != nil {
		return nil, rollbackWith(tx, "DeleteLaborEntry", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, entry.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "DeleteLaborEntry", err)
	}
	if err := tx.WithContext(ctx).Delete(entry).Error; err != nil {
		return nil, rollbackWith(tx, "DeleteLaborEntry", err)
	}
	if _, err := evaluateCompletion(tx, ctx, entry.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "DeleteLaborEntry", err)
	}
	if err := commitTx(tx, "DeleteLaborEntry"); err != nil {
		return nil, err
	}
	return entry, nil
}
