package models

import (
	"context"
	"errors"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JobSheet struct {
	ID         int           `gorm:"primary_key" json:"id"`
	VehicleId  *int          `gorm:"index" json:"vehicle_id"`
	CustomerId *int          `gorm:"index" json:"customer_id"`
	State      JobSheetState `gorm:"size:20;not null;index" json:"state"`
	// sum of item price * quantity, kept in step with every item change
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(7,4);default:0" json:"tax_rate"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CompletedAt  *time.Time      `json:"completed_at"`
	Items        []*JobSheetItem `gorm:"foreignKey:JobSheetId" json:"items,omitempty"`
	LaborEntries []*LaborEntry   `gorm:"foreignKey:JobSheetId" json:"labor_entries,omitempty"`
	Payments     []*Payment      `gorm:"foreignKey:JobSheetId" json:"payments,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewJobSheet struct {
	VehicleId  *int             `json:"vehicle_id"`
	CustomerId *int             `json:"customer_id"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Notes      string           `json:"notes"`
}

// UpdateJobSheetInput is a partial update; nil fields are left alone.
type UpdateJobSheetInput struct {
	VehicleId  *int             `json:"vehicle_id"`
	CustomerId *int             `json:"customer_id"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Notes      *string          `json:"notes"`
	State      *JobSheetState   `json:"state"`
}

type JobSheetFilter struct {
	State      *JobSheetState
	CustomerId *int
	VehicleId  *int
	Limit      int
}

// CreateJobSheet(input) (JobSheet,error)
// UpdateJobSheet(id, input) (JobSheet,error)
// GetJobSheet(id) (JobSheet,error)
// GetJobSheets(filter) ([]JobSheet,error)
// GetJobSheetTotals(id) (JobSheetTotalsView,error)

func CreateJobSheet(ctx context.Context, input *NewJobSheet) (*JobSheet, error) {
	ctx, span := tracer.Start(ctx, "CreateJobSheet")
	defer span.End()

	taxRate := config.DefaultTaxRate()
	if input.TaxRate != nil {
		if input.TaxRate.IsNegative() {
			return nil, errInvalidInput("tax rate must not be negative")
		}
		taxRate = *input.TaxRate
	}
	if input.CustomerId != nil {
		if err := ensureExists[Customer](ctx, *input.CustomerId, "customer"); err != nil {
			return nil, err
		}
	}
	customerId := input.CustomerId
	if input.VehicleId != nil {
		vehicle, err := utils.FetchModel[Vehicle](ctx, *input.VehicleId)
		if err != nil {
			return nil, lookupError(err, "vehicle")
		}
		// default to the vehicle's owner
		if customerId == nil {
			customerId = vehicle.CustomerId
		}
	}

	jobSheet := JobSheet{
		VehicleId:   input.VehicleId,
		CustomerId:  customerId,
		State:       JobSheetStatePending,
		TotalAmount: decimal.Zero,
		TaxRate:     taxRate,
		Notes:       input.Notes,
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&jobSheet).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return &jobSheet, nil
}

func GetJobSheet(ctx context.Context, id int) (*JobSheet, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	var jobSheet JobSheet
	err := db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("LaborEntries", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date, id") }).
		First(&jobSheet, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound("job sheet")
	}
	if err != nil {
		return nil, errTransactionFailure(err)
	}
	return &jobSheet, nil
}

// GetJobSheets lists newest first without lines.
func GetJobSheets(ctx context.Context, filter JobSheetFilter) ([]*JobSheet, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx)
	if filter.State != nil {
		dbCtx = dbCtx.Where("state = ?", *filter.State)
	}
	if filter.CustomerId != nil {
		dbCtx = dbCtx.Where("customer_id = ?", *filter.CustomerId)
	}
	if filter.VehicleId != nil {
		dbCtx = dbCtx.Where("vehicle_id = ?", *filter.VehicleId)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var results []*JobSheet
	if err := dbCtx.Order("id DESC").Limit(limit).Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}

// changedFields reports whether the input would change anything other than state.
func (input *UpdateJobSheetInput) changedFields(jobSheet *JobSheet) bool {
	if input.VehicleId != nil && (jobSheet.VehicleId == nil || *jobSheet.VehicleId != *input.VehicleId) {
		return true
	}
	if input.CustomerId != nil && (jobSheet.CustomerId == nil || *jobSheet.CustomerId != *input.CustomerId) {
		return true
	}
	if input.TaxRate != nil && !input.TaxRate.Equal(jobSheet.TaxRate) {
		return true
	}
	if input.Notes != nil && *input.Notes != jobSheet.Notes {
		return true
	}
	return false
}

// UpdateJobSheet edits header fields and moves the state machine.
// Terminal job sheets only accept a move to cancelled.
func UpdateJobSheet(ctx context.Context, id int, input *UpdateJobSheetInput) (*JobSheet, error) {
	ctx, span := tracer.Start(ctx, "UpdateJobSheet")
	defer span.End()

	if input.TaxRate != nil && input.TaxRate.IsNegative() {
		return nil, errInvalidInput("tax rate must not be negative")
	}
	if input.State != nil && !input.State.IsValid() {
		return nil, errInvalidInput("invalid state " + string(*input.State))
	}
	if input.VehicleId != nil {
		if err := ensureExists[Vehicle](ctx, *input.VehicleId, "vehicle"); err != nil {
			return nil, err
		}
	}
	if input.CustomerId != nil {
		if err := ensureExists[Customer](ctx, *input.CustomerId, "customer"); err != nil {
			return nil, err
		}
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	jobSheet, err := fetchForUpdate[JobSheet](tx, ctx, id, "job sheet")
	if err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheet", err)
	}

	if jobSheet.State.IsTerminal() && input.changedFields(jobSheet) {
		return nil, rollbackWith(tx, "UpdateJobSheet", errReadOnly(jobSheet.State))
	}

	updates := map[string]interface{}{}
	if input.VehicleId != nil {
		updates["VehicleId"] = *input.VehicleId
	}
	if input.CustomerId != nil {
		updates["CustomerId"] = *input.CustomerId
	}
	if input.TaxRate != nil {
		updates["TaxRate"] = *input.TaxRate
	}
	if input.Notes != nil {
		updates["Notes"] = *input.Notes
	}
	if input.State != nil && *input.State != jobSheet.State {
		if !jobSheet.State.CanTransitionTo(*input.State) {
			return nil, rollbackWith(tx, "UpdateJobSheet", errInvalidTransition(jobSheet.State, *input.State))
		}
		if *input.State == JobSheetStateCompleted {
			taxRate := jobSheet.TaxRate
			if input.TaxRate != nil {
				taxRate = *input.TaxRate
			}
			totals, err := snapshotTotals(tx, ctx, id, taxRate)
			if err != nil {
				return nil, rollbackWith(tx, "UpdateJobSheet", err)
			}
			if !ShouldAutoComplete(totals, jobSheet.State) {
				return nil, rollbackWith(tx, "UpdateJobSheet", errUnsettled(jobSheet.State, totals.Balance))
			}
			updates["CompletedAt"] = time.Now()
		}
		updates["State"] = *input.State
	}

	if len(updates) > 0 {
		if err := tx.Model(jobSheet).Updates(updates).Error; err != nil {
			return nil, rollbackWith(tx, "UpdateJobSheet", err)
		}
	}

	// a tax rate change can settle the balance
	if _, err := evaluateCompletion(tx, ctx, id); err != nil {
		return nil, rollbackWith(tx, "UpdateJobSheet", err)
	}

	if err := commitTx(tx, "UpdateJobSheet"); err != nil {
		return nil, err
	}
	return GetJobSheet(ctx, id)
}

func GetJobSheetTotals(ctx context.Context, id int) (*JobSheetTotalsView, error) {
	jobSheet, err := GetJobSheet(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(jobSheet.Items, jobSheet.LaborEntries, jobSheet.Payments, jobSheet.TaxRate)
	return newJobSheetTotalsView(jobSheet, totals), nil
}

// EvaluateJobSheetCompletion applies the auto-completion rule on its own transaction.
func EvaluateJobSheetCompletion(ctx context.Context, id int) (*JobSheetTotalsView, error) {
	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := fetchForUpdate[JobSheet](tx, ctx, id, "job sheet"); err != nil {
		return nil, rollbackWith(tx, "EvaluateJobSheetCompletion", err)
	}
	if _, err := evaluateCompletion(tx, ctx, id); err != nil {
		return nil, rollbackWith(tx, "EvaluateJobSheetCompletion", err)
	}
	if err := commitTx(tx, "EvaluateJobSheetCompletion"); err != nil {
		return nil, err
	}
	return GetJobSheetTotals(ctx, id)
}

// lockJobSheetForChange loads the job sheet inside tx and rejects terminal states.
func lockJobSheetForChange(tx *gorm.DB, ctx context.Context, id int) (*JobSheet, error) {
	jobSheet, err := fetchForUpdate[JobSheet](tx, ctx, id, "job sheet")
	if err != nil {
		return nil, err
	}
	if jobSheet.State.IsTerminal() {
		return nil, errReadOnly(jobSheet.State)
	}
	return jobSheet, nil
}

// recomputeJobSheetTotal sets total_amount to the sum of item lines.
func recomputeJobSheetTotal(tx *gorm.DB, ctx context.Context, id int) error {
	var total decimal.Decimal
	err := tx.WithContext(ctx).Model(&JobSheetItem{}).
		Select("COALESCE(SUM(price * quantity), 0) AS total").
		Where("job_sheet_id = ?", id).
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Model(&JobSheet{}).Where("id = ?", id).Update("total_amount", total).Error
}

// evaluateCompletion recomputes totals from the lines visible to tx and
// completes the job sheet when the auto-completion rule holds.
// It never moves a job sheet out of completed.
func evaluateCompletion(tx *gorm.DB, ctx context.Context, id int) (JobSheetTotals, error) {
	var jobSheet JobSheet
	if err := tx.WithContext(ctx).First(&jobSheet, id).Error; err != nil {
		return JobSheetTotals{}, err
	}
	totals, err := snapshotTotals(tx, ctx, id, jobSheet.TaxRate)
	if err != nil {
		return totals, err
	}
	if ShouldAutoComplete(totals, jobSheet.State) {
		err := tx.WithContext(ctx).Model(&JobSheet{}).Where("id = ?", id).Updates(map[string]interface{}{
			"state":        JobSheetStateCompleted,
			"completed_at": time.Now(),
		}).Error
		if err != nil {
			return totals, err
		}
	}
	return totals, nil
}

// snapshotTotals runs the engine over the lines persisted inside tx.
func snapshotTotals(tx *gorm.DB, ctx context.Context, id int, taxRate decimal.Decimal) (JobSheetTotals, error) {
	var items []*JobSheetItem
	if err := tx.WithContext(ctx).Where("job_sheet_id = ?", id).Find(&items).Error; err != nil {
		return JobSheetTotals{}, err
	}
	var laborEntries []*LaborEntry
	if err := tx.WithContext(ctx).Where("job_sheet_id = ?", id).Find(&laborEntries).Error; err != nil {
		return JobSheetTotals{}, err
	}
	var payments []*Payment
	if err := tx.WithContext(ctx).Where("job_sheet_id = ?", id).Find(&payments).Error; err != nil {
		return JobSheetTotals{}, err
	}
	return ComputeTotals(items, laborEntries, payments, taxRate), nil
}
