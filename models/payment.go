package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	JobSheetId  int             `gorm:"index;not null" json:"jobsheet_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Method      PaymentMethod   `gorm:"size:20;not null" json:"method"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	JobsheetId  int             `json:"jobsheet_id" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required"`
	PaymentDate *time.Time      `json:"payment_date"`
	Notes       string          `json:"notes"`
}

type UpdatePaymentInput struct {
	Amount      *decimal.Decimal `json:"amount"`
	Method      *string          `json:"method"`
	PaymentDate *time.Time       `json:"payment_date"`
	Notes       *string          `json:"notes"`
}

// AddPayment(input) (Payment,error)
// UpdatePayment(id, input) (Payment,error)
// DeletePayment(id) (Payment,error)

// AddPayment records a payment and completes the job sheet when it settles the balance.
func AddPayment(ctx context.Context, input *NewPayment) (*Payment, error) {
	ctx, span := tracer.Start(ctx, "AddPayment")
	defer span.End()

	if err := utils.ValidateStruct(input); err != nil {
		return nil, errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if !input.Amount.IsPositive() {
		return nil, errInvalidInput("amount must be greater than zero")
	}
	method, ok := ParsePaymentMethod(input.Method)
	if !ok {
		return nil, errInvalidInput("unknown payment method " + input.Method)
	}
	paymentDate := time.Now()
	if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
		paymentDate = *input.PaymentDate
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := lockJobSheetForChange(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddPayment", err)
	}
	payment := Payment{
		JobSheetId:  input.JobsheetId,
		Amount:      input.Amount,
		Method:      method,
		PaymentDate: paymentDate,
		Notes:       strings.TrimSpace(input.Notes),
	}
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, rollbackWith(tx, "AddPayment", err)
	}
	if _, err := evaluateCompletion(tx, ctx, input.JobsheetId); err != nil {
		return nil, rollbackWith(tx, "AddPayment", err)
	}
	if err := commitTx(tx, "AddPayment"); err != nil {
		return nil, err
	}
	return &payment, nil
}

func UpdatePayment(ctx context.Context, id int, input *UpdatePaymentInput) (*Payment, error) {
	ctx, span := tracer.Start(ctx, "UpdatePayment")
	defer span.End()

	updates := map[string]interface{}{}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, errInvalidInput("amount must be greater than zero")
		}
		updates["Amount"] = *input.Amount
	}
	if input.Method != nil {
		method, ok := ParsePaymentMethod(*input.Method)
		if !ok {
			return nil, errInvalidInput("unknown payment method " + *input.Method)
		}
		updates["Method"] = method
	}
	if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
		updates["PaymentDate"] = *input.PaymentDate
	}
	if input.Notes != nil {
		updates["Notes"] = strings.TrimSpace(*input.Notes)
	}

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	payment, err := fetchForUpdate[Payment](tx, ctx, id, "payment")
	if err != nil {
		return nil, rollbackWith(tx, "UpdatePayment", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, payment.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdatePayment", err)
	}
	if len(updates) > 0 {
		if err := tx.WithContext(ctx).Model(payment).Updates(updates).Error; err != nil {
			return nil, rollbackWith(tx, "UpdatePayment", err)
		}
	}
	if _, err := evaluateCompletion(tx, ctx, payment.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "UpdatePayment", err)
	}
	updated, err := utils.FetchModelTx[Payment](tx, ctx, id)
	if err != nil {
		return nil, rollbackWith(tx, "UpdatePayment", err)
	}
	if err := commitTx(tx, "UpdatePayment"); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePayment removes a payment. A job sheet that was already completed stays completed.
func DeletePayment(ctx context.Context, id int) (*Payment, error) {
	ctx, span := tracer.Start(ctx, "DeletePayment")
	defer span.End()

	tx, err := beginTx(ctx)
	if err != nil {
		return nil, err
	}
	payment, err := fetchForUpdate[Payment](tx, ctx, id, "payment")
	if err != nil {
		return nil, rollbackWith(tx, "DeletePayment", err)
	}
	if _, err := lockJobSheetForChange(tx, ctx, payment.JobSheetId); err != nil {
		return nil, rollbackWith(tx, "DeletePayment", err)
	}
	if err := tx.WithContext(ctx).Delete(payment).Error; err != nil {
		return nil, rollbackWith(tx, "DeletePayment", err)
	}
	if err := commitTx(tx, "DeletePayment"); err != nil {
		return nil, err
	}
	return payment, nil
}

func GetPayments(ctx context.Context, jobSheetId int) ([]*Payment, error) {
	jobSheet, err := GetJobSheet(ctx, jobSheetId)
	if err != nil {
		return nil, err
	}
	return jobSheet.Payments, nil
}
