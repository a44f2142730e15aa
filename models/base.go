package models

import (
	"context"
	"errors"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("github.com/motoworks/workshop_backend/models")

// lockForUpdate adds SELECT ... FOR UPDATE on dialects that support it.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// rollbackWith rolls back tx and returns err; errors that are not
// already classified become a TransactionFailure.
func rollbackWith(tx *gorm.DB, funcName string, err error) error {
	tx.Rollback()
	if _, ok := AsAppError(err); ok {
		return err
	}
	config.LogError(config.GetLogger(), "models", funcName, "transaction rolled back", nil, err)
	return errTransactionFailure(err)
}

func errDatabaseUnavailable() error {
	return errTransactionFailure(errors.New("database is not connected"))
}

func beginTx(ctx context.Context) (*gorm.DB, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errTransactionFailure(tx.Error)
	}
	return tx, nil
}

func commitTx(tx *gorm.DB, funcName string) error {
	if err := tx.Commit().Error; err != nil {
		return rollbackWith(tx, funcName, err)
	}
	return nil
}

// fetchForUpdate loads a row by id inside tx, locking it where supported.
func fetchForUpdate[T any](tx *gorm.DB, ctx context.Context, id int, resource string) (*T, error) {
	var result T
	err := lockForUpdate(tx).WithContext(ctx).First(&result, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound(resource)
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ensureExists turns a missing referenced row into NotFound.
func ensureExists[T any](ctx context.Context, id int, resource string) error {
	var count int64
	db := config.GetDB()
	if db == nil {
		return errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return errTransactionFailure(err)
	}
	if count == 0 {
		return errNotFound(resource)
	}
	return nil
}

// lookupError classifies errors returned by the utils fetch/validate helpers.
func lookupError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return errNotFound(resource)
	}
	return errTransactionFailure(err)
}

// uniqueError classifies errors returned by utils.ValidateUnique.
func uniqueError(err error) error {
	if errors.Is(err, utils.ErrorDuplicate) {
		return errInvalidInput(err.Error())
	}
	return errTransactionFailure(err)
}
