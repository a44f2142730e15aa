package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
)

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"max=30"`
	Email string `json:"email" validate:"max=100"`
}

func (input *NewSupplier) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errInvalidInput("invalid email")
	}
	if strings.TrimSpace(input.Phone) != "" {
		phone, err := utils.NormalizePhoneNumber(input.Phone, config.CountryCode())
		if err != nil {
			return errInvalidInput("invalid phone: " + err.Error())
		}
		input.Phone = phone
	}
	// unique name
	if err := utils.ValidateUnique[Supplier](ctx, "name", input.Name, 0); err != nil {
		return uniqueError(err)
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}
	supplier := Supplier{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, lookupError(err, "supplier")
	}
	return supplier, nil
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	var results []*Supplier
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
