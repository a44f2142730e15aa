package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
)

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20;index" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"max=30"`
	Email string `json:"email" validate:"max=100"`
	Notes string `json:"notes"`
}

// CreateCustomer(input) (Customer,error)
// UpdateCustomer(id, input) (Customer,error)
// GetCustomer(id) (Customer,error)
// GetCustomers(name) ([]Customer,error)

// validate input and normalize phone to E.164
func (input *NewCustomer) validate(ctx context.Context, id int) error {
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, id); err != nil {
			return lookupError(err, "customer")
		}
	}
	input.Name = strings.TrimSpace(input.Name)
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
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		Name:  input.Name,
		Phone: input.Phone,
		Email: input.Email,
		Notes: input.Notes,
	}

	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, lookupError(err, "customer")
	}

	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	err = db.WithContext(ctx).Model(customer).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Phone": input.Phone,
		"Email": input.Email,
		"Notes": input.Notes,
	}).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}

	if err := utils.RemoveRedisItem[Customer](id); err != nil {
		config.LogError(config.GetLogger(), "customer.go", "UpdateCustomer", "removing cached customer", id, err)
	}
	return GetCustomer(ctx, id)
}

// GetCustomer reads through the redis cache.
func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	if cached, err := utils.RetrieveRedis[Customer](id); err == nil && cached != nil {
		return cached, nil
	}

	customer, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, lookupError(err, "customer")
	}
	if err := utils.StoreRedis(customer, id); err != nil {
		config.LogError(config.GetLogger(), "customer.go", "GetCustomer", "caching customer", id, err)
	}
	return customer, nil
}

func GetCustomers(ctx context.Context, name string) ([]*Customer, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+name+"%")
	}
	var results []*Customer
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
