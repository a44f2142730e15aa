package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int             `gorm:"primary_key" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Sku       string          `gorm:"size:50;index" json:"sku"`
	SalePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	CostPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Sku       string          `json:"sku" validate:"max=50"`
	SalePrice decimal.Decimal `json:"sale_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

func (input *NewProduct) validate(ctx context.Context, id int) error {
	input.Sku = strings.TrimSpace(input.Sku)
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if input.SalePrice.IsNegative() || input.CostPrice.IsNegative() {
		return errInvalidInput("prices must not be negative")
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Product](ctx, id); err != nil {
			return lookupError(err, "product")
		}
	}
	if input.Sku != "" {
		if err := utils.ValidateUnique[Product](ctx, "sku", input.Sku, id); err != nil {
			return uniqueError(err)
		}
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}
	product := Product{
		Name:      input.Name,
		Sku:       input.Sku,
		SalePrice: input.SalePrice,
		CostPrice: input.CostPrice,
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"Name":      input.Name,
		"Sku":       input.Sku,
		"SalePrice": input.SalePrice,
		"CostPrice": input.CostPrice,
	}).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}
	return GetProduct(ctx, id)
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, lookupError(err, "product")
	}
	return product, nil
}

func GetProducts(ctx context.Context, name string) ([]*Product, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx)
	if name != "" {
		dbCtx = dbCtx.Where("name LIKE ? OR sku = ?", "%"+name+"%", name)
	}
	var results []*Product
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
