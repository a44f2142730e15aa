package models

import (
	"context"
	"strings"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/utils"
)

type Vehicle struct {
	ID          int       `gorm:"primary_key" json:"id"`
	CustomerId  *int      `gorm:"index" json:"customer_id"`
	PlateNumber string    `gorm:"size:20;not null;uniqueIndex" json:"plate_number"`
	Make        string    `gorm:"size:50" json:"make"`
	Model       string    `gorm:"size:50" json:"model"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewVehicle struct {
	CustomerId  *int   `json:"customer_id"`
	PlateNumber string `json:"plate_number" validate:"required,max=20"`
	Make        string `json:"make" validate:"max=50"`
	Model       string `json:"model" validate:"max=50"`
	Year        int    `json:"year" validate:"omitempty,gte=1900,lte=2100"`
}

// "sbc 1234 a" => "SBC1234A"
func NormalizePlateNumber(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

func (input *NewVehicle) validate(ctx context.Context, id int) error {
	input.PlateNumber = NormalizePlateNumber(input.PlateNumber)
	if err := utils.ValidateStruct(input); err != nil {
		return errInvalidInput(utils.DescribeValidationErrors(err))
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Vehicle](ctx, id); err != nil {
			return lookupError(err, "vehicle")
		}
	}
	if input.CustomerId != nil && *input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, *input.CustomerId); err != nil {
			return lookupError(err, "customer")
		}
	}
	if err := utils.ValidateUnique[Vehicle](ctx, "plate_number", input.PlateNumber, id); err != nil {
		return uniqueError(err)
	}
	return nil
}

func CreateVehicle(ctx context.Context, input *NewVehicle) (*Vehicle, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	vehicle := Vehicle{
		CustomerId:  input.CustomerId,
		PlateNumber: input.PlateNumber,
		Make:        input.Make,
		Model:       input.Model,
		Year:        input.Year,
	}
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	if err := db.WithContext(ctx).Create(&vehicle).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return &vehicle, nil
}

func UpdateVehicle(ctx context.Context, id int, input *NewVehicle) (*Vehicle, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}
	vehicle, err := utils.FetchModel[Vehicle](ctx, id)
	if err != nil {
		return nil, lookupError(err, "vehicle")
	}

	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	err = db.WithContext(ctx).Model(vehicle).Updates(map[string]interface{}{
		"CustomerId":  input.CustomerId,
		"PlateNumber": input.PlateNumber,
		"Make":        input.Make,
		"Model":       input.Model,
		"Year":        input.Year,
	}).Error
	if err != nil {
		return nil, errTransactionFailure(err)
	}
	if err := utils.RemoveRedisItem[Vehicle](id); err != nil {
		config.LogError(config.GetLogger(), "vehicle.go", "UpdateVehicle", "removing cached vehicle", id, err)
	}
	return GetVehicle(ctx, id)
}

func GetVehicle(ctx context.Context, id int) (*Vehicle, error) {
	if cached, err := utils.RetrieveRedis[Vehicle](id); err == nil && cached != nil {
		return cached, nil
	}
	vehicle, err := utils.FetchModel[Vehicle](ctx, id)
	if err != nil {
		return nil, lookupError(err, "vehicle")
	}
	if err := utils.StoreRedis(vehicle, id); err != nil {
		config.LogError(config.GetLogger(), "vehicle.go", "GetVehicle", "caching vehicle", id, err)
	}
	return vehicle, nil
}

// GetVehicles filters by owner and/or a plate prefix.
func GetVehicles(ctx context.Context, customerId *int, plate string) ([]*Vehicle, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errDatabaseUnavailable()
	}
	dbCtx := db.WithContext(ctx)
	if customerId != nil {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if plate != "" {
		dbCtx = dbCtx.Where("plate_number LIKE ?", NormalizePlateNumber(plate)+"%")
	}
	var results []*Vehicle
	if err := dbCtx.Order("plate_number").Find(&results).Error; err != nil {
		return nil, errTransactionFailure(err)
	}
	return results, nil
}
