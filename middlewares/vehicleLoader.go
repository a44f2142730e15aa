package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/motoworks/workshop_backend/models"
	"gorm.io/gorm"
)

type vehicleReader struct {
	db *gorm.DB
}

func (r *vehicleReader) getVehicles(ctx context.Context, ids []int) []*dataloader.Result[*models.Vehicle] {
	var results []models.Vehicle
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Vehicle](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetVehicle(ctx context.Context, id int) (*models.Vehicle, error) {
	loaders := For(ctx)
	return loaders.vehicleLoader.Load(ctx, id)()
}

func GetVehicles(ctx context.Context, ids []int) ([]*models.Vehicle, []error) {
	loaders := For(ctx)
	return loaders.vehicleLoader.LoadMany(ctx, ids)()
}
