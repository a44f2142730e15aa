package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/motoworks/workshop_backend/models"
	"gorm.io/gorm"
)

type supplierReader struct {
	db *gorm.DB
}

func (r *supplierReader) getSuppliers(ctx context.Context, ids []int) []*dataloader.Result[*models.Supplier] {
	var results []models.Supplier
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Supplier](len(ids), err)
	}

	return generateLoaderResults(results, ids)
}

func GetSupplier(ctx context.Context, id int) (*models.Supplier, error) {
	loaders := For(ctx)
	return loaders.supplierLoader.Load(ctx, id)()
}

func GetSuppliers(ctx context.Context, ids []int) ([]*models.Supplier, []error) {
	loaders := For(ctx)
	return loaders.supplierLoader.LoadMany(ctx, ids)()
}
