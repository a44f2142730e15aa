package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	customerLoader *dataloader.Loader[int, *models.Customer]
	vehicleLoader  *dataloader.Loader[int, *models.Vehicle]
	supplierLoader *dataloader.Loader[int, *models.Supplier]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	customerReader := &customerReader{db: conn}
	vehicleReader := &vehicleReader{db: conn}
	supplierReader := &supplierReader{db: conn}

	return &Loaders{
		customerLoader: dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
		vehicleLoader:  dataloader.NewBatchedLoader(vehicleReader.getVehicles, dataloader.WithWait[int, *models.Vehicle](time.Millisecond)),
		supplierLoader: dataloader.NewBatchedLoader(supplierReader.getSuppliers, dataloader.WithWait[int, *models.Supplier](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// For returns the request's loaders, creating a fresh set when the
// middleware did not run (commands, tests).
func For(ctx context.Context) *Loaders {
	if loaders, ok := ctx.Value(loadersKey).(*Loaders); ok {
		return loaders
	}
	return NewLoaders(config.GetDB())
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	// generate resultMap from results
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
