package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	State string `json:"state"`
}

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("GST_RATE", "0")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))

	prev := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	return newRouter(config.GetLogger())
}

func doJSON(t *testing.T, r http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedStock(t *testing.T, quantity int, cost string) *models.SupplierInvoiceItem {
	t.Helper()
	ctx := context.Background()
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Parts Co"})
	require.NoError(t, err)
	invoice, err := models.CreateSupplierInvoice(ctx, &models.NewSupplierInvoice{
		SupplierId:    supplier.ID,
		InvoiceNumber: "INV-100",
		InvoiceDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Items: []*models.NewSupplierInvoiceItem{
			{Description: "Spark plug", Quantity: quantity, CostPrice: decimal.RequireFromString(cost)},
		},
	})
	require.NoError(t, err)
	return invoice.Items[0]
}

func createJobSheet(t *testing.T, r http.Handler) *models.JobSheet {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/jobsheets", map[string]any{"notes": "front brake noise"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var jobSheet models.JobSheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobSheet))
	return &jobSheet
}

func TestHealthz(t *testing.T) {
	r := setupServer(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("x-correlation-id"))
}

func TestAllocateInventoryEndpoint(t *testing.T) {
	r := setupServer(t)
	stock := seedStock(t, 10, "5")
	jobSheet := createJobSheet(t, r)

	w := doJSON(t, r, http.MethodPost, "/allocations", map[string]any{
		"allocations": []map[string]any{
			{"invoice_item_id": stock.ID, "jobsheet_id": jobSheet.ID, "quantity": 4},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Allocations []*models.AllocationResult `json:"allocations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Allocations, 1)
	assert.True(t, resp.Allocations[0].Item.Price.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, 4, resp.Allocations[0].Allocation.Quantity)

	w = doJSON(t, r, http.MethodGet, "/jobsheets/"+strconv.Itoa(jobSheet.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.JobSheet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("30")), stored.TotalAmount.String())
	require.Len(t, stored.Items, 1)

	w = doJSON(t, r, http.MethodGet, "/jobsheets/"+strconv.Itoa(jobSheet.ID)+"/allocations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []*models.AllocationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Parts Co", views[0].SupplierName)

	w = doJSON(t, r, http.MethodPost, "/allocations", map[string]any{
		"allocations": []map[string]any{
			{"invoice_item_id": stock.ID, "jobsheet_id": jobSheet.ID, "quantity": 7},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "InsufficientQuantity", errResp.Kind)
	assert.Equal(t, "Insufficient quantity available for allocation", errResp.Error)
}

func TestReadOnlyJobSheetReturnsConflict(t *testing.T) {
	r := setupServer(t)
	jobSheet := createJobSheet(t, r)

	w := doJSON(t, r, http.MethodPut, "/jobsheets/"+strconv.Itoa(jobSheet.ID), map[string]any{"state": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/labor", map[string]any{
		"jobsheet_id": jobSheet.ID,
		"description": "Chain adjustment",
		"price":       "20",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	var errResp errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "ReadOnlyJobsheet", errResp.Kind)
	assert.Equal(t, "cancelled", errResp.State)

	w = doJSON(t, r, http.MethodPut, "/jobsheets/"+strconv.Itoa(jobSheet.ID), map[string]any{"state": "in_progress"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "InvalidStateTransition", errResp.Kind)
}

func TestPaymentCompletesJobSheetOverHTTP(t *testing.T) {
	r := setupServer(t)
	jobSheet := createJobSheet(t, r)

	w := doJSON(t, r, http.MethodPost, "/jobsheets/items", map[string]any{
		"jobsheet_id": jobSheet.ID,
		"description": "Brake fluid flush",
		"quantity":    1,
		"price":       "45",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/jobsheets/payments", map[string]any{
		"jobsheet_id": jobSheet.ID,
		"amount":      "45",
		"method":      "paynow",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/jobsheets/"+strconv.Itoa(jobSheet.ID)+"/totals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view models.JobSheetTotalsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.JobSheetStateCompleted, view.State)
	assert.Equal(t, "0.00", view.Display["balance"])
	assert.Equal(t, "45.00", view.Display["total"])
}

func TestErrorResponses(t *testing.T) {
	r := setupServer(t)

	w := doJSON(t, r, http.MethodGet, "/jobsheets/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/jobsheets/9999/allocations", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/jobsheets/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/allocations", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = doJSON(t, r, http.MethodPost, "/allocations", map[string]any{"allocations": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequiredWithoutToken(t *testing.T) {
	r := setupServer(t)
	t.Setenv("AUTH_DISABLED", "")
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	w := doJSON(t, r, http.MethodGet, "/jobsheets", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.JwtGenerate(1, "staff")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/jobsheets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
