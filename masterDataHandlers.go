package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/middlewares"
	"github.com/motoworks/workshop_backend/models"
)

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCustomer
		if !bindJSON(c, &input) {
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := models.GetCustomers(c.Request.Context(), c.Query("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewCustomer
		if !bindJSON(c, &input) {
			return
		}
		customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewVehicle
		if !bindJSON(c, &input) {
			return
		}
		vehicle, err := models.CreateVehicle(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, vehicle)
	}
}

func listVehiclesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId, err := queryIntPtr(c, "customer_id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
			return
		}
		vehicles, err := models.GetVehicles(c.Request.Context(), customerId, c.Query("plate"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vehicles)
	}
}

func getVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		vehicle, err := models.GetVehicle(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

func updateVehicleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewVehicle
		if !bindJSON(c, &input) {
			return
		}
		vehicle, err := models.UpdateVehicle(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProduct
		if !bindJSON(c, &input) {
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := models.GetProducts(c.Request.Context(), c.Query("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewProduct
		if !bindJSON(c, &input) {
			return
		}
		product, err := models.UpdateProduct(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func createSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSupplier
		if !bindJSON(c, &input) {
			return
		}
		supplier, err := models.CreateSupplier(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, supplier)
	}
}

func listSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		suppliers, err := models.GetSuppliers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, suppliers)
	}
}

// supplierInvoiceResponse carries the supplier name alongside the invoice.
type supplierInvoiceResponse struct {
	*models.SupplierInvoice
	SupplierName string `json:"supplier_name"`
}

func createSupplierInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSupplierInvoice
		if !bindJSON(c, &input) {
			return
		}
		invoice, err := models.CreateSupplierInvoice(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func listSupplierInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		supplierId, err := queryIntPtr(c, "supplier_id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
			return
		}
		invoices, err := models.GetSupplierInvoices(ctx, supplierId)
		if err != nil {
			respondError(c, err)
			return
		}
		ids := make([]int, 0, len(invoices))
		for _, invoice := range invoices {
			ids = append(ids, invoice.SupplierId)
		}
		suppliers, _ := middlewares.GetSuppliers(ctx, ids)
		results := make([]*supplierInvoiceResponse, 0, len(invoices))
		for i, invoice := range invoices {
			response := &supplierInvoiceResponse{SupplierInvoice: invoice}
			if i < len(suppliers) && suppliers[i] != nil {
				response.SupplierName = suppliers[i].Name
			}
			results = append(results, response)
		}
		c.JSON(http.StatusOK, results)
	}
}

func getSupplierInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, ok := paramId(c)
		if !ok {
			return
		}
		invoice, err := models.GetSupplierInvoice(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		response := &supplierInvoiceResponse{SupplierInvoice: invoice}
		if supplier, err := middlewares.GetSupplier(ctx, invoice.SupplierId); err == nil && supplier != nil {
			response.SupplierName = supplier.Name
		}
		c.JSON(http.StatusOK, response)
	}
}

func listAvailableStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		productId, err := queryIntPtr(c, "product_id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
			return
		}
		items, err := models.GetAvailableStock(c.Request.Context(), models.StockFilter{
			ProductId:   productId,
			Description: c.Query("q"),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}
