package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/middlewares"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/utils"
)

// jobSheetSummary is a list row with its customer and vehicle attached.
type jobSheetSummary struct {
	*models.JobSheet
	Customer *models.Customer `json:"customer,omitempty"`
	Vehicle  *models.Vehicle  `json:"vehicle,omitempty"`
}

func createJobSheetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewJobSheet
		if !bindJSON(c, &input) {
			return
		}
		jobSheet, err := models.CreateJobSheet(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, jobSheet)
	}
}

func listJobSheetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var filter models.JobSheetFilter
		if v := c.Query("state"); v != "" {
			state := models.JobSheetState(v)
			if !state.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state", "kind": models.ErrorKindInvalidInput})
				return
			}
			filter.State = &state
		}
		var err error
		if filter.CustomerId, err = queryIntPtr(c, "customer_id"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
			return
		}
		if filter.VehicleId, err = queryIntPtr(c, "vehicle_id"); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
			return
		}
		if v := c.Query("limit"); v != "" {
			filter.Limit, _ = strconv.Atoi(v)
		}

		jobSheets, err := models.GetJobSheets(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}

		var customerIds, vehicleIds []int
		for _, js := range jobSheets {
			if js.CustomerId != nil {
				customerIds = append(customerIds, *js.CustomerId)
			}
			if js.VehicleId != nil {
				vehicleIds = append(vehicleIds, *js.VehicleId)
			}
		}
		customers := make(map[int]*models.Customer)
		if ids := utils.UniqueSlice(customerIds); len(ids) > 0 {
			results, errs := middlewares.GetCustomers(ctx, ids)
			for i, id := range ids {
				if i < len(results) && (len(errs) <= i || errs[i] == nil) {
					customers[id] = results[i]
				}
			}
		}
		vehicles := make(map[int]*models.Vehicle)
		if ids := utils.UniqueSlice(vehicleIds); len(ids) > 0 {
			results, errs := middlewares.GetVehicles(ctx, ids)
			for i, id := range ids {
				if i < len(results) && (len(errs) <= i || errs[i] == nil) {
					vehicles[id] = results[i]
				}
			}
		}

		summaries := make([]*jobSheetSummary, 0, len(jobSheets))
		for _, js := range jobSheets {
			summary := &jobSheetSummary{JobSheet: js}
			if js.CustomerId != nil {
				summary.Customer = customers[*js.CustomerId]
			}
			if js.VehicleId != nil {
				summary.Vehicle = vehicles[*js.VehicleId]
			}
			summaries = append(summaries, summary)
		}
		c.JSON(http.StatusOK, summaries)
	}
}

func getJobSheetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		jobSheet, err := models.GetJobSheet(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		summary := &jobSheetSummary{JobSheet: jobSheet}
		if jobSheet.CustomerId != nil {
			if customer, err := middlewares.GetCustomer(ctx, *jobSheet.CustomerId); err == nil {
				summary.Customer = customer
			}
		}
		if jobSheet.VehicleId != nil {
			if vehicle, err := middlewares.GetVehicle(ctx, *jobSheet.VehicleId); err == nil {
				summary.Vehicle = vehicle
			}
		}
		c.JSON(http.StatusOK, summary)
	}
}

func updateJobSheetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.UpdateJobSheetInput
		if !bindJSON(c, &input) {
			return
		}
		jobSheet, err := models.UpdateJobSheet(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, jobSheet)
	}
}

func getJobSheetTotalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		ctx, span := tracer.Start(c.Request.Context(), "ComputeTotals")
		defer span.End()
		totals, err := models.GetJobSheetTotals(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals)
	}
}

func addJobSheetItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewJobSheetItem
		if !bindJSON(c, &input) {
			return
		}
		item, err := models.AddJobSheetItem(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func updateJobSheetItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.UpdateJobSheetItemInput
		if !bindJSON(c, &input) {
			return
		}
		item, err := models.UpdateJobSheetItem(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func deleteJobSheetItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		item, err := models.DeleteJobSheetItem(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func addLaborEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLaborEntry
		if !bindJSON(c, &input) {
			return
		}
		entry, err := models.AddLaborEntry(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	}
}

func updateLaborEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.UpdateLaborEntryInput
		if !bindJSON(c, &input) {
			return
		}
		entry, err := models.UpdateLaborEntry(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func deleteLaborEntryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		entry, err := models.DeleteLaborEntry(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	}
}

func addPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPayment
		if !bindJSON(c, &input) {
			return
		}
		payment, err := models.AddPayment(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func updatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.UpdatePaymentInput
		if !bindJSON(c, &input) {
			return
		}
		payment, err := models.UpdatePayment(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func deletePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		payment, err := models.DeletePayment(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

func listPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		payments, err := models.GetPayments(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if payments == nil {
			payments = []*models.Payment{}
		}
		c.JSON(http.StatusOK, payments)
	}
}
