package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/models/reports"
)

// revenueReportParams reads ?from=&to=&customer_id=; the period defaults to the current month.
func revenueReportParams(c *gin.Context) (time.Time, time.Time, *int, bool) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		location, err := time.LoadLocation(config.ShopTimezone())
		if err != nil {
			location = time.UTC
		}
		now := time.Now().In(location)
		if from == "" {
			from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, location).Format("2006-01-02")
		}
		if to == "" {
			to = now.Format("2006-01-02")
		}
	}
	fromDate, toDate, err := reports.ParseReportPeriod(from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
		return time.Time{}, time.Time{}, nil, false
	}
	customerId, err := queryIntPtr(c, "customer_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": models.ErrorKindInvalidInput})
		return time.Time{}, time.Time{}, nil, false
	}
	return fromDate, toDate, customerId, true
}

func revenueReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, toDate, customerId, ok := revenueReportParams(c)
		if !ok {
			return
		}
		report, err := reports.GetRevenueReport(c.Request.Context(), fromDate, toDate, customerId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func exportRevenueReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, toDate, customerId, ok := revenueReportParams(c)
		if !ok {
			return
		}
		report, err := reports.GetRevenueReport(c.Request.Context(), fromDate, toDate, customerId)
		if err != nil {
			respondError(c, err)
			return
		}
		f, err := reports.ExportRevenueReportExcel(report)
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()

		filename := fmt.Sprintf("revenue_%s_%s.xlsx", report.FromDate, report.ToDate)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
