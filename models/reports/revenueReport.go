package reports

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

type RevenueReportRow struct {
	Date              string          `json:"date"`
	JobSheetCount     int             `json:"jobsheet_count"`
	ItemsRevenue      decimal.Decimal `json:"items_revenue"`
	ItemsCost         decimal.Decimal `json:"items_cost"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	LaborRevenue      decimal.Decimal `json:"labor_revenue"`
	PaymentsCollected decimal.Decimal `json:"payments_collected"`
}

type PaymentMethodTotal struct {
	Method models.PaymentMethod `json:"method"`
	Count  int                  `json:"count"`
	Amount decimal.Decimal      `json:"amount"`
}

type RevenueReport struct {
	FromDate       string                `json:"from_date"`
	ToDate         string                `json:"to_date"`
	Rows           []*RevenueReportRow   `json:"rows"`
	PaymentMethods []*PaymentMethodTotal `json:"payment_methods"`
	Total          RevenueReportRow      `json:"total"`
}

type revenueJobSheetRecord struct {
	JobSheetId   int
	CreatedAt    time.Time
	ItemsRevenue decimal.Decimal
	ItemsCost    decimal.Decimal
	LaborRevenue decimal.Decimal
}

type revenuePaymentRecord struct {
	PaymentDate time.Time
	Method      models.PaymentMethod
	Amount      decimal.Decimal
}

// ParseReportPeriod turns "2006-01-02" bounds into an inclusive UTC range
// covering whole days in the shop timezone.
func ParseReportPeriod(fromDate string, toDate string) (time.Time, time.Time, error) {
	location, err := time.LoadLocation(config.ShopTimezone())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := time.ParseInLocation("2006-01-02", fromDate, location)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from date")
	}
	to, err := time.ParseInLocation("2006-01-02", toDate, location)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to date")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to date is before from date")
	}
	return from.UTC(), to.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC(), nil
}

// GetRevenueReport summarises non-cancelled job sheets opened in the period
// and payments received in it, one row per shop-local day.
func GetRevenueReport(ctx context.Context, fromDate time.Time, toDate time.Time, customerId *int) (*RevenueReport, error) {
	sqlT := `
SELECT
    js.id AS job_sheet_id,
    js.created_at,
    COALESCE((SELECT SUM(i.price * i.quantity) FROM job_sheet_items i WHERE i.job_sheet_id = js.id), 0) AS items_revenue,
    COALESCE((SELECT SUM(COALESCE(i.cost_price, 0) * i.quantity) FROM job_sheet_items i WHERE i.job_sheet_id = js.id), 0) AS items_cost,
    COALESCE((SELECT SUM(l.price) FROM labor_entries l
        WHERE l.job_sheet_id = js.id AND l.is_completed = @billable AND l.is_billed = @billable), 0) AS labor_revenue
FROM
    job_sheets js
WHERE
    js.state <> @cancelled
    AND js.created_at BETWEEN @fromDate AND @toDate
    {{- if .customerId }} AND js.customer_id = @customerId {{- end }}
ORDER BY js.created_at
`
	paymentSqlT := `
SELECT p.payment_date, p.method, p.amount
FROM payments p
JOIN job_sheets js ON js.id = p.job_sheet_id
WHERE
    js.state <> @cancelled
    AND p.payment_date BETWEEN @fromDate AND @toDate
    {{- if .customerId }} AND js.customer_id = @customerId {{- end }}
ORDER BY p.payment_date
`
	templateData := map[string]interface{}{
		"customerId": utils.DereferencePtr(customerId),
	}
	sql, err := utils.ExecTemplate(sqlT, templateData)
	if err != nil {
		return nil, err
	}
	paymentSql, err := utils.ExecTemplate(paymentSqlT, templateData)
	if err != nil {
		return nil, err
	}
	params := map[string]interface{}{
		"billable":   true,
		"cancelled":  models.JobSheetStateCancelled,
		"fromDate":   fromDate,
		"toDate":     toDate,
		"customerId": customerId,
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("database is not connected")
	}
	var jobSheets []*revenueJobSheetRecord
	if err := db.WithContext(ctx).Raw(sql, params).Scan(&jobSheets).Error; err != nil {
		return nil, err
	}
	var payments []*revenuePaymentRecord
	if err := db.WithContext(ctx).Raw(paymentSql, params).Scan(&payments).Error; err != nil {
		return nil, err
	}

	report, err := buildRevenueReport(jobSheets, payments, config.ShopTimezone())
	if err != nil {
		return nil, err
	}
	location, _ := time.LoadLocation(config.ShopTimezone())
	report.FromDate = fromDate.In(location).Format("2006-01-02")
	report.ToDate = toDate.In(location).Format("2006-01-02")
	return report, nil
}

func buildRevenueReport(jobSheets []*revenueJobSheetRecord, payments []*revenuePaymentRecord, timezone string) (*RevenueReport, error) {
	rowsByDate := make(map[string]*RevenueReportRow)
	rowFor := func(t time.Time) (*RevenueReportRow, error) {
		date, err := utils.ConvertToDate(t, timezone)
		if err != nil {
			return nil, err
		}
		key := date.Format("2006-01-02")
		row, ok := rowsByDate[key]
		if !ok {
			row = &RevenueReportRow{Date: key}
			rowsByDate[key] = row
		}
		return row, nil
	}

	report := &RevenueReport{
		Rows:           []*RevenueReportRow{},
		PaymentMethods: []*PaymentMethodTotal{},
		Total:          RevenueReportRow{Date: "Total"},
	}
	for _, js := range jobSheets {
		row, err := rowFor(js.CreatedAt)
		if err != nil {
			return nil, err
		}
		row.JobSheetCount++
		row.ItemsRevenue = row.ItemsRevenue.Add(js.ItemsRevenue)
		row.ItemsCost = row.ItemsCost.Add(js.ItemsCost)
		row.LaborRevenue = row.LaborRevenue.Add(js.LaborRevenue)
	}

	methodTotals := make(map[models.PaymentMethod]*PaymentMethodTotal)
	for _, p := range payments {
		row, err := rowFor(p.PaymentDate)
		if err != nil {
			return nil, err
		}
		row.PaymentsCollected = row.PaymentsCollected.Add(p.Amount)

		total, ok := methodTotals[p.Method]
		if !ok {
			total = &PaymentMethodTotal{Method: p.Method}
			methodTotals[p.Method] = total
			report.PaymentMethods = append(report.PaymentMethods, total)
		}
		total.Count++
		total.Amount = total.Amount.Add(p.Amount)
	}

	for _, row := range rowsByDate {
		row.GrossProfit = row.ItemsRevenue.Sub(row.ItemsCost)
		report.Rows = append(report.Rows, row)

		report.Total.JobSheetCount += row.JobSheetCount
		report.Total.ItemsRevenue = report.Total.ItemsRevenue.Add(row.ItemsRevenue)
		report.Total.ItemsCost = report.Total.ItemsCost.Add(row.ItemsCost)
		report.Total.GrossProfit = report.Total.GrossProfit.Add(row.GrossProfit)
		report.Total.LaborRevenue = report.Total.LaborRevenue.Add(row.LaborRevenue)
		report.Total.PaymentsCollected = report.Total.PaymentsCollected.Add(row.PaymentsCollected)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Date < report.Rows[j].Date
	})
	sort.Slice(report.PaymentMethods, func(i, j int) bool {
		return report.PaymentMethods[i].Method < report.PaymentMethods[j].Method
	})
	return report, nil
}
