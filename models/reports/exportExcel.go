package reports

import (
	"fmt"

	"github.com/motoworks/workshop_backend/utils"
	"github.com/xuri/excelize/v2"
)

const (
	revenueSheet  = "Revenue"
	paymentsSheet = "Payments"
)

// ExportRevenueReportExcel lays the report out as a two-sheet workbook.
func ExportRevenueReportExcel(report *RevenueReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", revenueSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(paymentsSheet); err != nil {
		return nil, err
	}

	headers := []interface{}{"Date", "Job Sheets", "Items Revenue", "Items Cost", "Gross Profit", "Labor Revenue", "Payments Collected"}
	if err := f.SetSheetRow(revenueSheet, "A1", &headers); err != nil {
		return nil, err
	}
	rows := make([]*RevenueReportRow, 0, len(report.Rows)+1)
	rows = append(rows, report.Rows...)
	rows = append(rows, &report.Total)
	for i, r := range rows {
		values := []interface{}{
			r.Date,
			r.JobSheetCount,
			utils.FormatMoney(r.ItemsRevenue),
			utils.FormatMoney(r.ItemsCost),
			utils.FormatMoney(r.GrossProfit),
			utils.FormatMoney(r.LaborRevenue),
			utils.FormatMoney(r.PaymentsCollected),
		}
		if err := f.SetSheetRow(revenueSheet, "A"+fmt.Sprint(i+2), &values); err != nil {
			return nil, err
		}
	}

	paymentHeaders := []interface{}{"Method", "Count", "Amount"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &paymentHeaders); err != nil {
		return nil, err
	}
	for i, p := range report.PaymentMethods {
		values := []interface{}{string(p.Method), p.Count, utils.FormatMoney(p.Amount)}
		if err := f.SetSheetRow(paymentsSheet, "A"+fmt.Sprint(i+2), &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}
