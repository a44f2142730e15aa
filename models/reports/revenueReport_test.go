package reports

import (
	"testing"
	"time"

	"github.com/motoworks/workshop_backend/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildRevenueReportBucketsByShopDay(t *testing.T) {
	jobSheets := []*revenueJobSheetRecord{
		// 2024-03-02 01:00 in Singapore
		{JobSheetId: 1, CreatedAt: time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), ItemsRevenue: d("30"), ItemsCost: d("20"), LaborRevenue: d("50")},
		{JobSheetId: 2, CreatedAt: time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), ItemsRevenue: d("15"), ItemsCost: d("10")},
		{JobSheetId: 3, CreatedAt: time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), LaborRevenue: d("40")},
	}
	payments := []*revenuePaymentRecord{
		{PaymentDate: time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC), Method: models.PaymentMethodPayNow, Amount: d("55")},
		{PaymentDate: time.Date(2024, 3, 2, 5, 0, 0, 0, time.UTC), Method: models.PaymentMethodCash, Amount: d("80")},
		{PaymentDate: time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC), Method: models.PaymentMethodCash, Amount: d("0.5")},
	}

	report, err := buildRevenueReport(jobSheets, payments, "Asia/Singapore")
	if err != nil {
		t.Fatalf("buildRevenueReport: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Rows))
	}

	first, second := report.Rows[0], report.Rows[1]
	if first.Date != "2024-03-01" || second.Date != "2024-03-02" {
		t.Fatalf("unexpected dates %s, %s", first.Date, second.Date)
	}
	if first.JobSheetCount != 2 || !first.ItemsRevenue.Equal(d("15")) || !first.LaborRevenue.Equal(d("40")) {
		t.Fatalf("unexpected first row %+v", first)
	}
	if !first.GrossProfit.Equal(d("5")) || !first.PaymentsCollected.Equal(d("55")) {
		t.Fatalf("unexpected first row figures %+v", first)
	}
	if second.JobSheetCount != 1 || !second.GrossProfit.Equal(d("10")) || !second.PaymentsCollected.Equal(d("80.5")) {
		t.Fatalf("unexpected second row %+v", second)
	}

	if report.Total.JobSheetCount != 3 || !report.Total.ItemsRevenue.Equal(d("45")) || !report.Total.PaymentsCollected.Equal(d("135.5")) {
		t.Fatalf("unexpected total %+v", report.Total)
	}

	if len(report.PaymentMethods) != 2 {
		t.Fatalf("expected 2 payment methods, got %d", len(report.PaymentMethods))
	}
	cash := report.PaymentMethods[0]
	if cash.Method != models.PaymentMethodCash || cash.Count != 2 || !cash.Amount.Equal(d("80.5")) {
		t.Fatalf("unexpected cash total %+v", cash)
	}
}

func TestBuildRevenueReportEmpty(t *testing.T) {
	report, err := buildRevenueReport(nil, nil, "Asia/Singapore")
	if err != nil {
		t.Fatalf("buildRevenueReport: %v", err)
	}
	if report.Rows == nil || len(report.Rows) != 0 || report.PaymentMethods == nil {
		t.Fatalf("expected empty, non-nil slices, got %+v", report)
	}
	if report.Total.Date != "Total" || !report.Total.ItemsRevenue.IsZero() {
		t.Fatalf("unexpected total %+v", report.Total)
	}
}

func TestParseReportPeriod(t *testing.T) {
	t.Setenv("SHOP_TIMEZONE", "Asia/Singapore")

	from, to, err := ParseReportPeriod("2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("ParseReportPeriod: %v", err)
	}
	if !from.Equal(time.Date(2024, 2, 29, 16, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %s", from)
	}
	if !to.Equal(time.Date(2024, 3, 31, 15, 59, 59, 999999999, time.UTC)) {
		t.Fatalf("unexpected to %s", to)
	}

	if _, _, err := ParseReportPeriod("2024-03-31", "2024-03-01"); err == nil {
		t.Fatalf("expected error for reversed period")
	}
	if _, _, err := ParseReportPeriod("01/03/2024", "2024-03-31"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestExportRevenueReportExcel(t *testing.T) {
	report := &RevenueReport{
		FromDate: "2024-03-01",
		ToDate:   "2024-03-31",
		Rows: []*RevenueReportRow{
			{Date: "2024-03-01", JobSheetCount: 2, ItemsRevenue: d("45"), ItemsCost: d("30"), GrossProfit: d("15"), PaymentsCollected: d("55")},
		},
		PaymentMethods: []*PaymentMethodTotal{
			{Method: models.PaymentMethodNets, Count: 1, Amount: d("55")},
		},
		Total: RevenueReportRow{Date: "Total", JobSheetCount: 2, ItemsRevenue: d("45"), ItemsCost: d("30"), GrossProfit: d("15"), PaymentsCollected: d("55")},
	}

	f, err := ExportRevenueReportExcel(report)
	if err != nil {
		t.Fatalf("ExportRevenueReportExcel: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue(revenueSheet, "A1"); v != "Date" {
		t.Fatalf("A1 expected Date, got %q", v)
	}
	if v, _ := f.GetCellValue(revenueSheet, "C2"); v != "45.00" {
		t.Fatalf("C2 expected 45.00, got %q", v)
	}
	if v, _ := f.GetCellValue(revenueSheet, "A3"); v != "Total" {
		t.Fatalf("A3 expected Total, got %q", v)
	}
	if v, _ := f.GetCellValue(paymentsSheet, "A2"); v != "nets" {
		t.Fatalf("payments A2 expected nets, got %q", v)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("export must not modify the report rows")
	}
}
