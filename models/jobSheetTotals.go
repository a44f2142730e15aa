package models

import (
	"github.com/motoworks/workshop_backend/utils"
	"github.com/shopspring/decimal"
)

// JobSheetTotals is derived from a job sheet's lines; nothing here is stored.
type JobSheetTotals struct {
	ItemsTotal     decimal.Decimal            `json:"items_total"`
	LaborBreakdown map[string]decimal.Decimal `json:"labor_breakdown"`
	LaborTotal     decimal.Decimal            `json:"labor_total"`
	Subtotal       decimal.Decimal            `json:"subtotal"`
	TaxableAmount  decimal.Decimal            `json:"taxable_amount"`
	TaxRate        decimal.Decimal            `json:"tax_rate"`
	Tax            decimal.Decimal            `json:"tax"`
	Total          decimal.Decimal            `json:"total"`
	Paid           decimal.Decimal            `json:"paid"`
	Balance        decimal.Decimal            `json:"balance"`
}

// ComputeTotals sums items and billable labor, taxes items plus general
// labor only, and nets payments against the total. Amounts are not rounded.
func ComputeTotals(items []*JobSheetItem, laborEntries []*LaborEntry, payments []*Payment, taxRate decimal.Decimal) JobSheetTotals {
	totals := JobSheetTotals{
		ItemsTotal:     decimal.Zero,
		LaborBreakdown: make(map[string]decimal.Decimal),
		LaborTotal:     decimal.Zero,
		TaxRate:        taxRate,
		Paid:           decimal.Zero,
	}

	for _, item := range items {
		totals.ItemsTotal = totals.ItemsTotal.Add(item.LineTotal())
	}

	for _, entry := range laborEntries {
		if !entry.IsBillable() {
			continue
		}
		category := LaborCategory(entry.WorkflowType)
		totals.LaborBreakdown[category] = totals.LaborBreakdown[category].Add(entry.Price)
		totals.LaborTotal = totals.LaborTotal.Add(entry.Price)
	}

	for _, payment := range payments {
		totals.Paid = totals.Paid.Add(payment.Amount)
	}

	totals.Subtotal = totals.ItemsTotal.Add(totals.LaborTotal)
	totals.TaxableAmount = totals.ItemsTotal
	for category, amount := range totals.LaborBreakdown {
		if IsTaxableLaborCategory(category) {
			totals.TaxableAmount = totals.TaxableAmount.Add(amount)
		}
	}
	totals.Tax = utils.CalculateTaxAmount(totals.TaxableAmount, taxRate)
	totals.Total = totals.Subtotal.Add(totals.Tax)
	totals.Balance = totals.Total.Sub(totals.Paid)
	return totals
}

// DisplayBalance never shows a negative amount due; overpayment displays as zero.
func (t JobSheetTotals) DisplayBalance() decimal.Decimal {
	if t.Balance.IsNegative() {
		return decimal.Zero
	}
	return t.Balance
}

// ShouldAutoComplete is true once an open job sheet with billable work is fully paid.
func ShouldAutoComplete(totals JobSheetTotals, state JobSheetState) bool {
	if state != JobSheetStatePending && state != JobSheetStateInProgress {
		return false
	}
	return totals.Subtotal.IsPositive() && !totals.Balance.IsPositive()
}

// JobSheetTotalsView is the totals payload served to clients. TotalAmount is
// the stored items total; the computed figures are under Totals and Display.
type JobSheetTotalsView struct {
	JobSheetId     int               `json:"jobsheet_id"`
	State          JobSheetState     `json:"state"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	Totals         JobSheetTotals    `json:"totals"`
	DisplayBalance decimal.Decimal   `json:"display_balance"`
	Display        map[string]string `json:"display"`
}

func newJobSheetTotalsView(jobSheet *JobSheet, totals JobSheetTotals) *JobSheetTotalsView {
	display := map[string]string{
		"items_total": utils.FormatMoney(totals.ItemsTotal),
		"labor_total": utils.FormatMoney(totals.LaborTotal),
		"subtotal":    utils.FormatMoney(totals.Subtotal),
		"tax":         utils.FormatMoney(totals.Tax),
		"total":       utils.FormatMoney(totals.Total),
		"paid":        utils.FormatMoney(totals.Paid),
		"balance":     utils.FormatMoney(totals.DisplayBalance()),
	}
	for category, amount := range totals.LaborBreakdown {
		display[category] = utils.FormatMoney(amount)
	}
	return &JobSheetTotalsView{
		JobSheetId:     jobSheet.ID,
		State:          jobSheet.State,
		TotalAmount:    jobSheet.TotalAmount,
		Totals:         totals,
		DisplayBalance: totals.DisplayBalance(),
		Display:        display,
	}
}
