package models_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/motoworks/workshop_backend/config"
	"github.com/motoworks/workshop_backend/models"
)

func TestPaymentsCompleteJobSheetOnceSettled(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{TaxRate: decPtr("9")})
	if err != nil {
		t.Fatalf("CreateJobSheet: %v", err)
	}
	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{
		JobsheetId:  jobSheet.ID,
		Description: "Front tyre",
		Quantity:    1,
		Price:       dec("100"),
	}); err != nil {
		t.Fatalf("AddJobSheetItem: %v", err)
	}

	if _, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("100"), Method: "cash"}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	view, err := models.GetJobSheetTotals(ctx, jobSheet.ID)
	if err != nil {
		t.Fatalf("GetJobSheetTotals: %v", err)
	}
	if view.State != models.JobSheetStatePending {
		t.Fatalf("state expected pending, got %s", view.State)
	}
	if !view.Totals.Balance.Equal(dec("9")) || view.Display["balance"] != "9.00" {
		t.Fatalf("balance expected 9, got %s (%s)", view.Totals.Balance, view.Display["balance"])
	}

	if _, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("9"), Method: "PayNow"}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	stored := reloadJobSheet(t, ctx, jobSheet.ID)
	if stored.State != models.JobSheetStateCompleted {
		t.Fatalf("state expected completed, got %s", stored.State)
	}
	if stored.CompletedAt == nil {
		t.Fatalf("completed_at should be set")
	}
	if len(stored.Payments) != 2 {
		t.Fatalf("expected 2 payments, got %d", len(stored.Payments))
	}

	_, err = models.AddLaborEntry(ctx, &models.NewLaborEntry{JobsheetId: jobSheet.ID, Description: "Wash", Price: dec("5")})
	if !errors.Is(err, models.ErrReadOnlyJobsheet) {
		t.Fatalf("expected read-only, got %v", err)
	}
	if appErr, _ := models.AsAppError(err); appErr.State != models.JobSheetStateCompleted {
		t.Fatalf("expected completed state on error, got %s", appErr.State)
	}
	if _, err := models.DeletePayment(ctx, stored.Payments[0].ID); !errors.Is(err, models.ErrReadOnlyJobsheet) {
		t.Fatalf("expected read-only on delete payment, got %v", err)
	}
	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, Description: "Bulb", Quantity: 1, Price: dec("2")}); !errors.Is(err, models.ErrReadOnlyJobsheet) {
		t.Fatalf("expected read-only on add item, got %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStateCompleted {
		t.Fatalf("state expected to stay completed, got %s", stored.State)
	}
}

func TestPartialPaymentLeavesJobSheetOpen(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet := seedJobSheet(t, ctx)
	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{
		JobsheetId:  jobSheet.ID,
		Description: "Service",
		Quantity:    1,
		Price:       dec("100"),
	}); err != nil {
		t.Fatalf("AddJobSheetItem: %v", err)
	}
	payment, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("99.5"), Method: "nets"})
	if err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStatePending {
		t.Fatalf("state expected pending, got %s", stored.State)
	}

	// correcting the amount settles it
	if _, err := models.UpdatePayment(ctx, payment.ID, &models.UpdatePaymentInput{Amount: decPtr("100")}); err != nil {
		t.Fatalf("UpdatePayment: %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStateCompleted {
		t.Fatalf("state expected completed, got %s", stored.State)
	}
}

func TestAddPaymentRejectsInvalidInput(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet := seedJobSheet(t, ctx)

	cases := map[string]*models.NewPayment{
		"zero amount":    {JobsheetId: jobSheet.ID, Amount: dec("0"), Method: "cash"},
		"negative":       {JobsheetId: jobSheet.ID, Amount: dec("-1"), Method: "cash"},
		"unknown method": {JobsheetId: jobSheet.ID, Amount: dec("10"), Method: "cheque"},
	}
	for name, input := range cases {
		if _, err := models.AddPayment(ctx, input); !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
	if _, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: 9999, Amount: dec("10"), Method: "cash"}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNonGeneralLaborIsNotTaxed(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{TaxRate: decPtr("9")})
	if err != nil {
		t.Fatalf("CreateJobSheet: %v", err)
	}

	entry, err := models.AddLaborEntry(ctx, &models.NewLaborEntry{
		JobsheetId:   jobSheet.ID,
		Description:  "Insurance renewal",
		Price:        dec("200"),
		WorkflowType: "Insurance",
	})
	if err != nil {
		t.Fatalf("AddLaborEntry: %v", err)
	}
	if entry.WorkflowType != "insurance" {
		t.Fatalf("workflow type expected insurance, got %q", entry.WorkflowType)
	}

	view, err := models.GetJobSheetTotals(ctx, jobSheet.ID)
	if err != nil {
		t.Fatalf("GetJobSheetTotals: %v", err)
	}
	if !view.Totals.Subtotal.IsZero() {
		t.Fatalf("unbilled labor must not count, got %s", view.Totals.Subtotal)
	}

	completed, billed := true, true
	if _, err := models.UpdateLaborEntry(ctx, entry.ID, &models.UpdateLaborEntryInput{IsCompleted: &completed, IsBilled: &billed}); err != nil {
		t.Fatalf("UpdateLaborEntry: %v", err)
	}
	if _, err := models.AddLaborEntry(ctx, &models.NewLaborEntry{
		JobsheetId:  jobSheet.ID,
		Description: "Brake service",
		Price:       dec("50"),
		IsCompleted: true,
		IsBilled:    true,
	}); err != nil {
		t.Fatalf("AddLaborEntry: %v", err)
	}

	view, err = models.GetJobSheetTotals(ctx, jobSheet.ID)
	if err != nil {
		t.Fatalf("GetJobSheetTotals: %v", err)
	}
	if !view.Totals.TaxableAmount.Equal(dec("50")) {
		t.Fatalf("taxable expected 50, got %s", view.Totals.TaxableAmount)
	}
	if !view.Totals.Total.Equal(dec("254.5")) {
		t.Fatalf("total expected 254.5, got %s", view.Totals.Total)
	}
	if view.Display[models.LaborCategoryInsurance] != "200.00" || view.Display["tax"] != "4.50" {
		t.Fatalf("unexpected display %+v", view.Display)
	}
	if !view.TotalAmount.IsZero() {
		t.Fatalf("stored items total expected 0, got %s", view.TotalAmount)
	}
}

func TestUpdateJobSheetStateMachine(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet := seedJobSheet(t, ctx)
	state := func(s models.JobSheetState) *models.JobSheetState { return &s }

	updated, err := models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateInProgress)})
	if err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if updated.State != models.JobSheetStateInProgress {
		t.Fatalf("state expected in_progress, got %s", updated.State)
	}

	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStatePending)})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state("archived")})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	// nothing billed yet
	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateCompleted)})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("empty job sheet: expected invalid transition, got %v", err)
	}

	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, Description: "Chain", Quantity: 1, Price: dec("40")}); err != nil {
		t.Fatalf("AddJobSheetItem: %v", err)
	}
	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateCompleted)})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("balance owed: expected invalid transition, got %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStateInProgress {
		t.Fatalf("state expected in_progress, got %s", stored.State)
	}

	// settled outside the engine, so only the manual move completes it
	payment := &models.Payment{JobSheetId: jobSheet.ID, Amount: dec("40"), Method: models.PaymentMethodCash, PaymentDate: time.Now()}
	if err := config.GetDB().WithContext(ctx).Create(payment).Error; err != nil {
		t.Fatalf("create payment: %v", err)
	}
	updated, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateCompleted)})
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Fatalf("completed_at should be set")
	}

	notes := "changed"
	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{Notes: &notes})
	if !errors.Is(err, models.ErrReadOnlyJobsheet) {
		t.Fatalf("expected read-only, got %v", err)
	}

	updated, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateCancelled)})
	if err != nil {
		t.Fatalf("to cancelled: %v", err)
	}
	if updated.State != models.JobSheetStateCancelled {
		t.Fatalf("state expected cancelled, got %s", updated.State)
	}

	_, err = models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: state(models.JobSheetStateInProgress)})
	if !errors.Is(err, models.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition from cancelled, got %v", err)
	}

	if _, err := models.UpdateJobSheet(ctx, 9999, &models.UpdateJobSheetInput{Notes: &notes}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTaxRateChangeCanSettleJobSheet(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{TaxRate: decPtr("9")})
	if err != nil {
		t.Fatalf("CreateJobSheet: %v", err)
	}
	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, Description: "Battery", Quantity: 2, Price: dec("50")}); err != nil {
		t.Fatalf("AddJobSheetItem: %v", err)
	}
	if _, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("100"), Method: "cash"}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStatePending {
		t.Fatalf("state expected pending, got %s", stored.State)
	}

	updated, err := models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{TaxRate: decPtr("0")})
	if err != nil {
		t.Fatalf("UpdateJobSheet: %v", err)
	}
	if updated.State != models.JobSheetStateCompleted {
		t.Fatalf("state expected completed, got %s", updated.State)
	}
}

func TestCreateJobSheetDefaultsCustomerFromVehicle(t *testing.T) {
	ctx := setupTestDB(t)
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Ah Seng", Phone: "9123 4567"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.Phone != "+6591234567" {
		t.Fatalf("phone expected +6591234567, got %s", customer.Phone)
	}
	vehicle, err := models.CreateVehicle(ctx, &models.NewVehicle{CustomerId: &customer.ID, PlateNumber: "fbn 1234 k", Make: "Yamaha"})
	if err != nil {
		t.Fatalf("CreateVehicle: %v", err)
	}
	if vehicle.PlateNumber != "FBN1234K" {
		t.Fatalf("plate expected FBN1234K, got %s", vehicle.PlateNumber)
	}
	if _, err := models.CreateVehicle(ctx, &models.NewVehicle{PlateNumber: "FBN1234K"}); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("duplicate plate: expected invalid input, got %v", err)
	}

	jobSheet, err := models.CreateJobSheet(ctx, &models.NewJobSheet{VehicleId: &vehicle.ID})
	if err != nil {
		t.Fatalf("CreateJobSheet: %v", err)
	}
	if jobSheet.CustomerId == nil || *jobSheet.CustomerId != customer.ID {
		t.Fatalf("customer expected %d, got %v", customer.ID, jobSheet.CustomerId)
	}
	if jobSheet.State != models.JobSheetStatePending || !jobSheet.TotalAmount.IsZero() {
		t.Fatalf("unexpected new job sheet %+v", jobSheet)
	}

	missing := 9999
	if _, err := models.CreateJobSheet(ctx, &models.NewJobSheet{VehicleId: &missing}); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list, err := models.GetJobSheets(ctx, models.JobSheetFilter{CustomerId: &customer.ID})
	if err != nil {
		t.Fatalf("GetJobSheets: %v", err)
	}
	if len(list) != 1 || list[0].ID != jobSheet.ID {
		t.Fatalf("expected job sheet %d, got %d rows", jobSheet.ID, len(list))
	}
}

func TestSettledJobSheetRejectsNewLines(t *testing.T) {
	ctx := setupTestDB(t)
	invoiceItem := seedInvoiceItem(t, ctx, 10, "4")
	jobSheet := seedJobSheet(t, ctx)
	if _, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, Description: "Mirror", Quantity: 1, Price: dec("25")}); err != nil {
		t.Fatalf("AddJobSheetItem: %v", err)
	}
	if _, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("25"), Method: "cash"}); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); stored.State != models.JobSheetStateCompleted {
		t.Fatalf("state expected completed, got %s", stored.State)
	}

	payments := countRows(t, ctx, &models.Payment{})
	items := countRows(t, ctx, &models.JobSheetItem{})
	labor := countRows(t, ctx, &models.LaborEntry{})
	allocations := countRows(t, ctx, &models.ItemAllocation{})

	attempts := map[string]func() error{
		"add payment": func() error {
			_, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("5"), Method: "cash"})
			return err
		},
		"add item": func() error {
			_, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, Description: "Bulb", Quantity: 1, Price: dec("2")})
			return err
		},
		"add labor": func() error {
			_, err := models.AddLaborEntry(ctx, &models.NewLaborEntry{JobsheetId: jobSheet.ID, Description: "Polish", Price: dec("10"), IsCompleted: true, IsBilled: true})
			return err
		},
		"allocate": func() error {
			_, err := models.AllocateInventory(ctx, []*models.NewItemAllocation{
				{InvoiceItemId: invoiceItem.ID, JobsheetId: jobSheet.ID, Quantity: 1},
			})
			return err
		},
	}
	for name, attempt := range attempts {
		err := attempt()
		if !errors.Is(err, models.ErrReadOnlyJobsheet) {
			t.Fatalf("%s: expected read-only, got %v", name, err)
		}
		if appErr, _ := models.AsAppError(err); appErr.State != models.JobSheetStateCompleted {
			t.Fatalf("%s: expected completed state on error, got %s", name, appErr.State)
		}
	}

	if n := countRows(t, ctx, &models.Payment{}); n != payments {
		t.Fatalf("payments changed from %d to %d", payments, n)
	}
	if n := countRows(t, ctx, &models.JobSheetItem{}); n != items {
		t.Fatalf("items changed from %d to %d", items, n)
	}
	if n := countRows(t, ctx, &models.LaborEntry{}); n != labor {
		t.Fatalf("labor entries changed from %d to %d", labor, n)
	}
	if n := countRows(t, ctx, &models.ItemAllocation{}); n != allocations {
		t.Fatalf("allocations changed from %d to %d", allocations, n)
	}
	if got := reloadInvoiceItem(t, ctx, invoiceItem.ID).RemainingQuantity; got != 10 {
		t.Fatalf("remaining expected 10, got %d", got)
	}
	if stored := reloadJobSheet(t, ctx, jobSheet.ID); !stored.TotalAmount.Equal(dec("25")) {
		t.Fatalf("total_amount expected 25, got %s", stored.TotalAmount)
	}
}

func TestCancelledJobSheetRejectsPayment(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet := seedJobSheet(t, ctx)
	cancelled := models.JobSheetStateCancelled
	if _, err := models.UpdateJobSheet(ctx, jobSheet.ID, &models.UpdateJobSheetInput{State: &cancelled}); err != nil {
		t.Fatalf("cancel job sheet: %v", err)
	}

	_, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: jobSheet.ID, Amount: dec("10"), Method: "paynow"})
	if !errors.Is(err, models.ErrReadOnlyJobsheet) {
		t.Fatalf("expected read-only, got %v", err)
	}
	if appErr, _ := models.AsAppError(err); appErr.State != models.JobSheetStateCancelled {
		t.Fatalf("expected cancelled state on error, got %s", appErr.State)
	}
	if n := countRows(t, ctx, &models.Payment{}); n != 0 {
		t.Fatalf("expected no payments, got %d", n)
	}
}

func TestAddJobSheetItemRejectsNonPositiveProduct(t *testing.T) {
	ctx := setupTestDB(t)
	jobSheet := seedJobSheet(t, ctx)

	for _, productId := range []int{0, -3} {
		id := productId
		_, err := models.AddJobSheetItem(ctx, &models.NewJobSheetItem{JobsheetId: jobSheet.ID, ProductId: &id, Description: "Grip", Quantity: 1, Price: dec("8")})
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("product_id %d: expected invalid input, got %v", productId, err)
		}
	}
	if n := countRows(t, ctx, &models.JobSheetItem{}); n != 0 {
		t.Fatalf("expected no items, got %d", n)
	}
}

func TestOperationsWithoutDatabase(t *testing.T) {
	prev := config.GetDB()
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(prev) })
	ctx := context.Background()

	calls := map[string]func() error{
		"list job sheets": func() error {
			_, err := models.GetJobSheets(ctx, models.JobSheetFilter{})
			return err
		},
		"list allocations": func() error {
			_, err := models.GetAllocationsForJobsheet(ctx, 1)
			return err
		},
		"drift check": func() error {
			_, err := models.CheckAllocationDrift(ctx)
			return err
		},
		"create vehicle": func() error {
			_, err := models.CreateVehicle(ctx, &models.NewVehicle{PlateNumber: "FBA123A"})
			return err
		},
		"list customers": func() error {
			_, err := models.GetCustomers(ctx, "")
			return err
		},
		"add payment": func() error {
			_, err := models.AddPayment(ctx, &models.NewPayment{JobsheetId: 1, Amount: dec("1"), Method: "cash"})
			return err
		},
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, models.ErrTransactionFailure) {
			t.Fatalf("%s: expected transaction failure, got %v", name, err)
		}
	}
}
