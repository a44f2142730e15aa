package models

import (
	"reflect"
	"testing"
)

func TestAllocationLockOrder(t *testing.T) {
	jobSheetIds, invoiceItemIds := allocationLockOrder([]*NewItemAllocation{
		{InvoiceItemId: 9, JobsheetId: 4, Quantity: 1},
		{InvoiceItemId: 3, JobsheetId: 7, Quantity: 2},
		{InvoiceItemId: 9, JobsheetId: 4, Quantity: 1},
		{InvoiceItemId: 5, JobsheetId: 1, Quantity: 1},
	})
	if want := []int{1, 4, 7}; !reflect.DeepEqual(jobSheetIds, want) {
		t.Fatalf("job sheet order expected %v, got %v", want, jobSheetIds)
	}
	if want := []int{3, 5, 9}; !reflect.DeepEqual(invoiceItemIds, want) {
		t.Fatalf("invoice item order expected %v, got %v", want, invoiceItemIds)
	}
}
