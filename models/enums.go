package models

import "strings"

type JobSheetState string

const (
	JobSheetStatePending    JobSheetState = "pending"
	JobSheetStateInProgress JobSheetState = "in_progress"
	JobSheetStateCompleted  JobSheetState = "completed"
	JobSheetStateCancelled  JobSheetState = "cancelled"
)

func (s JobSheetState) IsValid() bool {
	switch s {
	case JobSheetStatePending, JobSheetStateInProgress, JobSheetStateCompleted, JobSheetStateCancelled:
		return true
	}
	return false
}

// terminal job sheets are read-only
func (s JobSheetState) IsTerminal() bool {
	return s == JobSheetStateCompleted || s == JobSheetStateCancelled
}

// CanTransitionTo reports whether next is reachable from s.
// Staying in the same state is always allowed (no-op).
// Completion is never reverted automatically or manually; a completed
// job sheet can only be cancelled.
func (s JobSheetState) CanTransitionTo(next JobSheetState) bool {
	if s == next {
		return true
	}
	switch next {
	case JobSheetStateInProgress:
		return s == JobSheetStatePending
	case JobSheetStateCompleted:
		return s == JobSheetStatePending || s == JobSheetStateInProgress
	case JobSheetStateCancelled:
		return s != JobSheetStateCancelled
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPayNow PaymentMethod = "paynow"
	PaymentMethodNets   PaymentMethod = "nets"
)

// ParsePaymentMethod accepts the stored codes case-insensitively;
// "other" is recorded under nets.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentMethodCash, true
	case "paynow":
		return PaymentMethodPayNow, true
	case "nets", "other":
		return PaymentMethodNets, true
	}
	return "", false
}

// Workflow type codes carried on labor entries.
const (
	WorkflowTypeGeneralLabor = "1"
	WorkflowTypeDeposit      = "deposit"
	WorkflowTypeInsurance    = "insurance"
	WorkflowTypeHPPayment    = "bq hp"
	WorkflowTypeRoadTax      = "road tax"
	WorkflowTypeHPPayment2   = "nu hp"
)

// Labor categories shown in the totals breakdown.
const (
	LaborCategoryGeneral    = "General Labor"
	LaborCategoryDeposit    = "Deposit for Sale"
	LaborCategoryInsurance  = "Insurance"
	LaborCategoryHPPayment  = "HP Payment"
	LaborCategoryRoadTax    = "Road Tax"
	LaborCategoryHPPayment2 = "HP Payment 2"
	LaborCategoryOther      = "Other Services/Charges"
)

var workflowCategories = map[string]string{
	WorkflowTypeDeposit:    LaborCategoryDeposit,
	WorkflowTypeInsurance:  LaborCategoryInsurance,
	WorkflowTypeHPPayment:  LaborCategoryHPPayment,
	WorkflowTypeRoadTax:    LaborCategoryRoadTax,
	WorkflowTypeHPPayment2: LaborCategoryHPPayment2,
}

// LaborCategory maps a workflow type code to its display category.
// Empty and "1" are general labor; the named workflows match case-insensitively.
func LaborCategory(workflowType string) string {
	code := strings.ToLower(strings.TrimSpace(workflowType))
	if code == "" || code == WorkflowTypeGeneralLabor {
		return LaborCategoryGeneral
	}
	if category, ok := workflowCategories[code]; ok {
		return category
	}
	return LaborCategoryOther
}

// only general labor is taxed alongside items
func IsTaxableLaborCategory(category string) bool {
	return category == LaborCategoryGeneral
}
