package shared

// Approval workflow permissions.
const (
	PermApprovalView     = "approval.view"
	PermApprovalApprove  = "approval.approve"
	PermApprovalOverride = "approval.override"
)

// Budget ledger permissions.
const (
	PermBudgetView    = "budget.view"
	PermBudgetRequest = "budget.request"
	PermBudgetApprove = "budget.approve"
	PermBudgetPay     = "budget.pay"
)

// Delivery planner permissions.
const (
	PermPlannerView  = "planner.view"
	PermPlannerRetag = "planner.retag"
)

// Reporting permissions.
const (
	PermReportsView    = "reports.view"
	PermReportsExport  = "reports.export"
	PermReportsRefresh = "reports.refresh"
)

// Chatbot and training permissions.
const (
	PermChatbotUse   = "chatbot.use"
	PermTrainingPlay = "training.play"
)

// ApprovalScopes lists all permissions related to approval workflows.
func ApprovalScopes() []string {
	return []string{PermApprovalView, PermApprovalApprove, PermApprovalOverride}
}

// BudgetScopes lists all permissions related to the budget ledger.
func BudgetScopes() []string {
	return []string{PermBudgetView, PermBudgetRequest, PermBudgetApprove, PermBudgetPay}
}
