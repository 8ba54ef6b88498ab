// Package chatbot answers operational questions (balances, order status,
// delivery schedules, budget left) through a regex intent table and a small
// session-scoped disambiguation state machine.
package chatbot

// State is the per-session conversation state.
type State string

const (
	// StateNone means no clarification is pending.
	StateNone State = "NONE"
	// StateAwaitingClarification means the bot asked the user to pick a
	// customer and the next message resolves or cancels the question.
	StateAwaitingClarification State = "AWAITING_CLARIFICATION"
)

// Intent identifies what the user asked for.
type Intent string

const (
	IntentOutstanding Intent = "OUTSTANDING"
	IntentOrderStatus Intent = "ORDER_STATUS"
	IntentDelivery    Intent = "DELIVERY"
	IntentBudget      Intent = "BUDGET"
	IntentUnknown     Intent = "UNKNOWN"
)

// Reply is what the bot sends back for one message.
type Reply struct {
	Text       string   `json:"text"`
	State      State    `json:"state"`
	Candidates []string `json:"candidates,omitempty"`
}
