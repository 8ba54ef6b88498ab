package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/budget"
	"github.com/meridian-erp/meridian/internal/lookup"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Session keys holding the pending clarification.
const (
	sessionKeyState  = "chatbot.state"
	sessionKeyIntent = "chatbot.intent"
)

const defaultAnswer = "I could not reach the ERP data right now, please try again in a moment."

// Directory resolves customers, orders and deliveries for intent handlers.
type Directory interface {
	CustomerByCode(ctx context.Context, code string) (*lookup.Customer, error)
	SearchCustomers(ctx context.Context, term string, limit int) ([]lookup.Customer, error)
	CustomerOutstanding(ctx context.Context, customerCode string) (decimal.Decimal, error)
	OrderByVoucherNo(ctx context.Context, voucherNo string) (*lookup.OrderStatus, error)
	NextDeliveryDay(ctx context.Context, customerCode string) (string, error)
}

// BudgetChecker answers budget-left questions.
type BudgetChecker interface {
	CheckRemaining(ctx context.Context, costCenterCode string) (*budget.PlanFigures, error)
}

// Service routes messages to intent handlers.
type Service struct {
	directory Directory
	budgets   BudgetChecker
	logger    *slog.Logger
}

// NewService builds a Service.
func NewService(directory Directory, budgets BudgetChecker, logger *slog.Logger) *Service {
	return &Service{directory: directory, budgets: budgets, logger: logger}
}

// Handle processes one user message against the session's conversation state.
// Infrastructure failures degrade to a default answer instead of an error.
func (s *Service) Handle(ctx context.Context, sess *shared.Session, message string) Reply {
	if State(sess.Get(sessionKeyState)) == StateAwaitingClarification {
		return s.resolveClarification(ctx, sess, message)
	}

	intent, arg := MatchIntent(message)
	switch intent {
	case IntentOutstanding:
		return s.answerCustomerQuestion(ctx, sess, IntentOutstanding, arg)
	case IntentDelivery:
		return s.answerCustomerQuestion(ctx, sess, IntentDelivery, arg)
	case IntentOrderStatus:
		return s.answerOrderStatus(ctx, arg)
	case IntentBudget:
		return s.answerBudget(ctx, arg)
	default:
		return Reply{
			Text:  "I can answer questions about customer balances, order status, delivery schedules and remaining budget.",
			State: StateNone,
		}
	}
}

// answerCustomerQuestion resolves the customer term, asking for clarification
// when it is ambiguous.
func (s *Service) answerCustomerQuestion(ctx context.Context, sess *shared.Session, intent Intent, term string) Reply {
	if term == "" {
		return Reply{Text: "Which customer do you mean?", State: StateNone}
	}

	if customer, err := s.directory.CustomerByCode(ctx, term); err == nil {
		clearState(sess)
		return s.answerForCustomer(ctx, intent, customer)
	} else if !errors.Is(err, lookup.ErrNotFound) {
		return s.degrade("customer by code", err)
	}

	candidates, err := s.directory.SearchCustomers(ctx, term, 5)
	if err != nil {
		return s.degrade("search customers", err)
	}
	switch len(candidates) {
	case 0:
		clearState(sess)
		return Reply{Text: fmt.Sprintf("I could not find a customer matching %q.", term), State: StateNone}
	case 1:
		clearState(sess)
		return s.answerForCustomer(ctx, intent, &candidates[0])
	default:
		sess.Set(sessionKeyState, string(StateAwaitingClarification))
		sess.Set(sessionKeyIntent, string(intent))
		codes := make([]string, len(candidates))
		for i, c := range candidates {
			codes[i] = c.Code
		}
		return Reply{
			Text:       "Which customer did you mean? Reply with the code, or cancel.",
			State:      StateAwaitingClarification,
			Candidates: codes,
		}
	}
}

// resolveClarification consumes the follow-up message of a pending question.
func (s *Service) resolveClarification(ctx context.Context, sess *shared.Session, message string) Reply {
	if isCancel(message) {
		clearState(sess)
		return Reply{Text: "Okay, cancelled.", State: StateNone}
	}

	intent := Intent(sess.Get(sessionKeyIntent))
	customer, err := s.directory.CustomerByCode(ctx, normalizeCode(message))
	if err != nil {
		if errors.Is(err, lookup.ErrNotFound) {
			return Reply{
				Text:  "That does not match a customer code. Reply with one of the codes, or cancel.",
				State: StateAwaitingClarification,
			}
		}
		return s.degrade("resolve clarification", err)
	}

	clearState(sess)
	return s.answerForCustomer(ctx, intent, customer)
}

func (s *Service) answerForCustomer(ctx context.Context, intent Intent, customer *lookup.Customer) Reply {
	switch intent {
	case IntentDelivery:
		day, err := s.directory.NextDeliveryDay(ctx, customer.Code)
		if errors.Is(err, lookup.ErrNotFound) {
			return Reply{Text: fmt.Sprintf("%s has no open deliveries.", customer.Name), State: StateNone}
		}
		if err != nil {
			return s.degrade("next delivery day", err)
		}
		if day == "" {
			return Reply{Text: fmt.Sprintf("%s has open deliveries without a planned day yet.", customer.Name), State: StateNone}
		}
		return Reply{Text: fmt.Sprintf("The next delivery for %s is planned for %s.", customer.Name, day), State: StateNone}
	default:
		outstanding, err := s.directory.CustomerOutstanding(ctx, customer.Code)
		if err != nil {
			return s.degrade("customer outstanding", err)
		}
		return Reply{
			Text:  fmt.Sprintf("%s (%s) has an outstanding balance of %s.", customer.Name, customer.Code, outstanding.StringFixed(0)),
			State: StateNone,
		}
	}
}

func (s *Service) answerOrderStatus(ctx context.Context, voucherNo string) Reply {
	if voucherNo == "" {
		return Reply{Text: "Which order number do you mean?", State: StateNone}
	}
	order, err := s.directory.OrderByVoucherNo(ctx, normalizeCode(voucherNo))
	if errors.Is(err, lookup.ErrNotFound) {
		return Reply{Text: fmt.Sprintf("I could not find order %s.", voucherNo), State: StateNone}
	}
	if err != nil {
		return s.degrade("order by voucher", err)
	}
	status := "waiting for approval"
	if order.Approved {
		status = "approved"
	}
	return Reply{
		Text: fmt.Sprintf("Order %s for customer %s over %s is %s.",
			order.VoucherNo, order.CustomerCode, order.Amount.StringFixed(0), status),
		State: StateNone,
	}
}

func (s *Service) answerBudget(ctx context.Context, costCenter string) Reply {
	if costCenter == "" {
		return Reply{Text: "Which cost center do you mean?", State: StateNone}
	}
	figures, err := s.budgets.CheckRemaining(ctx, normalizeCode(costCenter))
	if errors.Is(err, budget.ErrNotFound) {
		return Reply{Text: fmt.Sprintf("I could not find cost center %s.", costCenter), State: StateNone}
	}
	if err != nil {
		return s.degrade("budget remaining", err)
	}
	remaining := figures.MonthPlan.Sub(figures.MonthActual)
	return Reply{
		Text: fmt.Sprintf("Group %s has %s left of this month's budget of %s.",
			figures.GroupCode, remaining.StringFixed(0), figures.MonthPlan.StringFixed(0)),
		State: StateNone,
	}
}

func (s *Service) degrade(op string, err error) Reply {
	if s.logger != nil {
		s.logger.Warn("chatbot lookup failed", slog.String("op", op), slog.Any("error", err))
	}
	return Reply{Text: defaultAnswer, State: StateNone}
}

func clearState(sess *shared.Session) {
	sess.Delete(sessionKeyState)
	sess.Delete(sessionKeyIntent)
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
