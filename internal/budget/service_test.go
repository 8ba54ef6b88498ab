package budget

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/shared"
)

type fakeRepo struct {
	figures  map[string]PlanFigures
	requests map[int64]*ExpenseRequest
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		figures:  map[string]PlanFigures{},
		requests: map[int64]*ExpenseRequest{},
		nextID:   1,
	}
}

func (f *fakeRepo) GroupFigures(_ context.Context, costCenterCode string, _ time.Time) (*PlanFigures, error) {
	fig, ok := f.figures[costCenterCode]
	if !ok {
		return nil, ErrNotFound
	}
	return &fig, nil
}

func (f *fakeRepo) CreateRequest(_ context.Context, req ExpenseRequest) (int64, error) {
	id := f.nextID
	f.nextID++
	req.ID = id
	req.RequestedAt = time.Now()
	f.requests[id] = &req
	return id, nil
}

func (f *fakeRepo) GetRequest(_ context.Context, id int64) (*ExpenseRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRepo) ListRequests(_ context.Context, status RequestStatus, _, _ int) ([]ExpenseRequest, int, error) {
	var out []ExpenseRequest
	for _, req := range f.requests {
		if status == "" || req.Status == status {
			out = append(out, *req)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) TransitionRequest(_ context.Context, id int64, from, to RequestStatus, actor, warning string) error {
	req, ok := f.requests[id]
	if !ok {
		return ErrNotFound
	}
	// Guarded update: no rows match unless status still equals from.
	if req.Status != from {
		return shared.ErrStateConflict
	}
	req.Status = to
	now := time.Now()
	switch to {
	case StatusApproved, StatusRejected:
		req.DecidedBy = actor
		req.DecidedAt = &now
	case StatusPaid:
		req.PaidBy = actor
		req.PaidAt = &now
	}
	if warning != "" && req.Warning == "" {
		req.Warning = warning
	}
	return nil
}

type fakeAuditor struct {
	logs []shared.AuditLog
}

func (f *fakeAuditor) Record(_ context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func newTestService(repo *fakeRepo) (*Service, *fakeAuditor) {
	audit := &fakeAuditor{}
	svc := NewService(repo, audit, slog.Default())
	return svc, audit
}

func seedFigures(repo *fakeRepo, level ControlLevel, monthPlan, monthActual, ytdPlan, ytdActual int64) {
	repo.figures["CC-100"] = PlanFigures{
		GroupCode:    "G-SALES",
		ControlLevel: level,
		MonthPlan:    decimal.NewFromInt(monthPlan),
		MonthActual:  decimal.NewFromInt(monthActual),
		YTDPlan:      decimal.NewFromInt(ytdPlan),
		YTDActual:    decimal.NewFromInt(ytdActual),
	}
}

func TestCreateRequestHardBreachBlocked(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 9_500_000, 120_000_000, 50_000_000)
	svc, _ := newTestService(repo)

	_, gate, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(1_000_000),
		Purpose:        "trade show booth",
		RequestedBy:    "U1001",
	})

	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, GateBlock, gate.Status)
	assert.True(t, gate.Remaining.Equal(decimal.NewFromInt(500_000)))
	assert.Empty(t, repo.requests, "blocked request must not be persisted")
}

func TestCreateRequestSoftBreachStoredWithWarning(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlSoft, 10_000_000, 9_500_000, 120_000_000, 50_000_000)
	svc, _ := newTestService(repo)

	req, gate, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(1_000_000),
		Purpose:        "trade show booth",
		RequestedBy:    "U1001",
	})

	require.NoError(t, err)
	assert.Equal(t, GateWarn, gate.Status)
	assert.Equal(t, StatusPending, req.Status)
	assert.NotEmpty(t, req.Warning)
}

func TestCreateRequestWithinBudget(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 4_000_000, 120_000_000, 50_000_000)
	svc, _ := newTestService(repo)

	req, gate, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(1_000_000),
		Purpose:        "office supplies",
		RequestedBy:    "U1001",
	})

	require.NoError(t, err)
	assert.Equal(t, GatePass, gate.Status)
	assert.Equal(t, StatusPending, req.Status)
	assert.Empty(t, req.Warning)
	assert.Equal(t, "G-SALES", req.GroupCode)
}

func TestCreateRequestNonPositiveAmount(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestApproveGatedByYTD(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 0, 100_000_000, 99_500_000)
	svc, _ := newTestService(repo)

	req, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(1_000_000),
		Purpose:        "maintenance",
		RequestedBy:    "U1001",
	})
	require.NoError(t, err)

	_, gate, err := svc.Approve(context.Background(), req.ID, "U2001")
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, GateBlock, gate.Status)

	stored, err := repo.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status, "blocked approval must not transition")
}

func TestApproveHappyPathRecordsAudit(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 0, 120_000_000, 50_000_000)
	svc, audit := newTestService(repo)

	req, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(2_000_000),
		Purpose:        "maintenance",
		RequestedBy:    "U1001",
	})
	require.NoError(t, err)

	approved, gate, err := svc.Approve(context.Background(), req.ID, "U2001")
	require.NoError(t, err)
	assert.Equal(t, GatePass, gate.Status)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "U2001", approved.DecidedBy)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "APPROVE", audit.logs[0].Action)
	assert.Equal(t, "U2001", audit.logs[0].ActorCode)
}

func TestApproveAlreadyApprovedConflicts(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 0, 120_000_000, 50_000_000)
	svc, audit := newTestService(repo)

	req, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(2_000_000),
		Purpose:        "maintenance",
		RequestedBy:    "U1001",
	})
	require.NoError(t, err)

	_, _, err = svc.Approve(context.Background(), req.ID, "U2001")
	require.NoError(t, err)

	_, _, err = svc.Approve(context.Background(), req.ID, "U2002")
	assert.ErrorIs(t, err, shared.ErrStateConflict)
	assert.Len(t, audit.logs, 1, "second approval must not add an audit entry")
}

func TestRejectThenPayRefused(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 0, 120_000_000, 50_000_000)
	svc, _ := newTestService(repo)

	req, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(2_000_000),
		Purpose:        "maintenance",
		RequestedBy:    "U1001",
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), req.ID, "U2001", "duplicate of request 7")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)

	_, err = svc.MarkPaid(context.Background(), req.ID, "U3001")
	assert.ErrorIs(t, err, shared.ErrStateConflict)
}

func TestMarkPaidTerminal(t *testing.T) {
	repo := newFakeRepo()
	seedFigures(repo, ControlHard, 10_000_000, 0, 120_000_000, 50_000_000)
	svc, _ := newTestService(repo)

	req, _, err := svc.CreateRequest(context.Background(), CreateRequestInput{
		CostCenterCode: "CC-100",
		Amount:         decimal.NewFromInt(2_000_000),
		Purpose:        "maintenance",
		RequestedBy:    "U1001",
	})
	require.NoError(t, err)

	_, _, err = svc.Approve(context.Background(), req.ID, "U2001")
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), req.ID, "U3001")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, "U3001", paid.PaidBy)

	_, err = svc.MarkPaid(context.Background(), req.ID, "U3001")
	assert.ErrorIs(t, err, shared.ErrStateConflict)
}

func TestCheckRemainingUnknownCostCenter(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.CheckRemaining(context.Background(), "CC-404")
	assert.ErrorIs(t, err, ErrNotFound)
}
