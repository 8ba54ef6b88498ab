package approval

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/shared"
)

type fakeRepo struct {
	facts     map[string]VoucherFacts
	approvers map[string][]string
	log       []LogEntry
	approved  map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		facts:     make(map[string]VoucherFacts),
		approvers: make(map[string][]string),
		approved:  make(map[string]bool),
	}
}

func (r *fakeRepo) VoucherFacts(ctx context.Context, kind VoucherKind, voucherNo string) (*VoucherFacts, error) {
	f, ok := r.facts[voucherNo]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (r *fakeRepo) ApproverCodes(ctx context.Context, voucherType string) ([]string, error) {
	return r.approvers[voucherType], nil
}

func (r *fakeRepo) RecordApproval(ctx context.Context, entry LogEntry) error {
	if r.approved[entry.VoucherNo] {
		return shared.ErrStateConflict
	}
	r.approved[entry.VoucherNo] = true
	r.log = append(r.log, entry)
	return nil
}

func (r *fakeRepo) History(ctx context.Context, voucherNo string) ([]LogEntry, error) {
	var out []LogEntry
	for _, e := range r.log {
		if e.VoucherNo == voucherNo {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRoles struct {
	members map[string][]string
}

func (r *fakeRoles) UsersWithRole(ctx context.Context, roleName string) ([]string, error) {
	return r.members[roleName], nil
}

func newTestService(repo *fakeRepo) *Service {
	roles := &fakeRoles{members: map[string][]string{"ADMIN": {"ADM01"}}}
	return NewService(repo, roles, nil, testRules(), slog.Default())
}

func TestApproveSelfApproval(t *testing.T) {
	repo := newFakeRepo()
	repo.facts["QT-001"] = baseFacts()
	svc := newTestService(repo)

	decision, err := svc.Approve(context.Background(), KindQuotation, "QT-001", "NV01", false, "")
	require.NoError(t, err)
	assert.True(t, decision.Passed)
	require.Len(t, repo.log, 1)
	assert.Equal(t, "NV01", repo.log[0].Approver)
	assert.True(t, repo.log[0].Ratio.Equal(decimal.RequireFromString("155")))
}

func TestApproveLogsComputedRatio(t *testing.T) {
	repo := newFakeRepo()
	facts := baseFacts()
	facts.TotalCost = decimal.NewFromInt(1)
	repo.facts["QT-001"] = facts
	svc := newTestService(repo)

	// ratio = 30 + 100 * 1,000,000 / 1, far past the display cap.
	want := decimal.NewFromInt(100_000_030)
	decision, err := svc.Approve(context.Background(), KindQuotation, "QT-001", "NV01", false, "")
	require.NoError(t, err)
	assert.True(t, decision.ApprovalRatio.Equal(want))
	require.Len(t, repo.log, 1)
	assert.True(t, repo.log[0].Ratio.Equal(want), "log must keep the computed ratio, not the display clamp")
}

func TestApproveTwiceIsConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.facts["QT-001"] = baseFacts()
	svc := newTestService(repo)

	_, err := svc.Approve(context.Background(), KindQuotation, "QT-001", "NV01", false, "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), KindQuotation, "QT-001", "NV01", false, "")
	assert.ErrorIs(t, err, shared.ErrStateConflict)
	assert.Len(t, repo.log, 1)
}

func TestApproveHardFailureNeverWrites(t *testing.T) {
	repo := newFakeRepo()
	facts := baseFacts()
	facts.Salesperson = ""
	repo.facts["QT-002"] = facts
	svc := newTestService(repo)

	decision, err := svc.Approve(context.Background(), KindQuotation, "QT-002", "NV01", true, "")
	assert.Error(t, err)
	assert.Equal(t, StateFailed, decision.State)
	assert.Empty(t, repo.log)
}

func TestApproveWrongApproverRejected(t *testing.T) {
	repo := newFakeRepo()
	facts := baseFacts()
	facts.DeclaredAmount = decimal.NewFromInt(50_000_000)
	repo.facts["QT-003"] = facts
	repo.approvers["STD"] = []string{"BOSS"}
	svc := newTestService(repo)

	_, err := svc.Approve(context.Background(), KindQuotation, "QT-003", "NV01", false, "")
	assert.Error(t, err)
	assert.Empty(t, repo.log)

	decision, err := svc.Approve(context.Background(), KindQuotation, "QT-003", "BOSS", false, "")
	require.NoError(t, err)
	assert.True(t, decision.Passed)
}

func TestOverrideBelowThresholdRatio(t *testing.T) {
	repo := newFakeRepo()
	facts := baseFacts()
	facts.CustomerClass = "M"
	facts.TotalSale = decimal.NewFromInt(500_000)
	facts.TotalCost = decimal.NewFromInt(500_000)
	repo.facts["QT-004"] = facts
	svc := newTestService(repo)

	// Without override privileges the soft failure stands.
	_, err := svc.Approve(context.Background(), KindQuotation, "QT-004", "NV01", false, "")
	assert.Error(t, err)

	decision, err := svc.Approve(context.Background(), KindQuotation, "QT-004", "NV01", true, "pushed by sales director")
	require.NoError(t, err)
	assert.True(t, decision.Passed)
	require.Len(t, repo.log, 1)
	assert.Contains(t, repo.log[0].Note, "OVERRIDE")
	assert.Contains(t, repo.log[0].Note, "pushed by sales director")
}

func TestEvaluateFallbackRoleUsedWhenMappingEmpty(t *testing.T) {
	repo := newFakeRepo()
	facts := baseFacts()
	facts.DeclaredAmount = decimal.NewFromInt(25_000_000)
	repo.facts["QT-005"] = facts
	svc := newTestService(repo)

	// ADM01 carries the fallback ADMIN role, so it may approve directly.
	decision, _, err := svc.Evaluate(context.Background(), KindQuotation, "QT-005", "ADM01")
	require.NoError(t, err)
	assert.True(t, decision.Passed)

	decision, _, err = svc.Evaluate(context.Background(), KindQuotation, "QT-005", "NV01")
	require.NoError(t, err)
	assert.False(t, decision.Passed)
	assert.Contains(t, decision.Reason, "ADM01")
}

func TestEvaluateUnknownVoucher(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, _, err := svc.Evaluate(context.Background(), KindQuotation, "NOPE", "NV01")
	assert.ErrorIs(t, err, ErrNotFound)
}
