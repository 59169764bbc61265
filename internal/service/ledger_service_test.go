package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeLedgerRepo struct {
	entries []model.LedgerEntry
}

func (f *fakeLedgerRepo) Create(_ context.Context, entry *model.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLedgerRepo) CreateAll(ctx context.Context, entries []*model.LedgerEntry) error {
	for _, e := range entries {
		if err := f.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepo) FindByLinkID(_ context.Context, userID, linkID uuid.UUID) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.LinkID != nil && *e.LinkID == linkID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) FindCounterparts(_ context.Context, userID uuid.UUID, ledger string, date time.Time, amount decimal.Decimal, category string) ([]model.LedgerEntry, error) {
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.UserID == userID && e.Ledger == ledger && e.Date.Equal(date) &&
			e.Amount.Equal(amount) && e.Category == category && e.LinkID == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) List(_ context.Context, userID uuid.UUID, filter repository.LedgerFilter, _, _ int) ([]model.LedgerEntry, int64, error) {
	var out []model.LedgerEntry
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		if filter.Ledger != "" && e.Ledger != filter.Ledger {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (f *fakeLedgerRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLedgerRepo) DeleteByLinkID(_ context.Context, userID, linkID uuid.UUID) (int64, error) {
	var kept []model.LedgerEntry
	var deleted int64
	for _, e := range f.entries {
		if e.UserID == userID && e.LinkID != nil && *e.LinkID == linkID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return deleted, nil
}

func (f *fakeLedgerRepo) SumByLedger(_ context.Context, userID uuid.UUID, ledger string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range f.entries {
		if e.UserID == userID && e.Ledger == ledger {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (f *fakeLedgerRepo) SumByCategory(_ context.Context, userID uuid.UUID, ledger string, from, to time.Time) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, e := range f.entries {
		if e.UserID == userID && e.Ledger == ledger && !e.Date.Before(from) && !e.Date.After(to) {
			totals[e.Category] = totals[e.Category].Add(e.Amount)
		}
	}
	return totals, nil
}

type fakeAuditRepo struct {
	logged []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.logged = append(f.logged, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, l := range f.logged {
		if l.UserID != nil && *l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, int64(len(out)), nil
}

// fakeTxManager runs the callback directly; the fakes have no real
// transactions to join.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func newLedgerFixture() (service.LedgerService, *fakeLedgerRepo, *fakeAuditRepo) {
	ledgerRepo := &fakeLedgerRepo{}
	auditRepo := &fakeAuditRepo{}
	svc := service.NewLedgerService(ledgerRepo, auditRepo, fakeTxManager{}, nil)
	return svc, ledgerRepo, auditRepo
}

// --- tests ---

func TestRecordTransactionStoresExpenseNegative(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New().String()

	entry, err := svc.RecordTransaction(context.Background(), userID, service.RecordTransactionRequest{
		Amount:    "45.50",
		EntryType: model.EntryTypeExpense,
		Date:      "2026-03-10",
		Category:  "Groceries",
	})
	require.NoError(t, err)

	assert.Equal(t, "-45.50", entry.Amount)
	require.Len(t, repo.entries, 1)
	assert.True(t, repo.entries[0].Amount.Equal(decimal.RequireFromString("-45.5")))
	assert.Equal(t, model.LedgerPersonal, repo.entries[0].Ledger)
}

func TestRecordTransactionRejectsNonPositiveAmount(t *testing.T) {
	svc, repo, _ := newLedgerFixture()

	_, err := svc.RecordTransaction(context.Background(), uuid.New().String(), service.RecordTransactionRequest{
		Amount:    "0",
		EntryType: model.EntryTypeIncome,
		Date:      "2026-03-10",
		Category:  "Misc",
	})
	assert.Error(t, err)
	assert.Empty(t, repo.entries)
}

func TestTreasuryDepositCreatesLinkedPair(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New()

	res, err := svc.RecordTreasuryOperation(context.Background(), userID.String(), service.TreasuryOperationRequest{
		Amount: "100.00",
		Type:   model.TreasuryDeposit,
		Date:   "2026-03-01",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Business)
	require.NotNil(t, res.Personal)

	require.Len(t, repo.entries, 2)

	var business, personal model.LedgerEntry
	for _, e := range repo.entries {
		switch e.Ledger {
		case model.LedgerBusiness:
			business = e
		case model.LedgerPersonal:
			personal = e
		}
	}

	// Both sides share one link id and mirror each other exactly.
	require.NotNil(t, business.LinkID)
	require.NotNil(t, personal.LinkID)
	assert.Equal(t, *business.LinkID, *personal.LinkID)
	assert.True(t, business.Amount.Equal(decimal.RequireFromString("100")))
	assert.True(t, personal.Amount.Equal(decimal.RequireFromString("-100")))
	assert.True(t, business.Amount.Add(personal.Amount).IsZero())
	assert.Equal(t, model.CategoryBusinessTransfer, business.Category)
	assert.Equal(t, model.CategoryBusinessTransfer, personal.Category)
	assert.Equal(t, model.EntryTypeExpense, personal.EntryType)
}

func TestTreasuryWithdrawalInvertsSigns(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New()

	_, err := svc.RecordTreasuryOperation(context.Background(), userID.String(), service.TreasuryOperationRequest{
		Amount: "60.00",
		Type:   model.TreasuryWithdrawal,
		Date:   "2026-03-02",
	})
	require.NoError(t, err)

	business, err := repo.SumByLedger(context.Background(), userID, model.LedgerBusiness)
	require.NoError(t, err)
	personal, err := repo.SumByLedger(context.Background(), userID, model.LedgerPersonal)
	require.NoError(t, err)

	assert.True(t, business.Equal(decimal.RequireFromString("-60")))
	assert.True(t, personal.Equal(decimal.RequireFromString("60")))
}

func TestTreasuryInitialWritesBusinessSideOnly(t *testing.T) {
	svc, repo, _ := newLedgerFixture()

	res, err := svc.RecordTreasuryOperation(context.Background(), uuid.New().String(), service.TreasuryOperationRequest{
		Amount: "500.00",
		Type:   model.TreasuryInitial,
		Date:   "2026-01-01",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Personal)

	require.Len(t, repo.entries, 1)
	assert.Equal(t, model.LedgerBusiness, repo.entries[0].Ledger)
	assert.Nil(t, repo.entries[0].LinkID)
	assert.Equal(t, "Treasury", repo.entries[0].Category)
}

func TestDeleteEntryRemovesBothSidesOfLinkedPair(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New()

	res, err := svc.RecordTreasuryOperation(context.Background(), userID.String(), service.TreasuryOperationRequest{
		Amount: "80.00",
		Type:   model.TreasuryDeposit,
		Date:   "2026-03-05",
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 2)

	// Deleting either side removes the whole pair.
	err = svc.DeleteEntry(context.Background(), userID.String(), res.Personal.ID)
	require.NoError(t, err)

	assert.Empty(t, repo.entries)

	business, _ := repo.SumByLedger(context.Background(), userID, model.LedgerBusiness)
	personal, _ := repo.SumByLedger(context.Background(), userID, model.LedgerPersonal)
	assert.True(t, business.IsZero())
	assert.True(t, personal.IsZero())
}

func TestDeleteEntryLegacyHeuristicRemovesSingleCounterpart(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New()
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	// Pre-link rows: cross-ledger pair without a link id.
	business := model.LedgerEntry{
		ID: uuid.New(), UserID: userID, Ledger: model.LedgerBusiness,
		Amount: decimal.RequireFromString("200"), Date: date,
		Category: model.CategoryBusinessTransfer, EntryType: model.TreasuryDeposit,
	}
	personal := model.LedgerEntry{
		ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal,
		Amount: decimal.RequireFromString("-200"), Date: date,
		Category: model.CategoryBusinessTransfer, EntryType: model.EntryTypeExpense,
	}
	repo.entries = []model.LedgerEntry{business, personal}

	err := svc.DeleteEntry(context.Background(), userID.String(), business.ID.String())
	require.NoError(t, err)

	assert.Empty(t, repo.entries)
}

func TestDeleteEntryLegacyHeuristicKeepsAmbiguousCounterparts(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	userID := uuid.New()
	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	business := model.LedgerEntry{
		ID: uuid.New(), UserID: userID, Ledger: model.LedgerBusiness,
		Amount: decimal.RequireFromString("200"), Date: date,
		Category: model.CategoryBusinessTransfer, EntryType: model.TreasuryDeposit,
	}
	// Two identical personal rows both qualify as counterpart.
	p1 := model.LedgerEntry{
		ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal,
		Amount: decimal.RequireFromString("-200"), Date: date,
		Category: model.CategoryBusinessTransfer, EntryType: model.EntryTypeExpense,
	}
	p2 := p1
	p2.ID = uuid.New()
	repo.entries = []model.LedgerEntry{business, p1, p2}

	err := svc.DeleteEntry(context.Background(), userID.String(), business.ID.String())
	require.NoError(t, err)

	// Ambiguous match: only the requested entry goes.
	require.Len(t, repo.entries, 2)
	for _, e := range repo.entries {
		assert.Equal(t, model.LedgerPersonal, e.Ledger)
	}
}

func TestDeleteEntryRejectsForeignEntry(t *testing.T) {
	svc, repo, _ := newLedgerFixture()
	owner := uuid.New()

	entry := model.LedgerEntry{
		ID: uuid.New(), UserID: owner, Ledger: model.LedgerPersonal,
		Amount: decimal.RequireFromString("-10"), Date: time.Now(),
		Category: "Misc", EntryType: model.EntryTypeExpense,
	}
	repo.entries = []model.LedgerEntry{entry}

	err := svc.DeleteEntry(context.Background(), uuid.New().String(), entry.ID.String())
	assert.Error(t, err)
	assert.Len(t, repo.entries, 1)
}

func TestDeleteEntryWritesAuditLog(t *testing.T) {
	svc, repo, audit := newLedgerFixture()
	userID := uuid.New()

	entry := model.LedgerEntry{
		ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal,
		Amount: decimal.RequireFromString("-10"), Date: time.Now(),
		Category: "Misc", EntryType: model.EntryTypeExpense,
	}
	repo.entries = []model.LedgerEntry{entry}

	require.NoError(t, svc.DeleteEntry(context.Background(), userID.String(), entry.ID.String()))

	require.NotEmpty(t, audit.logged)
	assert.Equal(t, model.ActionDeleteEntry, audit.logged[len(audit.logged)-1].Action)
}
