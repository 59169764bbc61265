package service_test

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBudgetRepo struct {
	budgets map[string]*model.MonthlyBudget // user|month|category -> row
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{budgets: make(map[string]*model.MonthlyBudget)}
}

func budgetKey(b *model.MonthlyBudget) string {
	return b.UserID.String() + "|" + b.MonthKey + "|" + b.Category
}

func (f *fakeBudgetRepo) Upsert(_ context.Context, budgets []*model.MonthlyBudget) error {
	for _, b := range budgets {
		key := budgetKey(b)
		if existing, ok := f.budgets[key]; ok {
			existing.Amount = b.Amount
			continue
		}
		row := *b
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		f.budgets[key] = &row
	}
	return nil
}

func (f *fakeBudgetRepo) ListByMonth(_ context.Context, userID uuid.UUID, monthKey string) ([]model.MonthlyBudget, error) {
	var out []model.MonthlyBudget
	for _, b := range f.budgets {
		if b.UserID == userID && b.MonthKey == monthKey {
			out = append(out, *b)
		}
	}
	return out, nil
}

func newBudgetFixture() (service.BudgetService, *fakeBudgetRepo, *fakeLedgerRepo) {
	budgetRepo := newFakeBudgetRepo()
	ledgerRepo := &fakeLedgerRepo{}
	svc := service.NewBudgetService(budgetRepo, ledgerRepo, &fakeAuditRepo{}, fakeTxManager{})
	return svc, budgetRepo, ledgerRepo
}

func TestSetBudgetsValidatesMonthKey(t *testing.T) {
	svc, repo, _ := newBudgetFixture()

	for _, key := range []string{"2026-13", "2026-1", "202603", "march"} {
		err := svc.SetBudgets(context.Background(), uuid.New().String(), service.SetBudgetsRequest{
			MonthKey: key,
			Budgets:  map[string]string{"Groceries": "300"},
		})
		assert.Error(t, err, "month key %q should be rejected", key)
	}
	assert.Empty(t, repo.budgets)
}

func TestSetBudgetsRejectsNegativeAmount(t *testing.T) {
	svc, repo, _ := newBudgetFixture()

	err := svc.SetBudgets(context.Background(), uuid.New().String(), service.SetBudgetsRequest{
		MonthKey: "2026-03",
		Budgets:  map[string]string{"Groceries": "-5"},
	})
	assert.Error(t, err)
	assert.Empty(t, repo.budgets)
}

func TestSetBudgetsOverwritesExistingCap(t *testing.T) {
	svc, repo, _ := newBudgetFixture()
	userID := uuid.New()

	require.NoError(t, svc.SetBudgets(context.Background(), userID.String(), service.SetBudgetsRequest{
		MonthKey: "2026-03",
		Budgets:  map[string]string{"Groceries": "300"},
	}))
	require.NoError(t, svc.SetBudgets(context.Background(), userID.String(), service.SetBudgetsRequest{
		MonthKey: "2026-03",
		Budgets:  map[string]string{"Groceries": "250"},
	}))

	rows, err := repo.ListByMonth(context.Background(), userID, "2026-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("250")))
}

func TestGetBudgetOverviewCountsOnlyNetNegativeAsSpending(t *testing.T) {
	svc, _, ledgerRepo := newBudgetFixture()
	userID := uuid.New()

	require.NoError(t, svc.SetBudgets(context.Background(), userID.String(), service.SetBudgetsRequest{
		MonthKey: "2026-03",
		Budgets:  map[string]string{"Groceries": "300", "Salary": "0"},
	}))

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ledgerRepo.entries = []model.LedgerEntry{
		{ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal, Amount: decimal.RequireFromString("-120.50"), Date: date, Category: "Groceries", EntryType: model.EntryTypeExpense},
		{ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal, Amount: decimal.RequireFromString("20"), Date: date, Category: "Groceries", EntryType: model.EntryTypeIncome},
		{ID: uuid.New(), UserID: userID, Ledger: model.LedgerPersonal, Amount: decimal.RequireFromString("2000"), Date: date, Category: "Salary", EntryType: model.EntryTypeIncome},
	}

	overview, err := svc.GetBudgetOverview(context.Background(), userID.String(), "2026-03")
	require.NoError(t, err)
	require.Len(t, overview.Lines, 2)

	lines := make(map[string]service.BudgetLineResponse)
	for _, l := range overview.Lines {
		lines[l.Category] = l
	}

	// Groceries nets to -100.50, so 100.50 counts as spent.
	assert.Equal(t, "100.50", lines["Groceries"].Spent)
	assert.Equal(t, "199.50", lines["Groceries"].Remaining)
	// Salary nets positive: no spending against its cap.
	assert.Equal(t, "0.00", lines["Salary"].Spent)
}
