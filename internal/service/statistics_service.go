package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type MonthlyOverviewResponse struct {
	MonthKey        string            `json:"month_key"`
	PersonalBalance string            `json:"personal_balance"`
	BusinessBalance string            `json:"business_balance"`
	MonthIncome     string            `json:"month_income"`
	MonthExpense    string            `json:"month_expense"`
	ExpenseByCat    map[string]string `json:"expense_by_category"`
	MonthTax        string            `json:"month_tax"`          // estimated tax on the month's resale income
	TaxDegraded     bool              `json:"tax_degraded"`       // true when the rate table was empty
	SoldItemCount   int               `json:"sold_item_count"`    // resale items sold this month
	MonthRevenue    string            `json:"month_sale_revenue"` // gross resale revenue this month
}

// --- Interface ---

type StatisticsService interface {
	// GetMonthlyOverview aggregates the dashboard numbers for one month:
	// ledger balances, net income/expense per category, and the tax
	// estimate over the month's sold resale items.
	GetMonthlyOverview(ctx context.Context, userID, monthKey string) (MonthlyOverviewResponse, error)
}

type statisticsService struct {
	ledgerRepo repository.LedgerRepository
	itemRepo   repository.ResaleItemRepository
	batchRepo  repository.BatchRepository
	rateRepo   repository.TaxRateRepository
}

func NewStatisticsService(
	ledgerRepo repository.LedgerRepository,
	itemRepo repository.ResaleItemRepository,
	batchRepo repository.BatchRepository,
	rateRepo repository.TaxRateRepository,
) StatisticsService {
	return &statisticsService{
		ledgerRepo: ledgerRepo,
		itemRepo:   itemRepo,
		batchRepo:  batchRepo,
		rateRepo:   rateRepo,
	}
}

// --- Implementation ---

func (s *statisticsService) GetMonthlyOverview(ctx context.Context, userID, monthKey string) (MonthlyOverviewResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return MonthlyOverviewResponse{}, fmt.Errorf("invalid user id: %w", err)
	}
	if !monthKeyPattern.MatchString(monthKey) {
		return MonthlyOverviewResponse{}, fmt.Errorf("invalid month_key format (expected YYYY-MM): %s", monthKey)
	}

	from, to, err := monthBoundaries(monthKey)
	if err != nil {
		return MonthlyOverviewResponse{}, err
	}

	personal, err := s.ledgerRepo.SumByLedger(ctx, uid, model.LedgerPersonal)
	if err != nil {
		return MonthlyOverviewResponse{}, fmt.Errorf("failed to sum personal ledger: %w", err)
	}
	business, err := s.ledgerRepo.SumByLedger(ctx, uid, model.LedgerBusiness)
	if err != nil {
		return MonthlyOverviewResponse{}, fmt.Errorf("failed to sum business ledger: %w", err)
	}

	totals, err := s.ledgerRepo.SumByCategory(ctx, uid, model.LedgerPersonal, from, to)
	if err != nil {
		return MonthlyOverviewResponse{}, fmt.Errorf("failed to aggregate month: %w", err)
	}

	// Net per category: a category's positive total counts toward income,
	// a negative one toward expenses.
	income := decimal.Zero
	expense := decimal.Zero
	expenseByCat := make(map[string]string)
	for cat, total := range totals {
		if total.IsPositive() {
			income = income.Add(total)
		} else if total.IsNegative() {
			abs := total.Neg()
			expense = expense.Add(abs)
			expenseByCat[cat] = abs.StringFixed(2)
		}
	}

	monthTax, revenue, soldCount, degraded, err := s.estimateMonthTax(ctx, uid, from, to)
	if err != nil {
		return MonthlyOverviewResponse{}, err
	}

	return MonthlyOverviewResponse{
		MonthKey:        monthKey,
		PersonalBalance: personal.StringFixed(2),
		BusinessBalance: business.StringFixed(2),
		MonthIncome:     income.StringFixed(2),
		MonthExpense:    expense.StringFixed(2),
		ExpenseByCat:    expenseByCat,
		MonthTax:        monthTax.StringFixed(2),
		TaxDegraded:     degraded,
		SoldItemCount:   soldCount,
		MonthRevenue:    revenue.StringFixed(2),
	}, nil
}

// estimateMonthTax sums the per-item tax over every resale item sold in
// the window, each taxed with its own sale year and its batch's regime.
func (s *statisticsService) estimateMonthTax(ctx context.Context, uid uuid.UUID, from, to time.Time) (decimal.Decimal, decimal.Decimal, int, bool, error) {
	items, err := s.itemRepo.ListSoldInRange(ctx, uid, from, to)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, false, fmt.Errorf("failed to fetch sold items: %w", err)
	}
	if len(items) == 0 {
		return decimal.Zero, decimal.Zero, 0, false, nil
	}

	rates, err := s.rateRepo.ListAll(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, false, fmt.Errorf("failed to load rate table: %w", err)
	}

	profiles := make(map[uuid.UUID]string)
	monthTax := decimal.Zero
	revenue := decimal.Zero
	degraded := false
	for _, item := range items {
		if item.SoldPrice == nil || item.SoldDate == nil {
			continue
		}

		profile, ok := profiles[item.BatchID]
		if !ok {
			batch, findErr := s.batchRepo.FindByID(ctx, item.BatchID)
			if findErr != nil {
				return decimal.Zero, decimal.Zero, 0, false, fmt.Errorf("failed to fetch batch %s: %w", item.BatchID, findErr)
			}
			profile = batch.TaxProfile
			profiles[item.BatchID] = profile
		}

		res := tax.Compute(*item.SoldPrice, model.OpTypeResale, profile, rates, item.SoldDate.Year())
		monthTax = monthTax.Add(res.Tax)
		revenue = revenue.Add(*item.SoldPrice)
		degraded = degraded || res.Degraded
	}

	return monthTax, revenue, len(items), degraded, nil
}
