package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// --- DTOs ---

type SetBudgetsRequest struct {
	MonthKey string            `json:"month_key" binding:"required"` // YYYY-MM
	Budgets  map[string]string `json:"budgets" binding:"required"`   // category -> decimal amount
}

type BudgetLineResponse struct {
	Category  string `json:"category"`
	Budget    string `json:"budget"`
	Spent     string `json:"spent"`
	Remaining string `json:"remaining"`
}

type BudgetOverviewResponse struct {
	MonthKey string               `json:"month_key"`
	Lines    []BudgetLineResponse `json:"lines"`
}

// --- Interface ---

type BudgetService interface {
	// SetBudgets upserts the caps for one month. Negative amounts are
	// rejected; a zero cap overwrites (clears) an existing one.
	SetBudgets(ctx context.Context, userID string, req SetBudgetsRequest) error
	// GetBudgetOverview joins the month's caps with the net spend per
	// category from the personal ledger.
	GetBudgetOverview(ctx context.Context, userID, monthKey string) (BudgetOverviewResponse, error)
}

type budgetService struct {
	budgetRepo repository.BudgetRepository
	ledgerRepo repository.LedgerRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewBudgetService(
	budgetRepo repository.BudgetRepository,
	ledgerRepo repository.LedgerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BudgetService {
	return &budgetService{
		budgetRepo: budgetRepo,
		ledgerRepo: ledgerRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
	}
}

// --- Implementation ---

func (s *budgetService) SetBudgets(ctx context.Context, userID string, req SetBudgetsRequest) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	if !monthKeyPattern.MatchString(req.MonthKey) {
		return fmt.Errorf("invalid month_key format (expected YYYY-MM): %s", req.MonthKey)
	}

	budgets := make([]*model.MonthlyBudget, 0, len(req.Budgets))
	for category, amountStr := range req.Budgets {
		amount, parseErr := decimal.NewFromString(amountStr)
		if parseErr != nil {
			return fmt.Errorf("invalid amount for category %q: %w", category, parseErr)
		}
		if amount.IsNegative() {
			return fmt.Errorf("budget for category %q must not be negative", category)
		}
		budgets = append(budgets, &model.MonthlyBudget{
			UserID:   uid,
			MonthKey: req.MonthKey,
			Category: category,
			Amount:   amount,
		})
	}
	if len(budgets) == 0 {
		return nil
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if upsertErr := s.budgetRepo.Upsert(txCtx, budgets); upsertErr != nil {
			return fmt.Errorf("failed to save budgets: %w", upsertErr)
		}

		details, _ := json.Marshal(req)
		_ = s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &uid,
			Action:     model.ActionSetBudgets,
			EntityID:   req.MonthKey,
			EntityName: req.MonthKey,
			Details:    string(details),
		})
		return nil
	})
}

func (s *budgetService) GetBudgetOverview(ctx context.Context, userID, monthKey string) (BudgetOverviewResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return BudgetOverviewResponse{}, fmt.Errorf("invalid user id: %w", err)
	}
	if !monthKeyPattern.MatchString(monthKey) {
		return BudgetOverviewResponse{}, fmt.Errorf("invalid month_key format (expected YYYY-MM): %s", monthKey)
	}

	from, to, err := monthBoundaries(monthKey)
	if err != nil {
		return BudgetOverviewResponse{}, err
	}

	budgets, err := s.budgetRepo.ListByMonth(ctx, uid, monthKey)
	if err != nil {
		return BudgetOverviewResponse{}, fmt.Errorf("failed to fetch budgets: %w", err)
	}

	totals, err := s.ledgerRepo.SumByCategory(ctx, uid, model.LedgerPersonal, from, to)
	if err != nil {
		return BudgetOverviewResponse{}, fmt.Errorf("failed to aggregate spending: %w", err)
	}

	lines := make([]BudgetLineResponse, 0, len(budgets))
	for _, b := range budgets {
		// A category only counts as spending when its net total for the
		// month is negative.
		spent := decimal.Zero
		if total, ok := totals[b.Category]; ok && total.IsNegative() {
			spent = total.Neg()
		}
		lines = append(lines, BudgetLineResponse{
			Category:  b.Category,
			Budget:    b.Amount.StringFixed(2),
			Spent:     spent.StringFixed(2),
			Remaining: b.Amount.Sub(spent).StringFixed(2),
		})
	}

	return BudgetOverviewResponse{MonthKey: monthKey, Lines: lines}, nil
}

// monthBoundaries returns the first and last day of the month named by a
// YYYY-MM key.
func monthBoundaries(monthKey string) (time.Time, time.Time, error) {
	first, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month_key: %w", err)
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}
