package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository interface {
	// Upsert writes the budgets, replacing the amount of any row that
	// already exists for the same (user, month, category).
	Upsert(ctx context.Context, budgets []*model.MonthlyBudget) error
	ListByMonth(ctx context.Context, userID uuid.UUID, monthKey string) ([]model.MonthlyBudget, error)
}

type budgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Upsert(ctx context.Context, budgets []*model.MonthlyBudget) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month_key"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(budgets).Error
}

func (r *budgetRepository) ListByMonth(ctx context.Context, userID uuid.UUID, monthKey string) ([]model.MonthlyBudget, error) {
	var budgets []model.MonthlyBudget
	if err := GetDB(ctx, r.db).
		Where("user_id = ? AND month_key = ?", userID, monthKey).
		Order("category").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}
