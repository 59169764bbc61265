package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/tax"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxRateRequest struct {
	Year        int    `json:"year" binding:"required"`
	ResaleRate  string `json:"resale_rate" binding:"required"`  // Decimal string, percent, e.g. "12.30"
	ServiceRate string `json:"service_rate" binding:"required"` // Decimal string, percent, e.g. "21.20"
	Description string `json:"description"`
}

type UpdateTaxRateRequest struct {
	Year        int    `json:"year" binding:"required"`
	ResaleRate  string `json:"resale_rate" binding:"required"`
	ServiceRate string `json:"service_rate" binding:"required"`
	Description string `json:"description"`
}

type TaxRateResponse struct {
	ID          string `json:"id"`
	Year        int    `json:"year"`
	ResaleRate  string `json:"resale_rate"`
	ServiceRate string `json:"service_rate"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type EstimateTaxRequest struct {
	Amount        string `json:"amount" binding:"required"` // Decimal string
	OperationType string `json:"operation_type" binding:"required,oneof=RESALE SERVICE"`
	Regime        string `json:"regime" binding:"required,oneof=MICRO_STANDARD MICRO_ACRE UNDECLARED"`
	Year          int    `json:"year"` // 0 means current year
}

type EstimateTaxResponse struct {
	Tax          string `json:"tax"`
	Degraded     bool   `json:"degraded"`
	UsedFallback bool   `json:"used_fallback"`
	ResolvedYear int    `json:"resolved_year"`
}

// --- Interface ---

type TaxRateService interface {
	GetTaxRates(ctx context.Context) ([]TaxRateResponse, error)
	CreateTaxRate(ctx context.Context, userID string, req CreateTaxRateRequest) (TaxRateResponse, error)
	UpdateTaxRate(ctx context.Context, userID, id string, req UpdateTaxRateRequest) (TaxRateResponse, error)
	DeleteTaxRate(ctx context.Context, userID, id string) error
	// EstimateTax loads the full rate table and runs the pure computation.
	// A zero estimate with Degraded set means the table is empty, not that
	// the amount is untaxed.
	EstimateTax(ctx context.Context, req EstimateTaxRequest) (EstimateTaxResponse, error)
}

type taxRateService struct {
	rateRepo  repository.TaxRateRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewTaxRateService(
	rateRepo repository.TaxRateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) TaxRateService {
	return &taxRateService{rateRepo: rateRepo, auditRepo: auditRepo, txManager: txManager}
}

// --- Implementation ---

func (s *taxRateService) GetTaxRates(ctx context.Context) ([]TaxRateResponse, error) {
	rates, err := s.rateRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax rates: %w", err)
	}

	res := make([]TaxRateResponse, 0, len(rates))
	for _, r := range rates {
		res = append(res, toTaxRateResponse(r))
	}
	return res, nil
}

func (s *taxRateService) CreateTaxRate(ctx context.Context, userID string, req CreateTaxRateRequest) (TaxRateResponse, error) {
	resaleRate, serviceRate, err := parseRateFields(req.ResaleRate, req.ServiceRate)
	if err != nil {
		return TaxRateResponse{}, err
	}

	count, err := s.rateRepo.CountByYear(ctx, req.Year, nil)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("failed to check year uniqueness: %w", err)
	}
	if count > 0 {
		return TaxRateResponse{}, fmt.Errorf("a rate entry for year %d already exists", req.Year)
	}

	rate := model.TaxRate{
		Year:        req.Year,
		ResaleRate:  resaleRate,
		ServiceRate: serviceRate,
		Description: req.Description,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.rateRepo.Create(txCtx, &rate); createErr != nil {
			return fmt.Errorf("failed to create tax rate: %w", createErr)
		}
		s.writeAuditLog(txCtx, userID, model.ActionCreateTaxRate, rate.ID.String(), strconv.Itoa(req.Year), req)
		return nil
	})
	if err != nil {
		return TaxRateResponse{}, err
	}

	return toTaxRateResponse(rate), nil
}

func (s *taxRateService) UpdateTaxRate(ctx context.Context, userID, id string, req UpdateTaxRateRequest) (TaxRateResponse, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("invalid tax rate id: %w", err)
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxRateResponse{}, fmt.Errorf("tax rate not found")
		}
		return TaxRateResponse{}, fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	resaleRate, serviceRate, err := parseRateFields(req.ResaleRate, req.ServiceRate)
	if err != nil {
		return TaxRateResponse{}, err
	}

	count, err := s.rateRepo.CountByYear(ctx, req.Year, &rateID)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("failed to check year uniqueness: %w", err)
	}
	if count > 0 {
		return TaxRateResponse{}, fmt.Errorf("a rate entry for year %d already exists", req.Year)
	}

	rate.Year = req.Year
	rate.ResaleRate = resaleRate
	rate.ServiceRate = serviceRate
	rate.Description = req.Description

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if saveErr := s.rateRepo.Update(txCtx, rate); saveErr != nil {
			return fmt.Errorf("failed to update tax rate: %w", saveErr)
		}
		s.writeAuditLog(txCtx, userID, model.ActionUpdateTaxRate, rate.ID.String(), strconv.Itoa(req.Year), req)
		return nil
	})
	if err != nil {
		return TaxRateResponse{}, err
	}

	return toTaxRateResponse(*rate), nil
}

func (s *taxRateService) DeleteTaxRate(ctx context.Context, userID, id string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rate id: %w", err)
	}

	rate, err := s.rateRepo.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rate not found")
		}
		return fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.rateRepo.Delete(txCtx, rateID); delErr != nil {
			return fmt.Errorf("failed to delete tax rate: %w", delErr)
		}
		s.writeAuditLog(txCtx, userID, model.ActionDeleteTaxRate, rate.ID.String(), strconv.Itoa(rate.Year), map[string]string{"deleted_id": id})
		return nil
	})
}

func (s *taxRateService) EstimateTax(ctx context.Context, req EstimateTaxRequest) (EstimateTaxResponse, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return EstimateTaxResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !model.ValidOperationType(req.OperationType) {
		return EstimateTaxResponse{}, fmt.Errorf("invalid operation_type: %s", req.OperationType)
	}
	if !model.ValidRegime(req.Regime) {
		return EstimateTaxResponse{}, fmt.Errorf("invalid regime: %s", req.Regime)
	}

	year := req.Year
	if year == 0 {
		// The default year is applied here, at the boundary; the
		// computation itself never reads the clock.
		year = time.Now().Year()
	}

	rates, err := s.rateRepo.ListAll(ctx)
	if err != nil {
		return EstimateTaxResponse{}, fmt.Errorf("failed to load rate table: %w", err)
	}

	res := tax.Compute(amount, req.OperationType, req.Regime, rates, year)
	return EstimateTaxResponse{
		Tax:          res.Tax.StringFixed(2),
		Degraded:     res.Degraded,
		UsedFallback: res.UsedFallback,
		ResolvedYear: res.ResolvedYear,
	}, nil
}

// --- Helpers ---

func parseRateFields(resaleStr, serviceStr string) (decimal.Decimal, decimal.Decimal, error) {
	resaleRate, err := decimal.NewFromString(resaleStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid resale_rate value: %w", err)
	}
	serviceRate, err := decimal.NewFromString(serviceStr)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid service_rate value: %w", err)
	}
	if resaleRate.IsNegative() || serviceRate.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("rates must not be negative")
	}
	return resaleRate, serviceRate, nil
}

func toTaxRateResponse(r model.TaxRate) TaxRateResponse {
	return TaxRateResponse{
		ID:          r.ID.String(),
		Year:        r.Year,
		ResaleRate:  r.ResaleRate.StringFixed(4),
		ServiceRate: r.ServiceRate.StringFixed(4),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *taxRateService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.auditRepo.Log(ctx, &entry)
}
