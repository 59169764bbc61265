package service_test

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTaxRateFixture() (service.TaxRateService, *fakeTaxRateRepo) {
	rateRepo := &fakeTaxRateRepo{}
	svc := service.NewTaxRateService(rateRepo, &fakeAuditRepo{}, fakeTxManager{})
	return svc, rateRepo
}

func TestCreateTaxRateRejectsDuplicateYear(t *testing.T) {
	svc, _ := newTaxRateFixture()
	userID := uuid.New().String()

	_, err := svc.CreateTaxRate(context.Background(), userID, service.CreateTaxRateRequest{
		Year: 2026, ResaleRate: "12.30", ServiceRate: "21.20",
	})
	require.NoError(t, err)

	_, err = svc.CreateTaxRate(context.Background(), userID, service.CreateTaxRateRequest{
		Year: 2026, ResaleRate: "13.00", ServiceRate: "22.00",
	})
	assert.Error(t, err)
}

func TestCreateTaxRateRejectsNegativeRate(t *testing.T) {
	svc, repo := newTaxRateFixture()

	_, err := svc.CreateTaxRate(context.Background(), uuid.New().String(), service.CreateTaxRateRequest{
		Year: 2026, ResaleRate: "-1", ServiceRate: "21.20",
	})
	assert.Error(t, err)
	assert.Empty(t, repo.rates)
}

func TestEstimateTaxRoundsUpToTheCent(t *testing.T) {
	svc, repo := newTaxRateFixture()
	repo.rates = []model.TaxRate{
		{ID: uuid.New(), Year: 2026, ResaleRate: decimal.RequireFromString("12.3"), ServiceRate: decimal.RequireFromString("22")},
	}

	res, err := svc.EstimateTax(context.Background(), service.EstimateTaxRequest{
		Amount:        "59.90",
		OperationType: model.OpTypeService,
		Regime:        model.RegimeStandard,
		Year:          2026,
	})
	require.NoError(t, err)

	// 59.90 * 22% = 13.178, which rounds up to 13.18.
	assert.Equal(t, "13.18", res.Tax)
	assert.False(t, res.Degraded)
	assert.False(t, res.UsedFallback)
	assert.Equal(t, 2026, res.ResolvedYear)
}

func TestEstimateTaxFallsBackToNewestConfiguredYear(t *testing.T) {
	svc, repo := newTaxRateFixture()
	repo.rates = []model.TaxRate{
		{ID: uuid.New(), Year: 2024, ResaleRate: decimal.RequireFromString("12.3"), ServiceRate: decimal.RequireFromString("21.2")},
		{ID: uuid.New(), Year: 2023, ResaleRate: decimal.RequireFromString("12.8"), ServiceRate: decimal.RequireFromString("22.1")},
	}

	res, err := svc.EstimateTax(context.Background(), service.EstimateTaxRequest{
		Amount:        "100.00",
		OperationType: model.OpTypeResale,
		Regime:        model.RegimeStandard,
		Year:          2026,
	})
	require.NoError(t, err)

	assert.True(t, res.UsedFallback)
	assert.Equal(t, 2024, res.ResolvedYear)
	assert.Equal(t, "12.30", res.Tax)
}

func TestEstimateTaxEmptyTableIsDegradedNotAnError(t *testing.T) {
	svc, _ := newTaxRateFixture()

	res, err := svc.EstimateTax(context.Background(), service.EstimateTaxRequest{
		Amount:        "100.00",
		OperationType: model.OpTypeResale,
		Regime:        model.RegimeStandard,
		Year:          2026,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", res.Tax)
	assert.True(t, res.Degraded)
}
