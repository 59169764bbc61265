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
	"gorm.io/gorm"
)

type fakeBatchRepo struct {
	batches map[uuid.UUID]*model.InventoryBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*model.InventoryBatch)}
}

func (f *fakeBatchRepo) Create(_ context.Context, batch *model.InventoryBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	b := *batch
	f.batches[batch.ID] = &b
	return nil
}

func (f *fakeBatchRepo) Update(_ context.Context, batch *model.InventoryBatch) error {
	b := *batch
	f.batches[batch.ID] = &b
	return nil
}

func (f *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryBatch, error) {
	if b, ok := f.batches[id]; ok {
		out := *b
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBatchRepo) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.InventoryBatch, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeBatchRepo) List(_ context.Context, userID uuid.UUID, includeArchived bool, _, _ int) ([]model.InventoryBatch, int64, error) {
	var out []model.InventoryBatch
	for _, b := range f.batches {
		if b.UserID != userID {
			continue
		}
		if !includeArchived && b.IsArchived {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBatchRepo) SetArchived(_ context.Context, id uuid.UUID, archived bool) error {
	if b, ok := f.batches[id]; ok {
		b.IsArchived = archived
	}
	return nil
}

type fakeItemRepo struct {
	items map[uuid.UUID]*model.ResaleItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*model.ResaleItem)}
}

func (f *fakeItemRepo) CreateAll(_ context.Context, items []*model.ResaleItem) error {
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		i := *item
		f.items[item.ID] = &i
	}
	return nil
}

func (f *fakeItemRepo) Update(_ context.Context, item *model.ResaleItem) error {
	i := *item
	f.items[item.ID] = &i
	return nil
}

func (f *fakeItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ResaleItem, error) {
	if item, ok := f.items[id]; ok {
		out := *item
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeItemRepo) CountByBatchAndStatus(_ context.Context, batchID uuid.UUID, status string) (int64, error) {
	var count int64
	for _, item := range f.items {
		if item.BatchID == batchID && item.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeItemRepo) ListByBatch(_ context.Context, batchID uuid.UUID) ([]model.ResaleItem, error) {
	var out []model.ResaleItem
	for _, item := range f.items {
		if item.BatchID == batchID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeItemRepo) ListSoldInRange(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.ResaleItem, error) {
	var out []model.ResaleItem
	for _, item := range f.items {
		if item.UserID == userID && item.Status == model.ItemStatusSold &&
			item.SoldDate != nil && !item.SoldDate.Before(from) && !item.SoldDate.After(to) {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeTaxRateRepo struct {
	rates []model.TaxRate
}

func (f *fakeTaxRateRepo) Create(_ context.Context, rate *model.TaxRate) error {
	if rate.ID == uuid.Nil {
		rate.ID = uuid.New()
	}
	f.rates = append(f.rates, *rate)
	return nil
}

func (f *fakeTaxRateRepo) Update(_ context.Context, rate *model.TaxRate) error {
	for i := range f.rates {
		if f.rates[i].ID == rate.ID {
			f.rates[i] = *rate
		}
	}
	return nil
}

func (f *fakeTaxRateRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range f.rates {
		if f.rates[i].ID == id {
			f.rates = append(f.rates[:i], f.rates[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeTaxRateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TaxRate, error) {
	for i := range f.rates {
		if f.rates[i].ID == id {
			r := f.rates[i]
			return &r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaxRateRepo) ListAll(_ context.Context) ([]model.TaxRate, error) {
	out := make([]model.TaxRate, len(f.rates))
	copy(out, f.rates)
	return out, nil
}

func (f *fakeTaxRateRepo) CountByYear(_ context.Context, year int, excludeID *uuid.UUID) (int64, error) {
	var count int64
	for _, r := range f.rates {
		if r.Year == year && (excludeID == nil || r.ID != *excludeID) {
			count++
		}
	}
	return count, nil
}

func newResaleFixture() (service.ResaleService, *fakeBatchRepo, *fakeItemRepo, *fakeTaxRateRepo) {
	batchRepo := newFakeBatchRepo()
	itemRepo := newFakeItemRepo()
	rateRepo := &fakeTaxRateRepo{}
	svc := service.NewResaleService(batchRepo, itemRepo, rateRepo, &fakeAuditRepo{}, fakeTxManager{})
	return svc, batchRepo, itemRepo, rateRepo
}

func TestCreateBatchSumsCosts(t *testing.T) {
	svc, batchRepo, itemRepo, _ := newResaleFixture()
	userID := uuid.New().String()

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "Vinted lot March",
		TaxProfile: model.RegimeStandard,
		Items: []service.BatchItemRequest{
			{Name: "Jacket", PurchasePrice: "12.50"},
			{Name: "Sneakers", PurchasePrice: "25.00"},
			{Name: "Belt", PurchasePrice: "3.30"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "40.80", batch.TotalCost)
	assert.Equal(t, 3, batch.ItemCount)
	assert.Equal(t, model.BatchTypeManual, batch.BatchType)
	assert.Len(t, batchRepo.batches, 1)
	assert.Len(t, itemRepo.items, 3)
}

func TestMarkItemSoldArchivesBatchWhenLastItemSells(t *testing.T) {
	svc, batchRepo, _, _ := newResaleFixture()
	userID := uuid.New().String()

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "Small lot",
		TaxProfile: model.RegimeStandard,
		Items: []service.BatchItemRequest{
			{Name: "A", PurchasePrice: "10"},
			{Name: "B", PurchasePrice: "10"},
		},
	})
	require.NoError(t, err)
	require.Len(t, batch.Items, 2)

	_, err = svc.MarkItemSold(context.Background(), userID, batch.Items[0].ID, service.MarkItemSoldRequest{
		SoldPrice: "20.00", SoldDate: "2026-03-01",
	})
	require.NoError(t, err)

	batchID := uuid.MustParse(batch.ID)
	assert.False(t, batchRepo.batches[batchID].IsArchived)

	_, err = svc.MarkItemSold(context.Background(), userID, batch.Items[1].ID, service.MarkItemSoldRequest{
		SoldPrice: "22.00", SoldDate: "2026-03-02",
	})
	require.NoError(t, err)

	assert.True(t, batchRepo.batches[batchID].IsArchived)
}

func TestRestockItemUnarchivesBatch(t *testing.T) {
	svc, batchRepo, _, _ := newResaleFixture()
	userID := uuid.New().String()

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "Single",
		TaxProfile: model.RegimeStandard,
		Items:      []service.BatchItemRequest{{Name: "A", PurchasePrice: "10"}},
	})
	require.NoError(t, err)

	_, err = svc.MarkItemSold(context.Background(), userID, batch.Items[0].ID, service.MarkItemSoldRequest{
		SoldPrice: "15.00", SoldDate: "2026-03-01",
	})
	require.NoError(t, err)

	batchID := uuid.MustParse(batch.ID)
	require.True(t, batchRepo.batches[batchID].IsArchived)

	item, err := svc.RestockItem(context.Background(), userID, batch.Items[0].ID)
	require.NoError(t, err)

	assert.Equal(t, model.ItemStatusAvailable, item.Status)
	assert.Nil(t, item.SoldPrice)
	assert.False(t, batchRepo.batches[batchID].IsArchived)
}

func TestDeleteItemAdjustsBatchTotals(t *testing.T) {
	svc, batchRepo, itemRepo, _ := newResaleFixture()
	userID := uuid.New().String()

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "Lot",
		TaxProfile: model.RegimeStandard,
		Items: []service.BatchItemRequest{
			{Name: "A", PurchasePrice: "10.00"},
			{Name: "B", PurchasePrice: "6.50"},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), userID, batch.Items[1].ID))

	batchID := uuid.MustParse(batch.ID)
	assert.Equal(t, 1, batchRepo.batches[batchID].ItemCount)
	assert.True(t, batchRepo.batches[batchID].TotalCost.Equal(decimal.RequireFromString("10")))
	assert.Len(t, itemRepo.items, 1)
}

func TestGetItemProfitUsesBatchRegimeAndSaleYear(t *testing.T) {
	svc, _, _, rateRepo := newResaleFixture()
	userID := uuid.New().String()

	rateRepo.rates = []model.TaxRate{
		{ID: uuid.New(), Year: 2026, ResaleRate: decimal.RequireFromString("22"), ServiceRate: decimal.RequireFromString("21.2")},
	}

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "ACRE lot",
		TaxProfile: model.RegimeACRE,
		Items:      []service.BatchItemRequest{{Name: "Console", PurchasePrice: "20.00"}},
	})
	require.NoError(t, err)

	_, err = svc.MarkItemSold(context.Background(), userID, batch.Items[0].ID, service.MarkItemSoldRequest{
		SoldPrice: "59.90", SoldDate: "2026-03-15",
	})
	require.NoError(t, err)

	profit, err := svc.GetItemProfit(context.Background(), userID, batch.Items[0].ID)
	require.NoError(t, err)

	// ACRE halves the 22% resale rate: ceil(59.90 * 0.11) = 6.59.
	assert.Equal(t, "59.90", profit.Revenue)
	assert.Equal(t, "6.59", profit.Tax)
	assert.Equal(t, "33.31", profit.NetProfit)
	assert.Equal(t, 2026, profit.SaleYear)
	assert.False(t, profit.Degraded)
}

func TestGetItemProfitDegradesOnEmptyRateTable(t *testing.T) {
	svc, _, _, _ := newResaleFixture()
	userID := uuid.New().String()

	batch, err := svc.CreateBatch(context.Background(), userID, service.CreateBatchRequest{
		Name:       "Lot",
		TaxProfile: model.RegimeStandard,
		Items:      []service.BatchItemRequest{{Name: "A", PurchasePrice: "5.00"}},
	})
	require.NoError(t, err)

	_, err = svc.MarkItemSold(context.Background(), userID, batch.Items[0].ID, service.MarkItemSoldRequest{
		SoldPrice: "10.00", SoldDate: "2026-03-15",
	})
	require.NoError(t, err)

	profit, err := svc.GetItemProfit(context.Background(), userID, batch.Items[0].ID)
	require.NoError(t, err)

	assert.Equal(t, "0.00", profit.Tax)
	assert.True(t, profit.Degraded)
	assert.Equal(t, "5.00", profit.NetProfit)
}
