// Package tax computes the contribution owed on a sale. It is pure: the
// rate table and the fiscal year are passed in by the caller, nothing is
// read from the database or the clock.
package tax

import (
	"log"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)
)

// Result carries the computed tax plus how it was resolved. Degraded marks
// a zero produced by a missing rate table rather than a legitimately zero
// tax; callers must not treat the two the same.
type Result struct {
	Tax          decimal.Decimal `json:"tax"`
	Degraded     bool            `json:"degraded"`
	UsedFallback bool            `json:"used_fallback"`
	ResolvedYear int             `json:"resolved_year"` // 0 when nothing resolved
}

// ResolveRate returns the rate row for year, or the newest configured row
// when the requested year has no entry yet. The fallback keeps estimates
// working for future years before an administrator enters official rates.
// Returns nil on an empty table.
func ResolveRate(rates []model.TaxRate, year int) *model.TaxRate {
	for i := range rates {
		if rates[i].Year == year {
			return &rates[i]
		}
	}

	if len(rates) == 0 {
		log.Printf("[tax] ERROR: no rates configured, cannot resolve year %d", year)
		return nil
	}

	newest := &rates[0]
	for i := range rates {
		if rates[i].Year > newest.Year {
			newest = &rates[i]
		}
	}
	log.Printf("[tax] WARN: no rates for year %d, using rates of %d", year, newest.Year)
	return newest
}

// Compute returns the tax owed on amount for the given operation type,
// regime and fiscal year, rounded UP to the nearest cent. Rounding up is a
// conservative-estimate policy: a slight overestimate is preferred to an
// underestimate of tax owed.
func Compute(amount decimal.Decimal, opType, regime string, rates []model.TaxRate, year int) Result {
	if amount.LessThanOrEqual(decimal.Zero) {
		return Result{Tax: decimal.Zero}
	}
	// Undeclared income sits outside the computation entirely.
	if regime == model.RegimeUndeclared {
		return Result{Tax: decimal.Zero}
	}

	rate := ResolveRate(rates, year)
	if rate == nil {
		return Result{Tax: decimal.Zero, Degraded: true}
	}

	percent := rate.ResaleRate
	if opType == model.OpTypeService {
		percent = rate.ServiceRate
	}

	fraction := percent.Div(oneHundred)
	if regime == model.RegimeACRE {
		fraction = fraction.Div(two)
	}

	return Result{
		Tax:          amount.Mul(fraction).RoundCeil(2),
		UsedFallback: rate.Year != year,
		ResolvedYear: rate.Year,
	}
}

// NetProfit is the margin left on a sold item after its purchase cost and
// the tax computed on the sale price.
func NetProfit(soldPrice, purchasePrice decimal.Decimal, opType, regime string, rates []model.TaxRate, year int) (decimal.Decimal, Result) {
	res := Compute(soldPrice, opType, regime, rates, year)
	return soldPrice.Sub(purchasePrice).Sub(res.Tax), res
}
