package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// topCoffeesLimit caps the popularity ranking.
const topCoffeesLimit = 5

// earliestWindowStart bounds how far back a window reaches. Both stores can
// represent it, and no order predates it.
var earliestWindowStart = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// windowStart returns now minus days calendar days, clamped to earliestWindowStart.
func windowStart(now time.Time, days int) time.Time {
	// More days than separate year 1 from year 10000 always clamps; checking first
	// keeps AddDate away from overflow.
	if days > 366*10000 {
		return earliestWindowStart
	}
	since := now.AddDate(0, 0, -days)
	if since.Before(earliestWindowStart) {
		return earliestWindowStart
	}
	return since
}

// CoffeeSales is one row of the popularity ranking.
type CoffeeSales struct {
	CoffeeID int             `json:"coffee_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"` // Σ quantity × captured price
}

// SalesReport aggregates the orders created inside a trailing window.
type SalesReport struct {
	WindowDays        int             `json:"window_days"`
	Since             time.Time       `json:"since"`
	GeneratedAt       time.Time       `json:"generated_at"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	OrderCount        int             `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopCoffees        []CoffeeSales   `json:"top_coffees"`
}

// ReportingService provides read-only sales reporting.
type ReportingService interface {
	// SalesReport covers every order created at or after now − windowDays.
	// An empty window yields a zeroed report, never an error.
	SalesReport(ctx context.Context, windowDays int) (*SalesReport, error)
}

type reportingService struct {
	store Reader
	clock Clock
}

// NewReportingService constructs a ReportingService. A nil clock means SystemClock.
func NewReportingService(store Reader, clock Clock) ReportingService {
	if clock == nil {
		clock = SystemClock
	}
	return &reportingService{store: store, clock: clock}
}

func (s *reportingService) SalesReport(ctx context.Context, windowDays int) (*SalesReport, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidWindow, windowDays)
	}
	now := s.clock()
	since := windowStart(now, windowDays)

	rows, err := s.store.SalesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}

	report := BuildSalesReport(rows)
	report.WindowDays = windowDays
	report.Since = since
	report.GeneratedAt = now
	return report, nil
}

// BuildSalesReport aggregates flattened sale rows. Coffees with equal quantity
// are ranked by ascending coffee id.
func BuildSalesReport(rows []SaleRow) *SalesReport {
	report := &SalesReport{
		TotalSales:        decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TopCoffees:        []CoffeeSales{},
	}

	seenOrders := make(map[int]bool)
	byCoffee := make(map[int]*CoffeeSales)
	for _, r := range rows {
		if !seenOrders[r.OrderID] {
			seenOrders[r.OrderID] = true
			report.OrderCount++
			report.TotalSales = report.TotalSales.Add(r.OrderTotal)
		}
		if r.CoffeeID == 0 {
			continue
		}
		cs, ok := byCoffee[r.CoffeeID]
		if !ok {
			cs = &CoffeeSales{CoffeeID: r.CoffeeID, Name: r.CoffeeName, Revenue: decimal.Zero}
			byCoffee[r.CoffeeID] = cs
		}
		cs.Quantity += r.Quantity
		cs.Revenue = cs.Revenue.Add(r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	if report.OrderCount > 0 {
		report.AverageOrderValue = report.TotalSales.DivRound(decimal.NewFromInt(int64(report.OrderCount)), 2)
	}

	ranking := make([]CoffeeSales, 0, len(byCoffee))
	for _, cs := range byCoffee {
		ranking = append(ranking, *cs)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Quantity != ranking[j].Quantity {
			return ranking[i].Quantity > ranking[j].Quantity
		}
		return ranking[i].CoffeeID < ranking[j].CoffeeID
	})
	if len(ranking) > topCoffeesLimit {
		ranking = ranking[:topCoffeesLimit]
	}
	report.TopCoffees = ranking
	return report
}
