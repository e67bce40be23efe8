package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coffee-shop/internal/ai"
	"coffee-shop/internal/core"
	"coffee-shop/internal/export"
)

// ErrAssistantDisabled is returned by InterpretRequest when no API key is configured.
var ErrAssistantDisabled = errors.New("order assistant disabled: OPENAI_API_KEY not set")

type appService struct {
	store            core.Store
	menuService      core.MenuService
	orderService     core.OrderService
	reportingService core.ReportingService
	seedService      core.SeedService
	agent            ai.AgentService
	openBlob         func(ctx context.Context, d export.Destination) (export.Blob, error)
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil, which disables InterpretRequest.
func NewAppService(
	store core.Store,
	menuService core.MenuService,
	orderService core.OrderService,
	reportingService core.ReportingService,
	seedService core.SeedService,
	agent ai.AgentService,
) ApplicationService {
	return &appService{
		store:            store,
		menuService:      menuService,
		orderService:     orderService,
		reportingService: reportingService,
		seedService:      seedService,
		agent:            agent,
		openBlob:         func(ctx context.Context, d export.Destination) (export.Blob, error) { return d.Open(ctx) },
	}
}

// New wires the default services over store.
func New(store core.Store, clock core.Clock, agent ai.AgentService) ApplicationService {
	return NewAppService(
		store,
		core.NewMenuService(store),
		core.NewOrderService(store, clock),
		core.NewReportingService(store, clock),
		core.NewSeedService(store, clock),
		agent,
	)
}

func (s *appService) Menu(ctx context.Context, availability bool) (*MenuResult, error) {
	if availability {
		items, err := s.menuService.Availability(ctx)
		if err != nil {
			return nil, err
		}
		return &MenuResult{Items: items, WithAvailability: true}, nil
	}

	coffees, err := s.menuService.ListCoffees(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]core.MenuItem, len(coffees))
	for i, c := range coffees {
		items[i] = core.MenuItem{Coffee: c}
	}
	return &MenuResult{Items: items}, nil
}

func (s *appService) GetCoffee(ctx context.Context, id int) (*core.Coffee, error) {
	return s.menuService.GetCoffee(ctx, id)
}

func (s *appService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderResult, error) {
	order, err := s.orderService.PlaceOrder(ctx, req.CoffeeID, req.quantity())
	if err != nil {
		return nil, err
	}
	coffee, err := s.menuService.GetCoffee(ctx, req.CoffeeID)
	if err != nil {
		return nil, fmt.Errorf("order %d placed but coffee lookup failed: %w", order.ID, err)
	}
	return &OrderResult{Order: order, Coffee: coffee}, nil
}

func (s *appService) CheckOrder(ctx context.Context, req PlaceOrderRequest) (*core.StockCheck, error) {
	return s.orderService.CheckStock(ctx, req.CoffeeID, req.quantity())
}

func (s *appService) Inventory(ctx context.Context) (*InventoryResult, error) {
	levels, err := s.menuService.StockLevels(ctx)
	if err != nil {
		return nil, err
	}
	return &InventoryResult{Levels: levels}, nil
}

func (s *appService) ListOrders(ctx context.Context, limit int) (*OrderListResult, error) {
	orders, err := s.menuService.ListOrders(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) SalesReport(ctx context.Context, days int) (*core.SalesReport, error) {
	return s.reportingService.SalesReport(ctx, days)
}

func (s *appService) InitSchema(ctx context.Context) error {
	return s.store.Migrate(ctx)
}

func (s *appService) Seed(ctx context.Context) (*core.SeedResult, error) {
	if err := s.store.Migrate(ctx); err != nil {
		return nil, err
	}
	return s.seedService.Seed(ctx, core.DefaultCatalog())
}

func (s *appService) ExportReport(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	dest, err := export.ParseDestination(req.To)
	if err != nil {
		return nil, err
	}
	report, err := s.reportingService.SalesReport(ctx, req.Days)
	if err != nil {
		return nil, err
	}
	blob, err := s.openBlob(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to open export destination %s: %w", dest, err)
	}
	info, err := export.NewExporter(blob, dest.Prefix).Export(ctx, report)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Report: report, Object: info, Destination: dest.String()}, nil
}

func (s *appService) InterpretRequest(ctx context.Context, text string) (*AIResult, error) {
	if s.agent == nil {
		return nil, ErrAssistantDisabled
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty request")
	}

	coffees, err := s.menuService.ListCoffees(ctx)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, c := range coffees {
		fmt.Fprintf(&sb, "%d: %s %s - %s\n", c.ID, c.Name, core.FormatPrice(c.Price), c.Description)
	}

	intent, err := s.agent.InterpretOrder(ctx, text, sb.String())
	if err != nil {
		return nil, err
	}
	result := &AIResult{Intent: intent}
	if intent.Kind == ai.KindOrder {
		coffee, err := s.menuService.GetCoffee(ctx, intent.CoffeeID)
		if err != nil {
			return nil, fmt.Errorf("assistant chose an unknown coffee: %w", err)
		}
		result.Coffee = coffee
	}
	return result, nil
}
