package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"coffee-shop/internal/ai"
	"coffee-shop/internal/core"
	"coffee-shop/internal/export"
	"coffee-shop/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	intent *ai.OrderIntent
	err    error
	menu   string
}

func (a *stubAgent) InterpretOrder(_ context.Context, _ string, menu string) (*ai.OrderIntent, error) {
	a.menu = menu
	return a.intent, a.err
}

func newService(t *testing.T, agent ai.AgentService) *appService {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	clock := func() time.Time { return time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC) }
	svc := New(store, clock, agent).(*appService)
	_, err = svc.Seed(ctx)
	require.NoError(t, err)
	return svc
}

func TestPlaceOrder_ReturnsCoffeeAndOrder(t *testing.T) {
	svc := newService(t, nil)
	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{CoffeeID: 4})
	require.NoError(t, err)
	assert.Equal(t, "Cappuccino", result.Coffee.Name)
	require.Len(t, result.Order.Lines, 1)
	assert.Equal(t, 1, result.Order.Lines[0].Quantity, "zero quantity defaults to one cup")
	assert.True(t, result.Order.TotalPrice.Equal(result.Coffee.Price))
}

func TestPlaceOrder_PassesDomainErrorsThrough(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{CoffeeID: 42, Quantity: 1})
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = svc.PlaceOrder(context.Background(), PlaceOrderRequest{CoffeeID: 1, Quantity: 100000})
	assert.True(t, errors.Is(err, core.ErrInsufficientStock))
}

func TestMenu_WithAndWithoutAvailability(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	plain, err := svc.Menu(ctx, false)
	require.NoError(t, err)
	assert.False(t, plain.WithAvailability)
	assert.Len(t, plain.Items, 6)
	assert.Empty(t, plain.Items[0].Recipe)

	full, err := svc.Menu(ctx, true)
	require.NoError(t, err)
	assert.True(t, full.WithAvailability)
	for _, item := range full.Items {
		assert.True(t, item.Available, item.Name)
		assert.NotEmpty(t, item.Recipe, item.Name)
	}
}

func TestExportReport_ToMemoryBlob(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	blob := export.NewMemoryBlob()
	var opened export.Destination
	svc.openBlob = func(_ context.Context, d export.Destination) (export.Blob, error) {
		opened = d
		return blob, nil
	}

	_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{CoffeeID: 1, Quantity: 2})
	require.NoError(t, err)

	result, err := svc.ExportReport(ctx, ExportRequest{Days: 7, To: "s3://archive/shop-1?region=eu-central-1"})
	require.NoError(t, err)
	assert.Equal(t, "archive", opened.S3.Bucket)
	assert.Equal(t, "s3://archive/shop-1", result.Destination)
	assert.Equal(t, 1, result.Report.OrderCount)
	assert.Regexp(t, `^shop-1/reports/sales-20260401-[0-9a-f-]{36}\.json$`, result.Object.Key)

	listed, err := blob.List(ctx, "shop-1/")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestExportReport_RejectsBadInput(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	_, err := svc.ExportReport(ctx, ExportRequest{Days: 7})
	assert.Error(t, err)
	_, err = svc.ExportReport(ctx, ExportRequest{Days: -1, To: t.TempDir()})
	assert.True(t, errors.Is(err, core.ErrInvalidWindow))
}

func TestInterpretRequest(t *testing.T) {
	agent := &stubAgent{intent: &ai.OrderIntent{Kind: ai.KindOrder, CoffeeID: 2, Quantity: 1, Confidence: 0.8}}
	svc := newService(t, agent)

	result, err := svc.InterpretRequest(context.Background(), "  an americano  ")
	require.NoError(t, err)
	assert.Equal(t, "Americano", result.Coffee.Name)
	assert.Contains(t, agent.menu, "1: Espresso $2.50")
	assert.Contains(t, agent.menu, "6: Iced Coffee $4.00")

	agent.intent = &ai.OrderIntent{Kind: ai.KindOrder, CoffeeID: 77, Quantity: 1}
	_, err = svc.InterpretRequest(context.Background(), "mystery drink")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	agent.intent = &ai.OrderIntent{Kind: ai.KindReport, Days: 7}
	result, err = svc.InterpretRequest(context.Background(), "how did we do this week")
	require.NoError(t, err)
	assert.Nil(t, result.Coffee)

	_, err = svc.InterpretRequest(context.Background(), "   ")
	assert.Error(t, err)
}

func TestInterpretRequest_Disabled(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.InterpretRequest(context.Background(), "latte")
	assert.True(t, errors.Is(err, ErrAssistantDisabled))
}
