package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"coffee-shop/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *core.SalesReport {
	return &core.SalesReport{
		WindowDays:        7,
		Since:             time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		GeneratedAt:       time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
		TotalSales:        decimal.RequireFromString("12.50"),
		OrderCount:        2,
		AverageOrderValue: decimal.RequireFromString("6.25"),
		TopCoffees: []core.CoffeeSales{
			{CoffeeID: 1, Name: "Espresso", Quantity: 5, Revenue: decimal.RequireFromString("12.50")},
		},
	}
}

func TestReportKey(t *testing.T) {
	at := time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "reports/sales-20260308-abc.json", ReportKey("", at, "abc"))
	assert.Equal(t, "shop-1/reports/sales-20260308-abc.json", ReportKey("shop-1", at, "abc"))
}

func TestExporter_MemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	blob := NewMemoryBlob()
	e := NewExporter(blob, "archive")
	e.newID = func() string { return "fixed" }

	info, err := e.Export(ctx, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "archive/reports/sales-20260308-fixed.json", info.Key)
	assert.Equal(t, reportContentType, info.ContentType)

	data, err := blob.Get(ctx, info.Key)
	require.NoError(t, err)
	var got core.SalesReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.OrderCount)
	assert.True(t, got.TotalSales.Equal(decimal.RequireFromString("12.50")))
	require.Len(t, got.TopCoffees, 1)
	assert.Equal(t, "Espresso", got.TopCoffees[0].Name)

	// Same id again collides instead of overwriting.
	_, err = e.Export(ctx, sampleReport())
	assert.True(t, errors.Is(err, ErrBlobExists))

	listed, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestExporter_FilesystemUniqueKeys(t *testing.T) {
	ctx := context.Background()
	blob, err := NewFSBlob(t.TempDir())
	require.NoError(t, err)
	e := NewExporter(blob, "")

	first, err := e.Export(ctx, sampleReport())
	require.NoError(t, err)
	second, err := e.Export(ctx, sampleReport())
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)
	assert.True(t, strings.HasPrefix(first.Key, "reports/sales-20260308-"))

	listed, err := e.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	data, err := blob.Get(ctx, first.Key)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_count": 2`)
}

func TestExporter_NilReport(t *testing.T) {
	_, err := NewExporter(NewMemoryBlob(), "").Export(context.Background(), nil)
	assert.Error(t, err)
}

func TestSanitizeKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "../x", "/abs", "a/../../b"} {
		_, err := sanitizeKey(bad)
		assert.Error(t, err, bad)
	}
	k, err := sanitizeKey("reports//a.json")
	require.NoError(t, err)
	assert.Equal(t, "reports/a.json", k)
}

func TestParseDestination(t *testing.T) {
	d, err := ParseDestination("./exports")
	require.NoError(t, err)
	assert.Equal(t, "./exports", d.Dir)
	assert.Nil(t, d.S3)

	d, err = ParseDestination("s3://reports-bucket/shop/daily?region=eu-west-1&endpoint=http://localhost:9000&path_style=true")
	require.NoError(t, err)
	require.NotNil(t, d.S3)
	assert.Equal(t, "reports-bucket", d.S3.Bucket)
	assert.Equal(t, "eu-west-1", d.S3.Region)
	assert.Equal(t, "http://localhost:9000", d.S3.Endpoint)
	assert.True(t, d.S3.PathStyle)
	assert.Equal(t, "shop/daily", d.Prefix)
	assert.Equal(t, "s3://reports-bucket/shop/daily", d.String())

	d, err = ParseDestination("s3://bucket")
	require.NoError(t, err)
	assert.Equal(t, "", d.Prefix)
	assert.False(t, d.S3.PathStyle)

	_, err = ParseDestination("")
	assert.Error(t, err)
	_, err = ParseDestination("s3:///no-bucket")
	assert.Error(t, err)
	_, err = ParseDestination("s3://bucket?path_style=maybe")
	assert.Error(t, err)
}
