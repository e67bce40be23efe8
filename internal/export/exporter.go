package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"coffee-shop/internal/core"

	"github.com/google/uuid"
)

const reportContentType = "application/json"

// Exporter writes sales reports under <prefix>/reports/.
type Exporter struct {
	blob   Blob
	prefix string
	newID  func() string
}

func NewExporter(blob Blob, prefix string) *Exporter {
	return &Exporter{blob: blob, prefix: prefix, newID: uuid.NewString}
}

// ReportKey names a report object. The date comes from the report's generation time.
func ReportKey(prefix string, generatedAt time.Time, id string) string {
	name := fmt.Sprintf("sales-%s-%s.json", generatedAt.UTC().Format("20060102"), id)
	return path.Join(prefix, "reports", name)
}

// Export stores report as indented JSON and returns the stored object.
func (e *Exporter) Export(ctx context.Context, report *core.SalesReport) (Info, error) {
	if report == nil {
		return Info{}, fmt.Errorf("nil report")
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("failed to encode report: %w", err)
	}
	key := ReportKey(e.prefix, report.GeneratedAt, e.newID())
	info, err := e.blob.Put(ctx, key, bytes.NewReader(body), reportContentType)
	if err != nil {
		return Info{}, fmt.Errorf("failed to store report %s: %w", key, err)
	}
	return info, nil
}

// List returns previously exported reports, oldest key first.
func (e *Exporter) List(ctx context.Context) ([]Info, error) {
	return e.blob.List(ctx, path.Join(e.prefix, "reports")+"/")
}
