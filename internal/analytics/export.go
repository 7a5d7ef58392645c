package analytics

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"bda_portal_backend/internal/adapters/storage"
	"bda_portal_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

const (
	// ContentTypeXLSX is the workbook media type.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	exportFolder = "bda-analysis"
	sheetBDAs    = "BDA Analysis"
	sheetTotals  = "Totals"
)

var statusColumns = []string{"scheduled", "completed", "rescheduled", "no-show", "canceled", "ignored", "paid"}

// Export is a rendered workbook.
type Export struct {
	FileName string
	Data     []byte
}

// Archived is returned when the workbook was stored in object storage.
type Archived struct {
	FileName string                `json:"fileName"`
	Download *storage.PresignedURL `json:"download"`
}

// BuildWorkbook renders the report as an XLSX file.
func BuildWorkbook(report Report) (*Export, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetBDAs); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetTotals); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E79"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	headers := []string{"BDA", "Email", "Claimed"}
	headers = append(headers, statusColumns...)
	headers = append(headers, "Paid", "Revenue (USD)", "Revenue (CAD)", "Incentive (INR)", "Excluded non-USD", "Conversion %")
	writeRow(f, sheetBDAs, 1, toAny(headers))
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(sheetBDAs, "A1", lastCol+"1", headerStyle)
	_ = f.SetColWidth(sheetBDAs, "A", "B", 28)

	for i, b := range report.BDAs {
		row := []any{b.Name, b.Email, b.Claimed}
		for _, status := range statusColumns {
			row = append(row, b.StatusCounts[status])
		}
		row = append(row, b.PaidCount, b.RevenueByCurrency["USD"], b.RevenueByCurrency["CAD"],
			b.IncentiveINR, b.ExcludedNonUSD, b.ConversionRate)
		writeRow(f, sheetBDAs, i+2, row)
	}

	t := report.Totals
	totals := [][]any{
		{"Metric", "Value"},
		{"Leads", t.Leads},
		{"Claimed", t.Claimed},
		{"Unclaimed", t.Unclaimed},
		{"Paid", t.PaidCount},
		{"Incentive (INR)", t.IncentiveINR},
		{"Conversion %", t.ConversionRate},
	}
	currencies := make([]string, 0, len(t.RevenueByCurrency))
	for c := range t.RevenueByCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		totals = append(totals, []any{"Revenue (" + c + ")", t.RevenueByCurrency[c]})
	}
	for _, status := range statusColumns {
		totals = append(totals, []any{"Status: " + status, t.StatusCounts[status]})
	}
	for i, row := range totals {
		writeRow(f, sheetTotals, i+1, row)
	}
	_ = f.SetCellStyle(sheetTotals, "A1", "B1", headerStyle)
	_ = f.SetColWidth(sheetTotals, "A", "A", 24)

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return &Export{
		FileName: fmt.Sprintf("bda-analysis-%s.xlsx", report.GeneratedAt.Format("20060102-150405")),
		Data:     buf.Bytes(),
	}, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Exporter renders the report and optionally archives it.
type Exporter struct {
	svc   *Service
	store storage.StorageService
}

// NewExporter builds an exporter. store may be nil, in which case files are
// only streamed.
func NewExporter(svc *Service, store storage.StorageService) *Exporter {
	return &Exporter{svc: svc, store: store}
}

// Archives reports whether exports go to object storage.
func (e *Exporter) Archives() bool {
	return e.store != nil
}

// Render builds the workbook for rng.
func (e *Exporter) Render(ctx context.Context, rng Range) (*Export, error) {
	report, err := e.svc.Report(ctx, rng, false)
	if err != nil {
		return nil, err
	}
	out, err := BuildWorkbook(report)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to render export", err)
	}
	return out, nil
}

// Archive uploads a rendered workbook and presigns it.
func (e *Exporter) Archive(ctx context.Context, export *Export) (*Archived, error) {
	if e.store == nil {
		return nil, apperr.Unsupported("object storage is not configured")
	}
	key, err := e.store.UploadFile(ctx, exportFolder, export.FileName, ContentTypeXLSX, bytes.NewReader(export.Data), int64(len(export.Data)))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to archive export", err)
	}
	link, err := e.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to presign export", err)
	}
	return &Archived{FileName: export.FileName, Download: link}, nil
}
