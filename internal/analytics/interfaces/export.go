package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "energy-monitor/internal/analytics/domain"
)

// BuildAggregatedXLSX renders bucketed aggregates as a spreadsheet.
func BuildAggregatedXLSX(buckets []analytics.Bucket, aggregationType string) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "aggregated"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Bucket ("+aggregationType+")")
	_ = f.SetCellValue(sheet, "B1", "Avg Voltage")
	_ = f.SetCellValue(sheet, "C1", "Min Voltage")
	_ = f.SetCellValue(sheet, "D1", "Max Voltage")
	_ = f.SetCellValue(sheet, "E1", "Avg Current")
	_ = f.SetCellValue(sheet, "F1", "Min Current")
	_ = f.SetCellValue(sheet, "G1", "Max Current")
	_ = f.SetCellValue(sheet, "H1", "Count")

	for i, bucket := range buckets {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), bucket.Timestamp.UTC().Format(time.RFC3339))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), bucket.AvgVoltage)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), bucket.MinVoltage)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), bucket.MaxVoltage)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), bucket.AvgCurrent)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), bucket.MinCurrent)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), bucket.MaxCurrent)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), bucket.Count)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatisticsPDF renders the global statistics summary.
func BuildStatisticsPDF(stats analytics.Statistics, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Energy Statistics")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Avg", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	rows := []struct {
		name  string
		stats analytics.MetricStats
	}{
		{"Voltage (V)", stats.Voltage},
		{"Current (A)", stats.Current},
	}
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", row.stats.Avg), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", row.stats.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", row.stats.Max), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
