package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

var summaryColumns = []struct {
	title string
	width float64
}{
	{"Item", 50},
	{"Unit", 20},
	{"Opening", 24},
	{"Received", 24},
	{"Used", 24},
	{"Wasted", 24},
	{"Closing", 24},
}

// RenderStockSummaryPDF lays the summary out as a single A4 table.
func RenderStockSummaryPDF(s *StockSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Stock Period Summary", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 10, fmt.Sprintf("Period: %s to %s",
		s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 10, fmt.Sprintf("Items: %d", len(s.Lines)), "", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	for i, c := range summaryColumns {
		pdf.CellFormat(c.width, 9, c.title, "1", lineBreak(i), "C", false, 0, "")
	}

	pdf.SetFont("Arial", "", 10)
	for _, l := range s.Lines {
		cells := []string{
			l.Name,
			l.UnitOfMeasure,
			l.Opening.StringFixed(2),
			l.Received.StringFixed(2),
			l.Used.StringFixed(2),
			l.Wasted.StringFixed(2),
			l.Closing.StringFixed(2),
		}
		for i, v := range cells {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(summaryColumns[i].width, 8, v, "1", lineBreak(i), align, false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render stock summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func lineBreak(col int) int {
	if col == len(summaryColumns)-1 {
		return 1
	}
	return 0
}
