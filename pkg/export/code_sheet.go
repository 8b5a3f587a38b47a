package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// CodeSheetEntry is one printable scan code: the rendered PNG plus the
// human-readable details printed beside it.
type CodeSheetEntry struct {
	Token      string
	PhotoType  string
	StudentIDs []string
	PNG        []byte
}

// CodeSheetExporter lays scan codes out on a printable A4 sheet.
type CodeSheetExporter struct{}

// NewCodeSheetExporter constructs a code sheet exporter.
func NewCodeSheetExporter() *CodeSheetExporter {
	return &CodeSheetExporter{}
}

// Render builds the PDF for an event's full code set, three codes per row.
func (e *CodeSheetExporter) Render(title string, entries []CodeSheetEntry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("code sheet requires at least one entry")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	const (
		cellWidth  = 63.0
		imageSize  = 45.0
		cellHeight = 62.0
		perRow     = 3
	)

	for i, entry := range entries {
		col := i % perRow
		if col == 0 && i > 0 {
			pdf.Ln(cellHeight)
		}
		if pdf.GetY()+cellHeight > 282 {
			pdf.AddPage()
		}
		x := 10 + float64(col)*cellWidth
		y := pdf.GetY()

		imgName := fmt.Sprintf("code-%d", i)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(entry.PNG))
		pdf.ImageOptions(imgName, x+(cellWidth-imageSize)/2, y, imageSize, imageSize, false, opts, 0, "")

		pdf.SetFont("Arial", "B", 8)
		pdf.SetXY(x, y+imageSize+1)
		pdf.CellFormat(cellWidth, 4, entry.Token, "", 2, "C", false, 0, "")
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(cellWidth, 4, entry.PhotoType, "", 2, "C", false, 0, "")
		pdf.CellFormat(cellWidth, 4, strings.Join(entry.StudentIDs, ", "), "", 2, "C", false, 0, "")
		pdf.SetY(y)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render code sheet: %w", err)
	}
	return buf.Bytes(), nil
}
