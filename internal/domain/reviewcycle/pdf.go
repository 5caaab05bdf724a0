package reviewcycle

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const dateLayout = "2006-01-02"

// RenderTimelinePDF draws the cycle's phases as a table, marking the state of each
// phase on today.
func RenderTimelinePDF(c ReviewCycle, organisation string, today time.Time) ([]byte, error) {
	c = c.ActiveOn(today)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, c.Name)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Organisation: %s", organisation))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Cycle: %s to %s", c.Overall.Start.Format(dateLayout), c.Overall.End.Format(dateLayout)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("As of: %s", today.Format(dateLayout)))
	pdf.Ln(12)

	widths := []float64{60, 35, 35, 30}
	pdf.SetFont("Helvetica", "B", 11)
	for i, h := range []string{"Phase", "Start", "End", "State"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, p := range c.Phases {
		cells := []string{p.Phase.Label(), p.Window.Start.Format(dateLayout), p.Window.End.Format(dateLayout), string(p.State)}
		for i, v := range cells {
			pdf.CellFormat(widths[i], 8, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
