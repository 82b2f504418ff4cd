package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/yeremiapane/shopfloor-app/models"
)

var reportColumns = []struct {
	title string
	width float64
}{
	{"Bundle", 25},
	{"Assigned", 30},
	{"Completed", 30},
	{"Remaining", 30},
	{"Operations", 75},
}

// WriteOrderReport renders the bundle breakdown of an order as a printable
// PDF sheet for the cutting table. The order must have its bundles loaded.
func WriteOrderReport(w io.Writer, order *models.ProductionOrder) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Production order "+order.OrderNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Production order "+order.OrderNumber, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if order.Brand != "" {
		pdf.CellFormat(0, 6, "Brand: "+order.Brand, "", 1, "L", false, 0, "")
	}
	if order.SourceFile != "" {
		pdf.CellFormat(0, 6, "Source: "+order.SourceFile, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Total pieces: %d in %d bundles", order.TotalPieces, order.BundleCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Created: "+order.CreatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	var assigned, completed int
	for _, b := range order.Bundles {
		names := make([]string, 0, len(b.Operations))
		for _, op := range b.Operations {
			names = append(names, op.Name)
		}
		cells := []string{
			fmt.Sprint(b.BundleNumber),
			fmt.Sprint(b.PiecesAssigned),
			fmt.Sprint(b.PiecesCompleted),
			fmt.Sprint(b.PiecesRemaining()),
			strings.Join(names, " > "),
		}
		for i, col := range reportColumns {
			align := "R"
			if i == len(reportColumns)-1 {
				align = "L"
			}
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
		assigned += b.PiecesAssigned
		completed += b.PiecesCompleted
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(reportColumns[0].width, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(reportColumns[1].width, 7, fmt.Sprint(assigned), "1", 0, "R", false, 0, "")
	pdf.CellFormat(reportColumns[2].width, 7, fmt.Sprint(completed), "1", 0, "R", false, 0, "")
	pdf.CellFormat(reportColumns[3].width, 7, fmt.Sprint(assigned-completed), "1", 0, "R", false, 0, "")
	pdf.CellFormat(reportColumns[4].width, 7, "", "1", 1, "L", false, 0, "")

	return pdf.Output(w)
}
