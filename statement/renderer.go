package statement

import (
	"bytes"
	"fmt"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/jung-kurt/gofpdf"
)

// Layout geometry, in millimeters on Letter pages (215.9 x 279.4).
const (
	pageLeft   = 15.0
	pageRight  = 200.0
	topMargin  = 20.0
	rowHeight  = 7.0
	// rowLimitY is the pagination threshold: a row that would end below it
	// moves to a fresh page. The gap to the physical bottom leaves room for
	// the totals block and footer, so those never spawn a page of their own.
	rowLimitY = 240.0
	// firstRowsStartY is where line items begin on page one, below the
	// clinic header, patient line, and column headers.
	firstRowsStartY = 100.0
)

// Column x positions for the line-item table.
const (
	colDateX    = pageLeft
	colDescX    = 45.0
	colBilledX  = 120.0
	colPaidX    = 148.0
	colBalanceX = 176.0
)

func firstPageRowCapacity() int {
	return int((rowLimitY - firstRowsStartY) / rowHeight)
}

func contPageRowCapacity() int {
	usable := float64(rowLimitY - topMargin - rowHeight)
	return int(usable / rowHeight)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// setBalanceColor switches the text color by balance classification.
// Purely cosmetic; totals are computed independently of coloring.
func setBalanceColor(pdf *gofpdf.Fpdf, balance float64) {
	switch ledger.Classify(balance) {
	case ledger.StatusOwing:
		pdf.SetTextColor(200, 0, 0)
	case ledger.StatusCredit:
		pdf.SetTextColor(0, 128, 0)
	default:
		pdf.SetTextColor(0, 0, 0)
	}
}

func resetTextColor(pdf *gofpdf.Fpdf) {
	pdf.SetTextColor(0, 0, 0)
}

// drawClinicHeader prints the clinic identity block and returns the y
// position below the separator rule.
func drawClinicHeader(pdf *gofpdf.Fpdf, info ClinicInfo) float64 {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(pageLeft, topMargin, info.Name)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageLeft, topMargin+8, info.Address)
	pdf.Text(pageLeft, topMargin+13, fmt.Sprintf("Phone: %s", info.Phone))
	pdf.Text(pageLeft, topMargin+18, fmt.Sprintf("HST #: %s", info.HSTNumber))

	ruleY := topMargin + 22
	pdf.Line(pageLeft, ruleY, pageRight, ruleY)
	return ruleY
}

func drawColumnHeaders(pdf *gofpdf.Fpdf, y float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(colDateX, y, "Date")
	pdf.Text(colDescX, y, "Description")
	pdf.Text(colBilledX, y, "Billed")
	pdf.Text(colPaidX, y, "Paid")
	pdf.Text(colBalanceX, y, "Balance")
	pdf.Line(pageLeft, y+2, pageRight, y+2)
}

func drawFooter(pdf *gofpdf.Fpdf, footer string) {
	pdf.SetFont("Helvetica", "I", 10)
	resetTextColor(pdf)
	width, height := pdf.GetPageSize()
	pdf.SetXY(0, height-25)
	pdf.CellFormat(width, 6, footer, "", 0, "C", false, 0, "")
}

// grandBalanceLine picks the totals-block wording for a standing. Owing
// balances read as a debt, credit balances flip sign so the amount prints
// as money held on account, settled ones pin the display to $0.00.
func grandBalanceLine(standing ledger.Standing) (label string, amount string) {
	switch standing.Status {
	case ledger.StatusOwing:
		return "BALANCE DUE:", money(standing.Balance)
	case ledger.StatusCredit:
		return "CREDIT REMAINING:", money(-standing.Balance)
	default:
		return "BALANCE:", "$0.00"
	}
}

// buildStatement lays the document out on a gofpdf canvas. Split from
// RenderStatement so tests can inspect page counts before serialization.
func buildStatement(info ClinicInfo, patientName, periodLabel string, items []model.Treatment) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Clinic header appears once, on the first page only.
	drawClinicHeader(pdf, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(pageLeft, 55, "FINANCIAL STATEMENT")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(pageLeft, 68, fmt.Sprintf("Patient: %s", patientName))
	pdf.Text(pageLeft, 76, fmt.Sprintf("Period: %s", periodLabel))

	drawColumnHeaders(pdf, firstRowsStartY-rowHeight)

	y := firstRowsStartY
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		if y+rowHeight > rowLimitY {
			pdf.AddPage()
			// Column headers repeat on continuation pages; the clinic
			// header does not.
			drawColumnHeaders(pdf, topMargin)
			y = topMargin + rowHeight
			pdf.SetFont("Helvetica", "", 10)
		}

		balance := ledger.RecordBalance(item)
		pdf.Text(colDateX, y+5, item.TreatmentDate)
		pdf.Text(colDescX, y+5, item.TreatmentType)
		pdf.Text(colBilledX, y+5, money(item.Total))
		pdf.Text(colPaidX, y+5, money(item.PaymentAmount))
		setBalanceColor(pdf, balance)
		pdf.Text(colBalanceX, y+5, money(balance))
		resetTextColor(pdf)
		y += rowHeight
	}

	// Totals block, directly below the last row.
	standing := ledger.ComputeStanding(items)
	y += 3
	pdf.Line(pageLeft, y, pageRight, y)
	y += rowHeight

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(colBilledX-40, y, "Total Billed:")
	pdf.Text(colBalanceX, y, money(standing.TotalBilled))
	y += rowHeight
	pdf.Text(colBilledX-40, y, "Total Paid:")
	pdf.Text(colBalanceX, y, money(standing.TotalPaid))
	y += rowHeight

	pdf.SetFont("Helvetica", "B", 12)
	setBalanceColor(pdf, standing.Balance)
	label, amount := grandBalanceLine(standing)
	pdf.Text(colBilledX-40, y, label)
	pdf.Text(colBalanceX, y, amount)
	resetTextColor(pdf)

	// Footer appears once, on the final page.
	drawFooter(pdf, info.Footer)
	return pdf
}

// RenderStatement produces a paginated financial statement for a patient
// over the labeled period. The items are rendered in the order supplied;
// callers sort via the ledger. An empty item list is valid and yields a
// single page with zeroed, settled totals.
func RenderStatement(info ClinicInfo, patientName, periodLabel string, items []model.Treatment) ([]byte, error) {
	pdf := buildStatement(info, patientName, periodLabel, items)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return buf.Bytes(), nil
}

// StatementFilename suggests a download name for a statement document.
func StatementFilename(patientName, periodLabel string) string {
	return fmt.Sprintf("Statement_%s_%s.pdf", sanitizeFilenamePart(patientName), sanitizeFilenamePart(periodLabel))
}
