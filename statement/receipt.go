package statement

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/jung-kurt/gofpdf"
)

// RenderReceipt produces a single-page official receipt for one treatment.
// Payment status wording and coloring follow the same classification as the
// statement totals: settled or credit records read PAID IN FULL, owing ones
// read BALANCE DUE.
func RenderReceipt(info ClinicInfo, patientName string, record model.Treatment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	drawClinicHeader(pdf, info)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(pageLeft, 55, "OFFICIAL RECEIPT")

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(pageLeft, 68, fmt.Sprintf("Patient Name: %s", patientName))
	pdf.Text(pageLeft, 76, fmt.Sprintf("Date of Service: %s", record.TreatmentDate))

	balance := ledger.RecordBalance(record)
	status := ledger.Classify(balance)
	setBalanceColor(pdf, balance)
	pdf.SetFont("Helvetica", "B", 14)
	if status == ledger.StatusOwing {
		pdf.Text(145, 58, "BALANCE DUE")
	} else {
		pdf.Text(145, 58, "PAID IN FULL")
		if record.PaymentDate != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.Text(145, 64, fmt.Sprintf("Paid on: %s", record.PaymentDate))
		}
	}
	resetTextColor(pdf)

	// Description/amount table.
	tableY := 95.0
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(pageLeft, tableY, "Description")
	pdf.Text(colBalanceX, tableY, "Amount")
	pdf.Line(pageLeft, tableY+2, pageRight, tableY+2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(pageLeft, tableY+11, record.TreatmentType)
	pdf.Text(colBalanceX, tableY+11, money(record.Subtotal))

	pdf.Text(colBilledX, tableY+22, "HST (13%):")
	pdf.Text(colBalanceX, tableY+22, money(record.Tax))

	pdf.Line(colBilledX, tableY+26, pageRight, tableY+26)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(colBilledX, tableY+33, "TOTAL:")
	pdf.Text(colBalanceX, tableY+33, money(record.Total))

	drawFooter(pdf, info.Footer)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// ReceiptFilename suggests a download name for a receipt document.
func ReceiptFilename(patientName, treatmentDate string) string {
	return fmt.Sprintf("Receipt_%s_%s.pdf", sanitizeFilenamePart(patientName), sanitizeFilenamePart(treatmentDate))
}

// sanitizeFilenamePart keeps suggested filenames header-safe.
func sanitizeFilenamePart(part string) string {
	part = strings.TrimSpace(part)
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "\"", "", ";", "")
	return replacer.Replace(part)
}
