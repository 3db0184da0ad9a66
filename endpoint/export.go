package endpoint

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var patientCSVHeader = []string{"full_name", "unique_id"}

var treatmentCSVHeader = []string{
	"patient_unique_id", "treatment_type", "treatment_date",
	"subtotal", "tax", "total", "payment_amount", "payment_date",
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPatientsCSV godoc
// @Summary      Export patients as CSV
// @Tags         Export
// @Produce      text/csv
// @Success      200 {file} binary "Patients CSV"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /export/patients [get]
func ExportPatientsCSV(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var patients []model.Patient
	if err := db.Order("id ASC").Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(patientCSVHeader)
	for _, p := range patients {
		_ = w.Write([]string{p.FullName, p.UniqueID})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to serialize patients",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventExportCompleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Exported %d patient(s) to CSV", len(patients)),
	})

	sendCSV(c, "patients.csv", buf.Bytes())
}

// ExportTreatmentsCSV godoc
// @Summary      Export treatment records as CSV
// @Description  Rows reference patients by unique ID so an import into another store can relink them
// @Tags         Export
// @Produce      text/csv
// @Success      200 {file} binary "Treatments CSV"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /export/treatments [get]
func ExportTreatmentsCSV(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var rows []model.ListTreatmentResponse
	err := db.Table("treatments").
		Joins("JOIN patients ON patients.id = treatments.patient_id").
		Select("treatments.*, patients.full_name as patient_name, patients.unique_id as patient_unique_id").
		Where("treatments.deleted_at IS NULL AND patients.deleted_at IS NULL").
		Order("treatments.id ASC").
		Find(&rows).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve treatments",
			Err: err,
		})
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(treatmentCSVHeader)
	for _, r := range rows {
		_ = w.Write([]string{
			r.PatientUniqueID,
			r.TreatmentType,
			r.TreatmentDate,
			fmt.Sprintf("%.2f", r.Subtotal),
			fmt.Sprintf("%.2f", r.Tax),
			fmt.Sprintf("%.2f", r.Total),
			fmt.Sprintf("%.2f", r.PaymentAmount),
			r.PaymentDate,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to serialize treatments",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventExportCompleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Exported %d treatment(s) to CSV", len(rows)),
	})

	sendCSV(c, "treatments.csv", buf.Bytes())
}

func readCSVRecords(c *gin.Context, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(c.Request.Body)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV payload")
	}

	header := records[0]
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("unexpected CSV header: %v", header)
	}
	for i, col := range expectedHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i, header[i], col)
		}
	}
	return records[1:], nil
}

// ImportPatientsCSV godoc
// @Summary      Import patients from CSV
// @Description  Append-only merge; a duplicate unique ID aborts the whole batch
// @Tags         Export
// @Accept       text/csv
// @Produce      json
// @Success      200 {object} util.APIResponse "Patients imported"
// @Failure      400 {object} util.APIResponse "Malformed CSV"
// @Failure      409 {object} util.APIResponse "Duplicate unique ID"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /import/patients [post]
func ImportPatientsCSV(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	rows, err := readCSVRecords(c, patientCSVHeader)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Malformed patients CSV",
			Err: err,
		})
		return
	}

	// Whole-file rollback: any bad or conflicting row aborts every insert.
	err = db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			fullName := util.NormalizeName(row[0])
			uniqueID := row[1]
			if fullName == "" || uniqueID == "" {
				return fmt.Errorf("row %d: missing name or unique_id", i+1)
			}
			if err := ensureUniqueIDAvailable(tx, uniqueID); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if err := tx.Create(&model.Patient{FullName: fullName, UniqueID: uniqueID}).Error; err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventImportFailed,
			IP:        c.ClientIP(),
			Message:   fmt.Sprintf("Patient import aborted: %v", err),
		})
		util.CallImportConflict(c, util.APIErrorParams{
			Msg: "Patient import failed; no rows were written",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventImportCompleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Imported %d patient(s)", len(rows)),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients imported",
		Data: map[string]interface{}{"imported": len(rows)},
	})
}

func parseTreatmentCSVRow(tx *gorm.DB, row []string) (model.Treatment, error) {
	var patient model.Patient
	if err := tx.Where("unique_id = ?", row[0]).First(&patient).Error; err != nil {
		return model.Treatment{}, fmt.Errorf("unknown patient unique_id %q", row[0])
	}

	amounts := make([]float64, 4)
	for i, raw := range row[3:7] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Treatment{}, fmt.Errorf("invalid amount %q", raw)
		}
		amounts[i] = v
	}
	subtotal, tax, total, payment := amounts[0], amounts[1], amounts[2], amounts[3]
	if subtotal < 0 || payment < 0 {
		return model.Treatment{}, fmt.Errorf("negative amount")
	}
	if math.Abs(total-(subtotal+tax)) > ledger.SettlementTolerance {
		return model.Treatment{}, fmt.Errorf("total %.2f does not equal subtotal %.2f plus tax %.2f", total, subtotal, tax)
	}

	treatment := model.Treatment{
		PatientID:     patient.ID,
		TreatmentType: row[1],
		TreatmentDate: row[2],
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentAmount: payment,
		PaymentDate:   row[7],
	}
	if err := validatePaymentFields(payment, treatment.PaymentDate); err != nil {
		return model.Treatment{}, err
	}
	return treatment, nil
}

// ImportTreatmentsCSV godoc
// @Summary      Import treatment records from CSV
// @Description  Append-only merge keyed by patient unique ID; any bad row aborts the whole batch
// @Tags         Export
// @Accept       text/csv
// @Produce      json
// @Success      200 {object} util.APIResponse "Treatments imported"
// @Failure      400 {object} util.APIResponse "Malformed CSV"
// @Failure      409 {object} util.APIResponse "Conflicting or invalid rows"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /import/treatments [post]
func ImportTreatmentsCSV(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	rows, err := readCSVRecords(c, treatmentCSVHeader)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Malformed treatments CSV",
			Err: err,
		})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, row := range rows {
			treatment, err := parseTreatmentCSVRow(tx, row)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if err := tx.Create(&treatment).Error; err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventImportFailed,
			IP:        c.ClientIP(),
			Message:   fmt.Sprintf("Treatment import aborted: %v", err),
		})
		util.CallImportConflict(c, util.APIErrorParams{
			Msg: "Treatment import failed; no rows were written",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventImportCompleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Imported %d treatment(s)", len(rows)),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatments imported",
		Data: map[string]interface{}{"imported": len(rows)},
	})
}

// ExportSalesExcel godoc
// @Summary      Export billing figures as a spreadsheet
// @Description  One row per treatment with billed, paid, and balance columns over an optional date range
// @Tags         Export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from query string false "Range start (YYYY-MM-DD)"
// @Param        to query string false "Range end (YYYY-MM-DD)"
// @Success      200 {file} binary "Sales XLSX"
// @Failure      400 {object} util.APIResponse "Invalid date range"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /export/sales [get]
func ExportSalesExcel(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid date range",
			Err: err,
		})
		return
	}

	rows, _, err := fetchTreatments(db, listQuery{}, 0, dateRange)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve treatments",
			Err: err,
		})
		return
	}

	headers := map[string]string{
		"A1": "Date",
		"B1": "Patient",
		"C1": "Treatment",
		"D1": "Billed",
		"E1": "Paid",
		"F1": "Balance",
	}
	file := excelize.NewFile()
	sheet := "Sales"
	file.NewSheet(sheet)
	file.DeleteSheet("Sheet1")
	for cell, value := range headers {
		file.SetCellValue(sheet, cell, value)
	}

	for i, row := range rows {
		appendSalesRow(file, sheet, i, row)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to build spreadsheet",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventExportCompleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Exported %d treatment(s) to XLSX", len(rows)),
	})

	c.Header("Content-Disposition", `attachment; filename="Sales.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func appendSalesRow(file *excelize.File, sheet string, index int, row model.ListTreatmentResponse) {
	rowCount := index + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%v", rowCount), row.TreatmentDate)
	file.SetCellValue(sheet, fmt.Sprintf("B%v", rowCount), row.PatientName)
	file.SetCellValue(sheet, fmt.Sprintf("C%v", rowCount), row.TreatmentType)
	file.SetCellValue(sheet, fmt.Sprintf("D%v", rowCount), row.Total)
	file.SetCellValue(sheet, fmt.Sprintf("E%v", rowCount), row.PaymentAmount)
	file.SetCellValue(sheet, fmt.Sprintf("F%v", rowCount), row.Total-row.PaymentAmount)
}
