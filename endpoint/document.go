package endpoint

import (
	"fmt"
	"net/http"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/statement"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
)

func sendPDF(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// GetTreatmentReceipt godoc
// @Summary      Generate a treatment receipt
// @Description  Render a single-treatment official receipt as a PDF download
// @Tags         Document
// @Produce      application/pdf
// @Param        id path string true "Treatment ID"
// @Success      200 {file} binary "Receipt PDF"
// @Failure      404 {object} util.APIResponse "Treatment or patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /treatment/{id}/receipt [get]
func GetTreatmentReceipt(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	treatment, err := getTreatmentByID(c, db)
	if err != nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, treatment.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found for treatment",
			Err: err,
		})
		return
	}

	info, err := statement.LoadClinicInfo(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to load clinic settings",
			Err: err,
		})
		return
	}

	data, err := statement.RenderReceipt(info, patient.FullName, treatment)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to render receipt",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventDocumentGenerated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Receipt generated for treatment %d", treatment.ID),
	})

	sendPDF(c, statement.ReceiptFilename(patient.FullName, treatment.TreatmentDate), data)
}

// GetPatientStatement godoc
// @Summary      Generate a patient financial statement
// @Description  Render a paginated statement of the patient's treatment history as a PDF download
// @Tags         Document
// @Produce      application/pdf
// @Param        id path string true "Patient ID"
// @Param        from query string false "Range start (YYYY-MM-DD); omit both bounds for all time"
// @Param        to query string false "Range end (YYYY-MM-DD)"
// @Success      200 {file} binary "Statement PDF"
// @Failure      400 {object} util.APIResponse "Invalid date range"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id}/statement [get]
func GetPatientStatement(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
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

	records, err := ledger.SelectRecords(db, patient.ID, dateRange)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to select treatment records",
			Err: err,
		})
		return
	}

	info, err := statement.LoadClinicInfo(db)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to load clinic settings",
			Err: err,
		})
		return
	}

	period := ledger.PeriodLabel(dateRange)
	data, err := statement.RenderStatement(info, patient.FullName, period, records)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to render statement",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventDocumentGenerated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Statement generated for patient %s over %s", patient.UniqueID, period),
	})

	sendPDF(c, statement.StatementFilename(patient.FullName, period), data)
}
