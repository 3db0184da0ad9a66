package endpoint

import (
	"fmt"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func fetchTreatments(db *gorm.DB, query listQuery, patientID uint, dateRange *ledger.DateRange) ([]model.ListTreatmentResponse, int64, error) {
	var treatments []model.ListTreatmentResponse
	var totalTreatments int64

	applyFilters := func(q *gorm.DB) *gorm.DB {
		q = q.Where("patients.deleted_at IS NULL")
		if patientID != 0 {
			q = q.Where("treatments.patient_id = ?", patientID)
		}
		if query.Keyword != "" {
			kw := "%" + query.Keyword + "%"
			q = q.Where("patients.full_name LIKE ? OR patients.unique_id = ?", kw, query.Keyword)
		}
		if dateRange != nil {
			q = q.Where("treatments.treatment_date BETWEEN ? AND ?", dateRange.From, dateRange.To)
		}
		return q
	}

	q := db.Table("treatments").
		Joins("JOIN patients ON patients.id = treatments.patient_id").
		Select("treatments.*, patients.full_name as patient_name, patients.unique_id as patient_unique_id").
		Where("treatments.deleted_at IS NULL")
	q = applyFilters(q)
	q = q.Order("treatments.treatment_date DESC, treatments.id ASC")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}

	if err := q.Find(&treatments).Error; err != nil {
		return nil, 0, err
	}

	// Count with the same filters, without limit/offset
	countQuery := db.Table("treatments").
		Joins("JOIN patients ON patients.id = treatments.patient_id").
		Where("treatments.deleted_at IS NULL")
	countQuery = applyFilters(countQuery)
	if err := countQuery.Count(&totalTreatments).Error; err != nil {
		return nil, 0, err
	}

	return treatments, totalTreatments, nil
}

// ListTreatments godoc
// @Summary      List treatment records
// @Description  Get treatment records with patient details, filterable by patient and date range
// @Tags         Treatment
// @Accept       json
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for patient name or unique ID"
// @Param        patient_id query int false "Filter by patient"
// @Param        from query string false "Range start (YYYY-MM-DD)"
// @Param        to query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Treatments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid date range"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /treatment [get]
func ListTreatments(c *gin.Context) {
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

	var patientID uint
	if raw := c.Query("patient_id"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &patientID); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid patient_id",
				Err: err,
			})
			return
		}
	}

	treatments, totalTreatments, err := fetchTreatments(db, parseListQuery(c), patientID, dateRange)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve treatments",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatments retrieved",
		Data: map[string]interface{}{"total": totalTreatments, "total_fetched": len(treatments), "treatments": treatments},
	})
}

// validatePaymentFields checks the payment amount/date pairing rule: a
// payment date is carried only while a payment amount is present.
func validatePaymentFields(amount float64, date string) error {
	if amount < 0 {
		return fmt.Errorf("payment amount cannot be negative")
	}
	if amount > 0 && date == "" {
		return fmt.Errorf("payment date is required when a payment amount is set")
	}
	if amount == 0 && date != "" {
		return fmt.Errorf("payment date must be empty without a payment amount")
	}
	return nil
}

// buildTreatment derives the financial fields from the catalog subtotal so
// the stored record always satisfies total = subtotal + tax.
func buildTreatment(req model.TreatmentRequest) (model.Treatment, error) {
	subtotal, err := ledger.CatalogSubtotal(req.TreatmentType)
	if err != nil {
		return model.Treatment{}, err
	}
	if err := validatePaymentFields(req.PaymentAmount, req.PaymentDate); err != nil {
		return model.Treatment{}, err
	}

	tax, total := ledger.ComputeCharges(subtotal)
	return model.Treatment{
		PatientID:     req.PatientID,
		TreatmentType: req.TreatmentType,
		TreatmentDate: req.TreatmentDate,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentAmount: req.PaymentAmount,
		PaymentDate:   req.PaymentDate,
	}, nil
}

// CreateTreatment godoc
// @Summary      Record a new treatment
// @Description  Record a billable treatment; subtotal, tax, and total are derived from the treatment catalog
// @Tags         Treatment
// @Accept       json
// @Produce      json
// @Param        request body model.TreatmentRequest true "Treatment information"
// @Success      200 {object} util.APIResponse{data=model.Treatment} "Treatment recorded"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /treatment [post]
func CreateTreatment(c *gin.Context) {
	treatmentRequest := model.TreatmentRequest{}

	if err := c.ShouldBindJSON(&treatmentRequest); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if treatmentRequest.PatientID == 0 || treatmentRequest.TreatmentDate == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Treatment payload is missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, treatmentRequest.PatientID).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return
	}

	treatment, err := buildTreatment(treatmentRequest)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid treatment entry",
			Err: err,
		})
		return
	}

	if err := db.Create(&treatment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to record treatment",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventTreatmentCreated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Treatment %d recorded for patient %s", treatment.ID, patient.UniqueID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatment recorded",
		Data: treatment,
	})
}

func getTreatmentByID(c *gin.Context, db *gorm.DB) (model.Treatment, error) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing or invalid treatment ID",
			Err: err,
		})
		return model.Treatment{}, err
	}

	var treatment model.Treatment
	if err := db.First(&treatment, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Treatment not found",
			Err: err,
		})
		return model.Treatment{}, err
	}

	return treatment, nil
}

// applyTreatmentUpdate merges the provided fields into the record,
// re-deriving tax and total whenever the subtotal changes and keeping the
// payment date consistent with the payment amount.
func applyTreatmentUpdate(treatment *model.Treatment, update model.UpdateTreatmentRequest) error {
	if update.TreatmentType != nil {
		if _, err := ledger.CatalogSubtotal(*update.TreatmentType); err != nil {
			return err
		}
		treatment.TreatmentType = *update.TreatmentType
	}
	if update.TreatmentDate != nil {
		if *update.TreatmentDate == "" {
			return fmt.Errorf("treatment date cannot be empty")
		}
		treatment.TreatmentDate = *update.TreatmentDate
	}
	if update.Subtotal != nil {
		if *update.Subtotal < 0 {
			return fmt.Errorf("subtotal cannot be negative")
		}
		treatment.Subtotal = *update.Subtotal
		treatment.Tax, treatment.Total = ledger.ComputeCharges(*update.Subtotal)
	}
	if update.PaymentAmount != nil {
		treatment.PaymentAmount = *update.PaymentAmount
	}
	if update.PaymentDate != nil {
		treatment.PaymentDate = *update.PaymentDate
	}
	if treatment.PaymentAmount == 0 {
		treatment.PaymentDate = ""
	}
	return validatePaymentFields(treatment.PaymentAmount, treatment.PaymentDate)
}

// UpdateTreatment godoc
// @Summary      Update a treatment record
// @Description  Edit treatment fields; tax and total are re-derived when the subtotal changes
// @Tags         Treatment
// @Accept       json
// @Produce      json
// @Param        id path string true "Treatment ID"
// @Param        request body model.UpdateTreatmentRequest true "Updated treatment fields"
// @Success      200 {object} util.APIResponse{data=model.Treatment} "Treatment updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Treatment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /treatment/{id} [patch]
func UpdateTreatment(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	update := model.UpdateTreatmentRequest{}
	if err := c.ShouldBindJSON(&update); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	treatment, err := getTreatmentByID(c, db)
	if err != nil {
		return
	}

	if err := applyTreatmentUpdate(&treatment, update); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid treatment update",
			Err: err,
		})
		return
	}

	if err := db.Save(&treatment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update treatment",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventTreatmentUpdated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Treatment %d updated", treatment.ID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Treatment updated",
		Data: treatment,
	})
}

// DeleteTreatment godoc
// @Summary      Delete a treatment record
// @Description  Soft delete a single treatment record by ID
// @Tags         Treatment
// @Accept       json
// @Produce      json
// @Param        id path string true "Treatment ID"
// @Success      200 {object} util.APIResponse "Treatment deleted"
// @Failure      404 {object} util.APIResponse "Treatment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /treatment/{id} [delete]
func DeleteTreatment(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	treatment, err := getTreatmentByID(c, db)
	if err != nil {
		return
	}

	if err := db.Delete(&treatment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete treatment",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventTreatmentDeleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Treatment %d deleted", treatment.ID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Treatment deleted",
	})
}

// ListTreatmentTypes godoc
// @Summary      List the treatment catalog
// @Description  Get the offered treatment types and their subtotals
// @Tags         Treatment
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Catalog retrieved"
// @Router       /catalog [get]
func ListTreatmentTypes(c *gin.Context) {
	types := ledger.TreatmentTypes()
	catalog := make(map[string]float64, len(types))
	for _, name := range types {
		subtotal, _ := ledger.CatalogSubtotal(name)
		catalog[name] = subtotal
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Catalog retrieved",
		Data: map[string]interface{}{"treatment_types": catalog, "tax_rate": ledger.TaxRate},
	})
}
