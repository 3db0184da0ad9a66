package endpoint

import (
	"fmt"
	"strings"

	"github.com/aecasagrande/clinic-app/ledger"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func fetchPatients(db *gorm.DB, query listQuery) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var totalPatients int64

	// Only allow asc/desc for the order direction
	orderDir := "ASC"
	if query.SortDir == "desc" {
		orderDir = "DESC"
	}

	q := db.Model(&model.Patient{})
	switch query.SortBy {
	case "full_name":
		q = q.Order(fmt.Sprintf("patients.full_name %s", orderDir))
	case "unique_id":
		q = q.Order(fmt.Sprintf("patients.unique_id %s", orderDir))
	default:
		q = q.Order("patients.created_at DESC")
	}

	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	if query.Keyword != "" {
		kw := "%" + query.Keyword + "%"
		q = q.Where("full_name LIKE ? OR unique_id LIKE ?", kw, kw)
	}

	if err := q.Find(&patients).Error; err != nil {
		return nil, 0, err
	}

	db.Model(&model.Patient{}).Count(&totalPatients)
	return patients, totalPatients, nil
}

// ListPatients godoc
// @Summary      List all patients
// @Description  Get a paginated list of patients with optional filtering
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for patient name or unique ID"
// @Param        sort query string false "Optional sort field: full_name|unique_id"
// @Param        sort_dir query string false "Optional sort direction: asc|desc"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patients, totalPatients, err := fetchPatients(db, parseListQuery(c))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": totalPatients, "total_fetched": len(patients), "patients": patients},
	})
}

type createPatientRequest struct {
	FullName string `json:"full_name" example:"John Doe"`
	UniqueID string `json:"unique_id" example:"P-1001"`
}

func ensureUniqueIDAvailable(db *gorm.DB, uniqueID string) error {
	var existing model.Patient
	if err := db.Where("unique_id = ?", uniqueID).First(&existing).Error; err == nil {
		return fmt.Errorf("unique_id already registered")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}
	return nil
}

// CreatePatient godoc
// @Summary      Register a new patient
// @Description  Register a patient with a display name and a unique external identifier
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        request body createPatientRequest true "Patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request or duplicate unique ID"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	patientRequest := createPatientRequest{}

	if err := c.ShouldBindJSON(&patientRequest); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	patientRequest.FullName = util.NormalizeName(patientRequest.FullName)
	patientRequest.UniqueID = strings.TrimSpace(patientRequest.UniqueID)
	if patientRequest.FullName == "" || patientRequest.UniqueID == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Patient payload is empty or missing required fields",
			Err: fmt.Errorf("invalid payload"),
		})
		return
	}

	db := requireDB(c)
	if db == nil {
		return
	}

	patient := model.Patient{
		FullName: patientRequest.FullName,
		UniqueID: patientRequest.UniqueID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Check inside the transaction so a concurrent registration with
		// the same unique_id cannot slip through.
		if err := ensureUniqueIDAvailable(tx, patientRequest.UniqueID); err != nil {
			return err
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Failed to create patient",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientCreated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Patient %s registered", patient.UniqueID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

func getPatientByID(c *gin.Context, db *gorm.DB) (model.Patient, error) {
	id, err := parseIDParam(c)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing or invalid patient ID",
			Err: err,
		})
		return model.Patient{}, err
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: err,
		})
		return model.Patient{}, err
	}

	return patient, nil
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Description  Get detailed information about a specific patient
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update an existing patient's name or unique identifier
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [patch]
func UpdatePatient(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	update := model.UpdatePatientRequest{}
	if err := c.ShouldBindJSON(&update); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}

	existing, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	if update.FullName != "" {
		existing.FullName = util.NormalizeName(update.FullName)
	}
	if update.UniqueID != "" && update.UniqueID != existing.UniqueID {
		if err := ensureUniqueIDAvailable(db, update.UniqueID); err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Unique ID already in use",
				Err: err,
			})
			return
		}
		existing.UniqueID = update.UniqueID
	}

	if err := db.Save(&existing).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: existing,
	})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Delete a patient and all of their treatment records
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [delete]
func DeletePatient(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	patient, err := getPatientByID(c, db)
	if err != nil {
		return
	}

	// Deleting a patient cascades to their treatment history in one
	// transaction so no orphaned records survive.
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", patient.ID).Delete(&model.Treatment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&patient).Error
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventPatientDeleted,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Patient %s deleted with treatment history", patient.UniqueID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient deleted",
	})
}

// GetPatientStanding godoc
// @Summary      Get a patient's financial standing
// @Description  Compute total billed, total paid, and balance over an optional date range
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path string true "Patient ID"
// @Param        from query string false "Range start (YYYY-MM-DD); omit both bounds for all time"
// @Param        to query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Standing computed"
// @Failure      400 {object} util.APIResponse "Invalid date range"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id}/standing [get]
func GetPatientStanding(c *gin.Context) {
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

	standing := ledger.ComputeStanding(records)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Standing computed",
		Data: map[string]interface{}{
			"patient":  patient,
			"period":   ledger.PeriodLabel(dateRange),
			"standing": standing,
			"records":  len(records),
		},
	})
}
