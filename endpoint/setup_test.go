package endpoint

import (
	"fmt"
	"testing"
	"time"

	"github.com/aecasagrande/clinic-app/middleware"
	"github.com/aecasagrande/clinic-app/model"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// EndpointTestModels defines the standard set of models migrated for endpoint tests
var EndpointTestModels = []interface{}{
	&model.Patient{},
	&model.Treatment{},
	&model.Setting{},
	&model.AuditLog{},
}

// setupEndpointTestDB initializes an in-memory test database with all
// standard models migrated. The DSN is uniquified per test to prevent
// cross-test contamination when tests run in the same process.
func setupEndpointTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_endpoint_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}

	if err := db.AutoMigrate(EndpointTestModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return db
}

// setupEndpointTest returns a Gin engine with the full route table and a
// database connection configured for endpoint tests.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupEndpointTestDB(t)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))

	r.GET("/patient", ListPatients)
	r.POST("/patient", CreatePatient)
	r.GET("/patient/:id", GetPatientInfo)
	r.PATCH("/patient/:id", UpdatePatient)
	r.DELETE("/patient/:id", DeletePatient)
	r.GET("/patient/:id/standing", GetPatientStanding)
	r.GET("/patient/:id/statement", GetPatientStatement)

	r.GET("/treatment", ListTreatments)
	r.POST("/treatment", CreateTreatment)
	r.GET("/catalog", ListTreatmentTypes)
	r.PATCH("/treatment/:id", UpdateTreatment)
	r.DELETE("/treatment/:id", DeleteTreatment)
	r.GET("/treatment/:id/receipt", GetTreatmentReceipt)

	r.GET("/settings", ListSettings)
	r.PUT("/settings", UpdateSettings)

	r.GET("/export/patients", ExportPatientsCSV)
	r.GET("/export/treatments", ExportTreatmentsCSV)
	r.GET("/export/sales", ExportSalesExcel)
	r.POST("/import/patients", ImportPatientsCSV)
	r.POST("/import/treatments", ImportTreatmentsCSV)

	return r, db
}

// createTestPatient inserts a patient directly into the DB for test setup.
func createTestPatient(t *testing.T, db *gorm.DB, fullName, uniqueID string) model.Patient {
	t.Helper()
	patient := model.Patient{FullName: fullName, UniqueID: uniqueID}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("failed to create test patient: %v", err)
	}
	return patient
}

// createTestTreatment inserts a treatment with charges derived under the
// 13% policy directly into the DB for test setup.
func createTestTreatment(t *testing.T, db *gorm.DB, patientID uint, date string, subtotal, payment float64) model.Treatment {
	t.Helper()
	tax := subtotal * 0.13
	treatment := model.Treatment{
		PatientID:     patientID,
		TreatmentType: "Magnetic Field Therapy",
		TreatmentDate: date,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
		PaymentAmount: payment,
	}
	if payment > 0 {
		treatment.PaymentDate = date
	}
	if err := db.Create(&treatment).Error; err != nil {
		t.Fatalf("failed to create test treatment: %v", err)
	}
	return treatment
}
