package endpoint

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/aecasagrande/clinic-app/model"
	"github.com/stretchr/testify/assert"
)

func parseCSVBody(t *testing.T, body string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV body: %v", err)
	}
	return records
}

func TestExportPatientsCSV(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "John Doe", "P-1001")
	createTestPatient(t, db, "Jane Roe", "P-2002")

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodGet,
		requestPath: "/export/patients",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "patients.csv")

	records := parseCSVBody(t, w.Body.String())
	if assert.Len(t, records, 3) {
		assert.Equal(t, []string{"full_name", "unique_id"}, records[0])
		assert.Equal(t, []string{"John Doe", "P-1001"}, records[1])
		assert.Equal(t, []string{"Jane Roe", "P-2002"}, records[2])
	}
}

func TestExportTreatmentsCSV(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db, "John Doe", "P-1001")
	createTestTreatment(t, db, patient.ID, "2025-01-15", 25.00, 28.25)

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodGet,
		requestPath: "/export/treatments",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	records := parseCSVBody(t, w.Body.String())
	if assert.Len(t, records, 2) {
		assert.Equal(t, treatmentCSVHeader, records[0])
		assert.Equal(t, []string{
			"P-1001", "Magnetic Field Therapy", "2025-01-15",
			"25.00", "3.25", "28.25", "28.25", "2025-01-15",
		}, records[1])
	}
}

func TestImportPatientsCSV(t *testing.T) {
	r, db := setupEndpointTest(t)

	body := "full_name,unique_id\nJohn Doe,P-1001\nJane Roe,P-2002\n"
	w, response := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/patients",
		body:        body,
		contentType: "text/csv",
	})
	assertSuccessResponse(t, w, response)

	var count int64
	db.Model(&model.Patient{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestImportPatientsCSVConflictAbortsBatch(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "Existing Patient", "P-2002")

	// First row is clean; the conflict in the second must undo it too.
	body := "full_name,unique_id\nJohn Doe,P-1001\nJane Roe,P-2002\n"
	w, _ := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/patients",
		body:        body,
		contentType: "text/csv",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&model.Patient{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestImportPatientsCSVBadHeader(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/patients",
		body:        "name,id\nJohn Doe,P-1001\n",
		contentType: "text/csv",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportTreatmentsCSV(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db, "John Doe", "P-1001")

	body := strings.Join([]string{
		strings.Join(treatmentCSVHeader, ","),
		"P-1001,Magnetic Field Therapy,2025-01-15,25.00,3.25,28.25,28.25,2025-01-15",
		"P-1001,Helium Neon Laser,2025-01-22,25.00,3.25,28.25,0.00,",
	}, "\n") + "\n"

	w, response := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/treatments",
		body:        body,
		contentType: "text/csv",
	})
	assertSuccessResponse(t, w, response)

	var treatments []model.Treatment
	assert.NoError(t, db.Order("id ASC").Find(&treatments).Error)
	if assert.Len(t, treatments, 2) {
		assert.Equal(t, patient.ID, treatments[0].PatientID)
		assert.InDelta(t, 28.25, treatments[0].PaymentAmount, 0.0001)
		assert.Zero(t, treatments[1].PaymentAmount)
		assert.Empty(t, treatments[1].PaymentDate)
	}
}

func TestImportTreatmentsCSVUnknownPatientAbortsBatch(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "John Doe", "P-1001")

	body := strings.Join([]string{
		strings.Join(treatmentCSVHeader, ","),
		"P-1001,Magnetic Field Therapy,2025-01-15,25.00,3.25,28.25,0.00,",
		"P-9999,Magnetic Field Therapy,2025-01-22,25.00,3.25,28.25,0.00,",
	}, "\n") + "\n"

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/treatments",
		body:        body,
		contentType: "text/csv",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&model.Treatment{}).Count(&count)
	assert.Zero(t, count)
}

func TestImportTreatmentsCSVBrokenTotalRejected(t *testing.T) {
	r, db := setupEndpointTest(t)
	createTestPatient(t, db, "John Doe", "P-1001")

	body := strings.Join([]string{
		strings.Join(treatmentCSVHeader, ","),
		"P-1001,Magnetic Field Therapy,2025-01-15,25.00,3.25,30.00,0.00,",
	}, "\n") + "\n"

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/treatments",
		body:        body,
		contentType: "text/csv",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// Export followed by an import into a fresh store reproduces the same data.
func TestCSVRoundTrip(t *testing.T) {
	source, sourceDB := setupEndpointTest(t)
	patient := createTestPatient(t, sourceDB, "John Doe", "P-1001")
	other := createTestPatient(t, sourceDB, "Jane Roe", "P-2002")
	createTestTreatment(t, sourceDB, patient.ID, "2025-01-15", 25.00, 28.25)
	createTestTreatment(t, sourceDB, other.ID, "2025-01-22", 25.00, 0)

	patientsW, _ := performRequest(source, requestSpec{
		method:      http.MethodGet,
		requestPath: "/export/patients",
	})
	treatmentsW, _ := performRequest(source, requestSpec{
		method:      http.MethodGet,
		requestPath: "/export/treatments",
	})

	target, targetDB := setupEndpointTest(t)
	w, response := performRequest(target, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/patients",
		body:        patientsW.Body.String(),
		contentType: "text/csv",
	})
	assertSuccessResponse(t, w, response)

	w, response = performRequest(target, requestSpec{
		method:      http.MethodPost,
		requestPath: "/import/treatments",
		body:        treatmentsW.Body.String(),
		contentType: "text/csv",
	})
	assertSuccessResponse(t, w, response)

	// Records survive the round trip relinked by unique_id, not by DB id.
	var imported model.Treatment
	var importedPatient model.Patient
	assert.NoError(t, targetDB.Where("unique_id = ?", "P-1001").First(&importedPatient).Error)
	assert.NoError(t, targetDB.Where("patient_id = ?", importedPatient.ID).First(&imported).Error)
	assert.Equal(t, "Magnetic Field Therapy", imported.TreatmentType)
	assert.InDelta(t, 28.25, imported.Total, 0.0001)
	assert.InDelta(t, 28.25, imported.PaymentAmount, 0.0001)

	var patientCount, treatmentCount int64
	targetDB.Model(&model.Patient{}).Count(&patientCount)
	targetDB.Model(&model.Treatment{}).Count(&treatmentCount)
	assert.Equal(t, int64(2), patientCount)
	assert.Equal(t, int64(2), treatmentCount)
}

func TestExportSalesExcel(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db, "John Doe", "P-1001")
	createTestTreatment(t, db, patient.ID, "2025-01-15", 25.00, 28.25)

	w, _ := performRequest(r, requestSpec{
		method:      http.MethodGet,
		requestPath: "/export/sales",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Sales.xlsx")
	// XLSX files are ZIP archives.
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}
