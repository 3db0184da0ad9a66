package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// TreatmentSpec describes the fields for creating a test Treatment.
type TreatmentSpec struct {
	PatientID     uint
	TreatmentType string
	TreatmentDate string
	Subtotal      float64
	PaymentAmount float64
	PaymentDate   string
}

// newTreatment returns a Treatment populated from a TreatmentSpec with
// tax and total derived under the 13% policy.
func newTreatment(spec TreatmentSpec) Treatment {
	tax := spec.Subtotal * 0.13
	return Treatment{
		PatientID:     spec.PatientID,
		TreatmentType: spec.TreatmentType,
		TreatmentDate: spec.TreatmentDate,
		Subtotal:      spec.Subtotal,
		Tax:           tax,
		Total:         spec.Subtotal + tax,
		PaymentAmount: spec.PaymentAmount,
		PaymentDate:   spec.PaymentDate,
	}
}

// createAndInsertTreatment creates a Treatment from spec, inserts it into the DB, and returns it.
func createAndInsertTreatment(db *gorm.DB, spec TreatmentSpec) (Treatment, error) {
	t := newTreatment(spec)
	err := db.Create(&t).Error
	return t, err
}

func todayStr() string {
	return time.Now().Format("2006-01-02")
}

func TestTreatmentModel_Create(t *testing.T) {
	db := setupTestDB(t, "treatment", &Treatment{})
	treatment, err := createAndInsertTreatment(db, TreatmentSpec{
		PatientID:     1,
		TreatmentType: "Magnetic Field Therapy",
		TreatmentDate: todayStr(),
		Subtotal:      25.00,
		PaymentAmount: 28.25,
		PaymentDate:   todayStr(),
	})
	assert.NoError(t, err)
	assert.NotZero(t, treatment.ID)
	assert.InDelta(t, treatment.Subtotal+treatment.Tax, treatment.Total, 0.0001)
}

func TestTreatmentModel_Read(t *testing.T) {
	db := setupTestDB(t, "treatment", &Treatment{})
	created, err := createAndInsertTreatment(db, TreatmentSpec{
		PatientID:     2,
		TreatmentType: "Helium Neon Laser",
		TreatmentDate: "2025-01-15",
		Subtotal:      25.00,
	})
	assert.NoError(t, err)

	var fetched Treatment
	err = db.First(&fetched, created.ID).Error
	assert.NoError(t, err)
	assert.Equal(t, "Helium Neon Laser", fetched.TreatmentType)
	assert.InDelta(t, 28.25, fetched.Total, 0.0001)
	assert.Zero(t, fetched.PaymentAmount)
	assert.Empty(t, fetched.PaymentDate)
}

func TestTreatmentModel_Update(t *testing.T) {
	db := setupTestDB(t, "treatment", &Treatment{})
	created, err := createAndInsertTreatment(db, TreatmentSpec{
		PatientID:     3,
		TreatmentType: "Magnetic Field Therapy",
		TreatmentDate: "2025-01-15",
		Subtotal:      25.00,
	})
	assert.NoError(t, err)

	created.PaymentAmount = 28.25
	created.PaymentDate = "2025-01-20"
	assert.NoError(t, db.Save(&created).Error)

	var fetched Treatment
	assert.NoError(t, db.First(&fetched, created.ID).Error)
	assert.InDelta(t, 28.25, fetched.PaymentAmount, 0.0001)
	assert.Equal(t, "2025-01-20", fetched.PaymentDate)
}

func TestTreatmentModel_SoftDelete(t *testing.T) {
	db := setupTestDB(t, "treatment", &Treatment{})
	created, err := createAndInsertTreatment(db, TreatmentSpec{
		PatientID:     4,
		TreatmentType: "Magnetic Field Therapy",
		TreatmentDate: "2025-01-15",
		Subtotal:      25.00,
	})
	assert.NoError(t, err)

	assert.NoError(t, db.Delete(&created).Error)

	var fetched Treatment
	err = db.First(&fetched, created.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Soft-deleted rows remain reachable with Unscoped.
	assert.NoError(t, db.Unscoped().First(&fetched, created.ID).Error)
	assert.True(t, fetched.DeletedAt.Valid)
}

func TestTreatmentModel_OverpaymentIsValid(t *testing.T) {
	db := setupTestDB(t, "treatment", &Treatment{})
	treatment, err := createAndInsertTreatment(db, TreatmentSpec{
		PatientID:     5,
		TreatmentType: "Magnetic Field Therapy",
		TreatmentDate: "2025-01-15",
		Subtotal:      25.00,
		PaymentAmount: 40.00,
		PaymentDate:   "2025-01-15",
	})
	assert.NoError(t, err)
	assert.InDelta(t, -11.75, treatment.Total-treatment.PaymentAmount, 0.0001)
}
