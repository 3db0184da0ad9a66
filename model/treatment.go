package model

import (
	"gorm.io/gorm"
)

// Treatment represents one billable treatment entry
// @Description Treatment billing information
type Treatment struct {
	gorm.Model
	PatientID     uint    `json:"patient_id" gorm:"column:patient_id;index;not null" example:"1"`
	TreatmentType string  `json:"treatment_type" gorm:"column:treatment_type;not null" example:"Magnetic Field Therapy"`
	TreatmentDate string  `json:"treatment_date" gorm:"column:treatment_date;not null" example:"2025-01-15"`
	Subtotal      float64 `json:"subtotal" gorm:"column:subtotal" example:"25.00"`
	Tax           float64 `json:"tax" gorm:"column:tax" example:"3.25"`
	Total         float64 `json:"total" gorm:"column:total" example:"28.25"`
	PaymentAmount float64 `json:"payment_amount" gorm:"column:payment_amount" example:"28.25"`
	// PaymentDate is empty unless PaymentAmount is greater than zero.
	PaymentDate string `json:"payment_date,omitempty" gorm:"column:payment_date" example:"2025-01-15"`
}

// TreatmentRequest represents a treatment entry request
// @Description Treatment entry information
type TreatmentRequest struct {
	PatientID     uint    `json:"patient_id" example:"1"`
	TreatmentType string  `json:"treatment_type" example:"Magnetic Field Therapy"`
	TreatmentDate string  `json:"treatment_date" example:"2025-01-15"`
	PaymentAmount float64 `json:"payment_amount,omitempty" example:"28.25"`
	PaymentDate   string  `json:"payment_date,omitempty" example:"2025-01-15"`
}

// UpdateTreatmentRequest represents a partial treatment update.
// Pointer fields distinguish "not provided" from an explicit zero,
// since zeroing a payment amount is a valid edit.
type UpdateTreatmentRequest struct {
	TreatmentType *string  `json:"treatment_type,omitempty" example:"Helium Neon Laser"`
	TreatmentDate *string  `json:"treatment_date,omitempty" example:"2025-01-22"`
	Subtotal      *float64 `json:"subtotal,omitempty" example:"25.00"`
	PaymentAmount *float64 `json:"payment_amount,omitempty" example:"0"`
	PaymentDate   *string  `json:"payment_date,omitempty" example:"2025-01-22"`
}

// ListTreatmentResponse represents a treatment list row joined with its patient
// @Description Treatment list response information
type ListTreatmentResponse struct {
	Treatment
	PatientName     string `json:"patient_name" gorm:"column:patient_name" example:"John Doe"`
	PatientUniqueID string `json:"patient_unique_id" gorm:"column:patient_unique_id" example:"P-1001"`
}
