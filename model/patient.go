package model

import "gorm.io/gorm"

// Patient represents a registered patient
// @Description Patient identity information
type Patient struct {
	gorm.Model
	FullName string `json:"full_name" gorm:"column:full_name;not null" example:"John Doe"`
	UniqueID string `json:"unique_id" gorm:"column:unique_id;uniqueIndex;not null" example:"P-1001"`
}

// UpdatePatientRequest represents a partial patient update
// @Description Patient update information
type UpdatePatientRequest struct {
	FullName string `json:"full_name,omitempty" example:"John Doe"`
	UniqueID string `json:"unique_id,omitempty" example:"P-1001"`
}
