package model

import "gorm.io/gorm"

// Setting represents one clinic configuration entry as a key/value pair
// @Description Clinic setting information
type Setting struct {
	gorm.Model
	Key   string `json:"key" gorm:"column:setting_key;uniqueIndex;not null" example:"clinic_name"`
	Value string `json:"value" gorm:"column:setting_value;type:text" example:"My Health Clinic"`
}

// Setting keys consumed by the receipt and statement renderers.
const (
	SettingClinicName    = "clinic_name"
	SettingClinicAddress = "clinic_address"
	SettingClinicPhone   = "clinic_phone"
	SettingHSTNumber     = "hst_number"
	SettingReceiptFooter = "receipt_footer"
)

// DefaultSettings returns the seed values written at startup for keys
// that do not exist yet.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingClinicName:    "My Health Clinic",
		SettingClinicAddress: "123 Wellness Blvd, City, ON",
		SettingClinicPhone:   "(555) 123-4567",
		SettingHSTNumber:     "123456789 RT0001",
		SettingReceiptFooter: "Thank you for your business!",
	}
}
