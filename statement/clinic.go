// Package statement renders treatment history into PDF documents:
// per-patient financial statements and single-treatment receipts.
package statement

import (
	"fmt"

	"github.com/aecasagrande/clinic-app/model"
	"gorm.io/gorm"
)

// ClinicInfo holds the settings fields printed on document headers and footers.
type ClinicInfo struct {
	Name      string
	Address   string
	Phone     string
	HSTNumber string
	Footer    string
}

// LoadClinicInfo reads the renderer's header/footer fields from the settings
// table. Missing keys come back as empty strings rather than errors.
func LoadClinicInfo(db *gorm.DB) (ClinicInfo, error) {
	var settings []model.Setting
	if err := db.Find(&settings).Error; err != nil {
		return ClinicInfo{}, fmt.Errorf("failed to load clinic settings: %w", err)
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	return ClinicInfo{
		Name:      values[model.SettingClinicName],
		Address:   values[model.SettingClinicAddress],
		Phone:     values[model.SettingClinicPhone],
		HSTNumber: values[model.SettingHSTNumber],
		Footer:    values[model.SettingReceiptFooter],
	}, nil
}
