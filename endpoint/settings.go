package endpoint

import (
	"fmt"

	"github.com/aecasagrande/clinic-app/model"
	"github.com/aecasagrande/clinic-app/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// knownSettingKeys lists the keys the receipt/statement renderers consume.
// Updates outside this set are rejected rather than silently stored.
var knownSettingKeys = []string{
	model.SettingClinicName,
	model.SettingClinicAddress,
	model.SettingClinicPhone,
	model.SettingHSTNumber,
	model.SettingReceiptFooter,
}

// SeedDefaultSettings inserts any missing default settings. Existing values
// are left untouched, so repeated startups are idempotent.
func SeedDefaultSettings(db *gorm.DB) error {
	for key, value := range model.DefaultSettings() {
		var existing model.Setting
		err := db.Where("setting_key = ?", key).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to check setting %s: %w", key, err)
		}
		if err := db.Create(&model.Setting{Key: key, Value: value}).Error; err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// ListSettings godoc
// @Summary      List clinic settings
// @Description  Get the clinic detail values printed on receipts and statements
// @Tags         Settings
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Settings retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /settings [get]
func ListSettings(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	var settings []model.Setting
	if err := db.Find(&settings).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve settings",
			Err: err,
		})
		return
	}

	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = s.Value
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Settings retrieved",
		Data: values,
	})
}

// UpdateSettings godoc
// @Summary      Update clinic settings
// @Description  Update one or more known clinic setting keys
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request body map[string]string true "Key/value pairs to update"
// @Success      200 {object} util.APIResponse "Settings updated"
// @Failure      400 {object} util.APIResponse "Unknown setting key"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /settings [put]
func UpdateSettings(c *gin.Context) {
	db := requireDB(c)
	if db == nil {
		return
	}

	updates := map[string]string{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid request body",
			Err: err,
		})
		return
	}
	if len(updates) == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "No settings provided",
			Err: fmt.Errorf("empty payload"),
		})
		return
	}

	for key := range updates {
		if !util.Contains(key, knownSettingKeys) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Unknown setting key: %s", key),
				Err: fmt.Errorf("unknown setting key"),
			})
			return
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for key, value := range updates {
			var existing model.Setting
			err := tx.Where("setting_key = ?", key).First(&existing).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				if err := tx.Create(&model.Setting{Key: key, Value: value}).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				existing.Value = value
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update settings",
			Err: err,
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSettingsUpdated,
		IP:        c.ClientIP(),
		Message:   fmt.Sprintf("Updated %d setting(s)", len(updates)),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Settings updated",
	})
}
