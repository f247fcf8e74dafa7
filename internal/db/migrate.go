package db

import (
	"adpilot/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Campaign{},
		&models.CampaignRule{},
		&models.CampaignSchedule{},
		&models.CampaignMetricSample{},
		&models.AutomationAction{},
		&models.ACOSPrediction{},
	)
}
