package config

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/fcrm/models"
)

func Migrations(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		return err
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "18072025_create_rbac_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Permission{}, &models.Role{}, &models.RolePermission{}, &models.User{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("users", "role_permissions", "roles", "permissions")
			},
		},
		{
			ID: "18072025_create_lookup_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.FeedbackProject{}, &models.FeedbackSource{},
					&models.FeedbackType{}, &models.Manager{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("managers", "feedback_types", "feedback_sources", "feedback_projects")
			},
		},
		{
			ID: "18072025_create_complaint_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Complaint{}, &models.ComplaintAttachment{}, &models.ComplaintLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("complaint_logs", "complaint_attachments", "complaints")
			},
		},
		{
			// older rows were written with display spellings
			ID:      "02082025_normalize_complaint_status",
			Migrate: normalizeComplaintStatus,
		},
	})

	return m.Migrate()
}

// normalizeComplaintStatus rewrites legacy spellings to the canonical values
// accepted by workflow.NormalizeStatus.
func normalizeComplaintStatus(tx *gorm.DB) error {
	spellings := map[string][]string{
		"new":        {"new"},
		"in_process": {"in_process", "in_progress", "in process"},
		"to_crc":     {"to_crc"},
		"escalated":  {"escalated"},
		"closed":     {"closed", "close"},
	}
	for canonical, from := range spellings {
		err := tx.Exec("UPDATE complaints SET status = ? WHERE LOWER(TRIM(status)) IN ? AND status <> ?",
			canonical, from, canonical).Error
		if err != nil {
			return fmt.Errorf("normalize %s: %w", canonical, err)
		}
	}
	return nil
}
