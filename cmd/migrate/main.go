package main

import (
	"log"

	"gym-membership-be/internal/config"
	"gym-membership-be/internal/model"
	"gym-membership-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.User{},
		&model.Membership{},
		&model.MembershipAddon{},
		&model.TrainerAssignment{},
		&model.MembershipPayment{},
		&model.Invoice{},
		&model.EmailEvent{},
		&model.EmailFailure{},
		&model.Notification{},
		&model.AdminNotification{},
		&model.MembershipAuditLog{},
		&model.AdminSetting{},
	}
	log.Printf("Step 2: Running AutoMigrate for %d Tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating scanner indexes and defaults...")
	postMigrationSQL := []string{
		// Partial indexes for the daily scans, which only touch live rows.
		`CREATE INDEX IF NOT EXISTS idx_memberships_active_end
		 ON memberships (COALESCE(membership_end_date, end_date)) WHERE status = 'active';`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_grace_end
		 ON memberships (grace_period_end) WHERE status = 'grace_period';`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_trainer_end
		 ON memberships (trainer_period_end) WHERE trainer_assigned = true;`,
		`CREATE INDEX IF NOT EXISTS idx_trainer_assignments_live
		 ON trainer_assignments (membership_id) WHERE status IN ('pending', 'assigned');`,

		// At most one verified renewal can be acted on per payment.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_membership_payments_txn
		 ON membership_payments (transaction_id) WHERE transaction_id IS NOT NULL;`,

		`INSERT INTO admin_settings (key, value, updated_at)
		 VALUES ('expiry_notification_days', '7', now())
		 ON CONFLICT (key) DO NOTHING;`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
}
