package main

import (
	"log"
	"strconv"
	"time"

	"gym-membership-be/internal/config"
	"gym-membership-be/internal/model"
	"gym-membership-be/pkg/clock"
	"gym-membership-be/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
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

	SeedAdminSettings(db, cfg)

	loc := clock.LoadLocation(cfg.Lifecycle.BusinessTimezone)
	today := clock.Today(clock.NewBusinessClock(loc))
	if err := db.Transaction(func(tx *gorm.DB) error {
		return SeedDemoMembers(tx, today)
	}); err != nil {
		log.Fatalf("Error: Failed to seed demo members: %v", err)
	}

	log.Println("✅ Seeding completed.")
}

// SeedAdminSettings writes the default runtime settings, keeping values an
// admin has already changed.
func SeedAdminSettings(db *gorm.DB, cfg *config.Config) {
	settings := []model.AdminSetting{
		{Key: "expiry_notification_days", Value: strconv.Itoa(cfg.Lifecycle.NotificationDays)},
	}
	for _, s := range settings {
		var existing model.AdminSetting
		if err := db.Where("key = ?", s.Key).First(&existing).Error; err == nil {
			log.Printf("Setting '%s' already exists (%s), skipping...", s.Key, existing.Value)
			continue
		}
		if err := db.Create(&s).Error; err != nil {
			log.Printf("Failed to create setting '%s': %v", s.Key, err)
			continue
		}
		log.Printf("Created setting '%s' = %s", s.Key, s.Value)
	}
}

type demoMember struct {
	email      string
	plan       string
	price      float64
	status     string
	endInDays  int
	graceDays  *int
	trainerEnd *int
}

// SeedDemoMembers creates one member per lifecycle situation relative to
// today. Members whose email already exists are skipped.
func SeedDemoMembers(tx *gorm.DB, today time.Time) error {
	days := func(n int) *int { return &n }
	at := func(n int) *time.Time {
		t := today.AddDate(0, 0, n).Add(20 * time.Hour)
		return &t
	}

	members := []demoMember{
		{email: "expiring@demo.gym", plan: "Regular Monthly", price: 1500, status: "active", endInDays: 7},
		{email: "reminder@demo.gym", plan: "Regular Monthly", price: 1500, status: "active", endInDays: 5},
		{email: "lapsed@demo.gym", plan: "Regular Monthly", price: 1500, status: "active", endInDays: -1, trainerEnd: days(20)},
		{email: "grace-over@demo.gym", plan: "Regular Monthly", price: 1500, status: "grace_period", endInDays: -8, graceDays: days(-1)},
		{email: "trainer-lapsed@demo.gym", plan: "Premium Annual", price: 12000, status: "active", endInDays: 90, trainerEnd: days(-1)},
		{email: "renewal@demo.gym", plan: "Premium Annual", price: 12000, status: "active", endInDays: 90, trainerEnd: days(2)},
	}

	trainer := model.User{Id: uuid.New(), Email: "coach@demo.gym", FullName: "Demo Coach", Role: "trainer"}
	if err := tx.Where("email = ?", trainer.Email).FirstOrCreate(&trainer).Error; err != nil {
		return err
	}

	for _, d := range members {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", d.email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			log.Printf("Member '%s' already exists, skipping...", d.email)
			continue
		}

		user := model.User{Id: uuid.New(), Email: d.email, FullName: d.email, Role: "user"}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		m := model.Membership{
			UserId:            user.Id,
			PlanName:          d.plan,
			PlanMode:          "in_gym",
			DurationMonths:    1,
			Price:             d.price,
			Status:            d.status,
			StartDate:         at(d.endInDays - 30),
			MembershipEndDate: at(d.endInDays),
		}
		if d.graceDays != nil {
			m.GracePeriodEnd = at(*d.graceDays)
		}
		if d.trainerEnd != nil {
			m.TrainerAssigned = true
			m.TrainerId = &trainer.Id
			m.TrainerPeriodEnd = at(*d.trainerEnd)
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		initial := model.MembershipPayment{MembershipId: m.Id, UserId: user.Id, Amount: d.price,
			Status: "verified", VerifiedAt: m.StartDate}
		if err := tx.Create(&initial).Error; err != nil {
			return err
		}

		// a pending trainer renewal an admin can approve from the dashboard
		if d.email == "renewal@demo.gym" {
			addon := model.MembershipAddon{MembershipId: m.Id, UserId: user.Id, AddonType: "personal_trainer",
				Status: "pending", Price: 3000, TrainerId: &trainer.Id}
			if err := tx.Create(&addon).Error; err != nil {
				return err
			}
			payment := model.MembershipPayment{MembershipId: m.Id, UserId: user.Id, Amount: 3000, Status: "pending"}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
		}
		log.Printf("Created member '%s' (membership %d, %s)", d.email, m.Id, d.status)
	}
	return nil
}
