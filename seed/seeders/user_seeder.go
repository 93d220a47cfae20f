package seeders

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/lchelper/hints_api/model"
	"github.com/lchelper/hints_api/shared"
)

// UserSeeder provisions demo accounts for local development.
type UserSeeder struct {
	db *gorm.DB
}

func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{db: db}
}

// SeedDemoAccount creates the user if missing and attaches an active
// subscription for the requested tier and period. Re-running refreshes
// the subscription period.
func (s *UserSeeder) SeedDemoAccount(email, password, tier string, days int) error {
	if err := s.db.AutoMigrate(&model.User{}, &model.Subscription{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User
	err := s.db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		log.Printf("User %s already exists", email)
	case err == gorm.ErrRecordNotFound:
		hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		id, _ := uuid.NewV7()
		user = model.User{
			ID:           id.String(),
			Email:        email,
			PasswordHash: string(hash),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		log.Printf("Created user %s", email)
	default:
		return fmt.Errorf("lookup user: %w", err)
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 0, days)

	var sub model.Subscription
	err = s.db.Where("user_id = ?", user.ID).Order("created_at DESC").First(&sub).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if err == gorm.ErrRecordNotFound {
		id, _ := uuid.NewV7()
		sub = model.Subscription{ID: id.String(), UserID: user.ID}
	}

	sub.Gateway = "manual"
	sub.Status = shared.SubscriptionStatusActive
	sub.Tier = tier
	sub.CurrentPeriodStart = &now
	sub.CurrentPeriodEnd = &periodEnd
	sub.CancelAtPeriodEnd = false

	if err := s.db.Save(&sub).Error; err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	log.Printf("Subscription active: tier=%s until %s", tier, periodEnd.Format(time.RFC3339))
	return nil
}
