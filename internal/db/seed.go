package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions carries the bootstrap account. Empty fields skip it.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// Seed initializes the database with required seed data.
// Should be called after Migrate. It is safe to run repeatedly.
func Seed(db *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		slog.Info("seed skipped: no bootstrap admin configured")
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return seedSuperAdmin(tx, opts.AdminEmail, opts.AdminPassword)
	})
}

func seedSuperAdmin(tx *gorm.DB, email, password string) error {
	var user models.User
	err := tx.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash bootstrap password: %w", err)
		}
		user = models.User{Email: email, Password: string(hash)}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("create bootstrap admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find bootstrap admin: %w", err)
	}

	now := time.Now()
	profile := models.Profile{
		UserID:     user.ID,
		FullName:   "Super Admin",
		Role:       string(gate.RoleSuperAdmin),
		IsApproved: true,
		ApprovedAt: &now,
	}
	err = tx.Where(models.Profile{UserID: user.ID}).
		Assign(map[string]any{"role": profile.Role, "is_approved": true}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return fmt.Errorf("seed bootstrap profile: %w", err)
	}
	slog.Info("bootstrap admin ready", "email", user.Email, "user_id", user.ID)
	return nil
}
