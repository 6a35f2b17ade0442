package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewAccount describes a user to create along with their profile.
type NewAccount struct {
	Email    string
	Password string
	FullName string
	Role     gate.Role
	Approved bool
}

// Users manages accounts and credentials.
type Users struct {
	DB *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{DB: db}
}

// Create inserts the user and their profile in one transaction.
// A taken email yields ErrConflict.
func (u *Users) Create(ctx context.Context, in NewAccount) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Email: in.Email, Password: string(hash)}
	err = u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err)
		}
		prof := &models.Profile{
			UserID:     user.ID,
			FullName:   in.FullName,
			Role:       string(in.Role),
			IsApproved: in.Approved,
		}
		if in.Approved {
			now := time.Now()
			prof.ApprovedAt = &now
		}
		if err := tx.Create(prof).Error; err != nil {
			return translate(err)
		}
		user.Profile = prof
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ByEmail returns the user with the given address, profile preloaded.
func (u *Users) ByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.DB.WithContext(ctx).Preload("Profile").
		Where("email = ?", models.NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Authenticate checks the credentials and returns the matching user.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := u.ByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
