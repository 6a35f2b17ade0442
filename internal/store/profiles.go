package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"gorm.io/gorm"
)

// Profiles reads profiles for the gates and runs the approval queue.
// It implements gate.ProfileResolver for uint user IDs.
type Profiles struct {
	DB *gorm.DB
}

// NewProfiles creates a database-backed profile store.
func NewProfiles(db *gorm.DB) *Profiles {
	return &Profiles{DB: db}
}

// Resolve looks up the profile of userID. Users without one, and unknown
// users, yield gate.ErrNoProfile.
func (p *Profiles) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var prof models.Profile
	err := p.DB.WithContext(ctx).Where("user_id = ?", userID).First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gate.Profile{}, gate.ErrNoProfile
	}
	if err != nil {
		return gate.Profile{}, fmt.Errorf("load profile of user %d: %w", userID, err)
	}
	return prof.Gate(), nil
}

// Get returns the profile with id, its user preloaded.
func (p *Profiles) Get(ctx context.Context, id uint) (*models.Profile, error) {
	var prof models.Profile
	if err := p.DB.WithContext(ctx).Preload("User").First(&prof, id).Error; err != nil {
		return nil, translate(err)
	}
	return &prof, nil
}

// ByUser returns the profile of userID.
func (p *Profiles) ByUser(ctx context.Context, userID uint) (*models.Profile, error) {
	var prof models.Profile
	if err := p.DB.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&prof).Error; err != nil {
		return nil, translate(err)
	}
	return &prof, nil
}

// Pending lists profiles awaiting a decision, oldest first.
func (p *Profiles) Pending(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := p.DB.WithContext(ctx).
		Preload("User").
		Where("is_approved = ? AND rejected_at IS NULL", false).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list pending profiles: %w", err)
	}
	return out, nil
}

// Approve marks the profile approved by the given user.
func (p *Profiles) Approve(ctx context.Context, id, by uint) (*models.Profile, error) {
	now := time.Now()
	return p.decide(ctx, id, map[string]any{
		"is_approved": true,
		"approved_at": now,
		"approved_by": by,
		"rejected_at": nil,
	})
}

// Reject marks the profile rejected. It stays unapproved.
func (p *Profiles) Reject(ctx context.Context, id uint) (*models.Profile, error) {
	now := time.Now()
	return p.decide(ctx, id, map[string]any{
		"is_approved": false,
		"approved_at": nil,
		"approved_by": nil,
		"rejected_at": now,
	})
}

func (p *Profiles) decide(ctx context.Context, id uint, fields map[string]any) (*models.Profile, error) {
	res := p.DB.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update profile %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return p.Get(ctx, id)
}
