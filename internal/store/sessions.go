package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/internal/models"
	"gorm.io/gorm"
)

// Sessions persists sign-ins. It implements auth.SessionStore.
type Sessions struct {
	DB *gorm.DB
}

func NewSessions(db *gorm.DB) *Sessions {
	return &Sessions{DB: db}
}

var _ auth.SessionStore = (*Sessions)(nil)

func (s *Sessions) Create(ctx context.Context, in auth.StoredSession) error {
	row := models.Session{
		TokenHash: in.TokenHash,
		UserID:    in.UserID,
		ExpiresAt: in.ExpiresAt,
		UserAgent: truncate(in.UserAgent, 255),
		IP:        truncate(in.IP, 64),
	}
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Sessions) Find(ctx context.Context, tokenHash string) (auth.StoredSession, error) {
	var row models.Session
	err := s.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.StoredSession{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.StoredSession{}, err
	}
	return auth.StoredSession{
		TokenHash: row.TokenHash,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt,
		UserAgent: row.UserAgent,
		IP:        row.IP,
	}, nil
}

func (s *Sessions) Delete(ctx context.Context, tokenHash string) error {
	return s.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{}).Error
}

func (s *Sessions) DeleteForUser(ctx context.Context, userID uint) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

func (s *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
