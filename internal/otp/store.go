package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Hassan-Maher/Quizify/internal/models"
)

var (
	ErrNoActiveCode = errors.New("user has no active code")
	ErrInvalidCode  = errors.New("code is not valid")
	ErrExpired      = errors.New("code is expired")
)

// Store owns the one-code-per-user lifecycle. Every flow that issues or
// consumes a code goes through here instead of touching user_otps directly.
type Store struct {
	db  *gorm.DB
	now func() time.Time
	ttl time.Duration
}

func NewStore(db *gorm.DB, now func() time.Time, ttl time.Duration) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now, ttl: ttl}
}

// Issue replaces any outstanding code for the user with a fresh one.
func (s *Store) Issue(userID uuid.UUID) (models.UserOTP, error) {
	code, err := GenerateCode()
	if err != nil {
		return models.UserOTP{}, err
	}

	record := models.UserOTP{
		UserID:    userID,
		Code:      code,
		ExpiresAt: s.now().Add(s.ttl),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return models.UserOTP{}, err
	}
	return record, nil
}

// Active reports whether the user still has an outstanding code.
func (s *Store) Active(userID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.Model(&models.UserOTP{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Consume checks the submitted code against the stored one and deletes the
// row on success. The checks run in the same order for every flow: missing
// code, then exact mismatch, then expiry.
func (s *Store) Consume(tx *gorm.DB, userID uuid.UUID, code string) error {
	if tx == nil {
		tx = s.db
	}

	var record models.UserOTP
	if err := tx.Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoActiveCode
		}
		return err
	}

	if record.Code != code {
		return ErrInvalidCode
	}

	if !s.now().Before(record.ExpiresAt) {
		return ErrExpired
	}

	return tx.Delete(&models.UserOTP{}, "user_id = ?", userID).Error
}

// GenerateCode returns a random 6-digit numeric code.
func GenerateCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := int(buf[0])<<16 | int(buf[1])<<8 | int(buf[2])
	return fmt.Sprintf("%06d", code%1000000), nil
}
