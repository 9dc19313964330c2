package reconcile

import (
	"context"

	"github.com/textmint/textmint/internal/domain"
	"gorm.io/gorm"
)

// SessionRepository handles database operations for local session mirrors.
// Every read and write is filtered by session id AND owner id so that a
// non-owned id behaves exactly like a missing one.
type SessionRepository interface {
	// Create inserts a new session row
	Create(ctx context.Context, s *domain.Session) error

	// GetOwned retrieves a session by id restricted to the owner
	GetOwned(ctx context.Context, id, userID int64) (*domain.Session, error)

	// ListByUser retrieves all sessions owned by userID
	ListByUser(ctx context.Context, userID int64) ([]domain.Session, error)

	// CountByUser returns the number of sessions owned by userID
	CountByUser(ctx context.Context, userID int64) (int64, error)

	// UpdateFields applies the given column set to an owned session
	UpdateFields(ctx context.Context, id, userID int64, fields map[string]interface{}) error

	// DeleteOwned removes an owned session row
	DeleteOwned(ctx context.Context, id, userID int64) error
}

// GormSessionRepository is the GORM implementation of SessionRepository.
type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormSessionRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Session, error) {
	var rows []domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *GormSessionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

func (r *GormSessionRepository) UpdateFields(ctx context.Context, id, userID int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields).Error
}

func (r *GormSessionRepository) DeleteOwned(ctx context.Context, id, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
