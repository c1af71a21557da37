// internal/repository/session_repository.go
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"defkeep/internal/model"
)

type SessionRepository interface {
	FindByDate(ctx context.Context, db *gorm.DB, date string) (*model.StudySession, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.StudySession, error)
	IncrementCounts(ctx context.Context, tx *gorm.DB, date string, newDelta, reviewDelta int) error
}

type gormSessionRepository struct{}

func NewGormSessionRepository() SessionRepository {
	return &gormSessionRepository{}
}

func (r *gormSessionRepository) FindByDate(ctx context.Context, db *gorm.DB, date string) (*model.StudySession, error) {
	var session model.StudySession
	result := db.WithContext(ctx).Where("date = ?", date).First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &session, nil
}

func (r *gormSessionRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.StudySession, error) {
	var sessions []*model.StudySession
	result := db.WithContext(ctx).Order("date ASC").Find(&sessions)
	if result.Error != nil {
		return nil, result.Error
	}
	return sessions, nil
}

// IncrementCounts adds the deltas to the row for date, inserting it first if
// the day has no row yet. The addition runs inside the UPDATE, so concurrent
// callers cannot lose an increment to a stale read.
func (r *gormSessionRepository) IncrementCounts(ctx context.Context, tx *gorm.DB, date string, newDelta, reviewDelta int) error {
	session := &model.StudySession{
		Date:               date,
		NewCardsStudied:    newDelta,
		ReviewCardsStudied: reviewDelta,
	}
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"new_cards_studied":    gorm.Expr("new_cards_studied + ?", newDelta),
			"review_cards_studied": gorm.Expr("review_cards_studied + ?", reviewDelta),
		}),
	}).Create(session)
	return result.Error
}
