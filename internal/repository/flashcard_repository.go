// internal/repository/flashcard_repository.go
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"defkeep/internal/model"
)

type FlashcardRepository interface {
	FindByTermAndPath(ctx context.Context, db *gorm.DB, termKey, filePath string) (*model.Flashcard, error)
	FindAll(ctx context.Context, db *gorm.DB) ([]*model.Flashcard, error)
	Upsert(ctx context.Context, tx *gorm.DB, card *model.Flashcard) error
	DeleteByPath(ctx context.Context, tx *gorm.DB, filePath string) error
}

type gormFlashcardRepository struct{}

func NewGormFlashcardRepository() FlashcardRepository {
	return &gormFlashcardRepository{}
}

func (r *gormFlashcardRepository) FindByTermAndPath(ctx context.Context, db *gorm.DB, termKey, filePath string) (*model.Flashcard, error) {
	var card model.Flashcard
	result := db.WithContext(ctx).
		Where("term_key = ? AND file_path = ?", termKey, filePath).
		First(&card)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, result.Error
	}
	return &card, nil
}

func (r *gormFlashcardRepository) FindAll(ctx context.Context, db *gorm.DB) ([]*model.Flashcard, error) {
	var cards []*model.Flashcard
	result := db.WithContext(ctx).Order("file_path ASC").Find(&cards)
	if result.Error != nil {
		return nil, result.Error
	}
	return cards, nil
}

func (r *gormFlashcardRepository) Upsert(ctx context.Context, tx *gorm.DB, card *model.Flashcard) error {
	// Save inserts or updates based on the primary key; CardID is set by
	// the service layer before the first write.
	result := tx.WithContext(ctx).Save(card)
	return result.Error
}

func (r *gormFlashcardRepository) DeleteByPath(ctx context.Context, tx *gorm.DB, filePath string) error {
	result := tx.WithContext(ctx).Where("file_path = ?", filePath).Delete(&model.Flashcard{})
	return result.Error
}
