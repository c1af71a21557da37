// internal/model/flashcard.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Grade is the user's self-assessed recall quality for a card.
type Grade int

const (
	GradeAgain Grade = iota // 0: no recall, restart
	GradeHard               // 1: recalled with difficulty
	GradeGood               // 2: recalled
	GradeEasy               // 3: recalled effortlessly
)

// Valid reports whether g is one of the four review grades.
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

// Correct reports whether the review counts as correct (Good or better).
func (g Grade) Correct() bool {
	return g >= GradeGood
}

// CardStatus is the learning state of a flashcard.
type CardStatus string

const (
	StatusNew       CardStatus = "new"
	StatusLearning  CardStatus = "learning"
	StatusReview    CardStatus = "review"
	StatusGraduated CardStatus = "graduated"
)

// Flashcard is the persisted spaced-repetition state of one atomic term.
type Flashcard struct {
	CardID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"card_id"`
	TermKey        string     `gorm:"not null;index:idx_term_path,unique" json:"term_key"`
	FilePath       string     `gorm:"not null;index:idx_term_path,unique" json:"file_path"`
	Status         CardStatus `gorm:"not null;default:new" json:"status"`
	EaseFactor     float64    `gorm:"not null" json:"ease_factor"` // [1.3, 2.5]
	IntervalDays   int        `gorm:"not null" json:"interval_days"`
	Repetitions    int        `gorm:"not null" json:"repetitions"` // consecutive non-failing reviews
	NextReviewAt   time.Time  `gorm:"not null;index" json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	TotalReviews   int        `gorm:"not null" json:"total_reviews"`
	CorrectReviews int        `gorm:"not null" json:"correct_reviews"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"-"`
}

func (Flashcard) TableName() string {
	return "flashcards"
}

// StudyCard pairs a flashcard with the definition content it tests.
type StudyCard struct {
	*Flashcard
	Word       string `json:"word"`
	Definition string `json:"definition"`
	LinkText   string `json:"link_text"`
}

// GradeCardRequest is the grading request DTO.
type GradeCardRequest struct {
	Grade *int `json:"grade" validate:"required,min=0,max=3"`
}
