// internal/model/session.go
package model

import "time"

// SessionDateLayout is the calendar-day key format for study sessions.
const SessionDateLayout = "2006-01-02"

// StudySession counts the cards consumed on one calendar day.
// There is at most one row per date; counters only ever increment.
type StudySession struct {
	Date               string    `gorm:"primaryKey;size:10" json:"date"` // YYYY-MM-DD
	NewCardsStudied    int       `gorm:"not null;default:0" json:"new_cards_studied"`
	ReviewCardsStudied int       `gorm:"not null;default:0" json:"review_cards_studied"`
	TotalTimeSeconds   int       `gorm:"not null;default:0" json:"total_time_seconds"`
	CreatedAt          time.Time `json:"-"`
	UpdatedAt          time.Time `json:"-"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}

// TotalStudied is the day's combined card count.
func (s *StudySession) TotalStudied() int {
	return s.NewCardsStudied + s.ReviewCardsStudied
}

// FlashcardStats is the statistics response DTO.
type FlashcardStats struct {
	TotalCards       int             `json:"total_cards"`
	NewCards         int             `json:"new_cards"`
	LearningCards    int             `json:"learning_cards"`
	ReviewCards      int             `json:"review_cards"`
	GraduatedCards   int             `json:"graduated_cards"`
	TodayNewCards    int             `json:"today_new_cards"`
	TodayReviewCards int             `json:"today_review_cards"`
	RecentSessions   []*StudySession `json:"recent_sessions"`
	WeeklyAverage    float64         `json:"weekly_average"`     // cards/day over the last 7 days, 1 decimal
	MonthlyTotal     int             `json:"monthly_total"`      // cards studied this calendar month
	CurrentStreak    int             `json:"current_streak"`     // consecutive days ending today
	LongestStreak    int             `json:"longest_streak"`     // best run over all history
	TotalStudyTime   int             `json:"total_study_time"`   // minutes, rounded
	AverageAccuracy  float64         `json:"average_accuracy"`   // mean correct/total, 2 decimals
}
