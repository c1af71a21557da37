// internal/scheduler/sm2.go
//
// Package scheduler implements the SM-2 variant that drives flashcard
// review. Every function is pure: state in, state out, explicit clock.
// Persistence is the caller's responsibility.
package scheduler

import (
	"math"
	"time"

	"github.com/google/uuid"

	"defkeep/internal/model"
)

const (
	initialEase = 2.5
	minEase     = 1.3
	maxEase     = 2.5

	easePenaltyHard = 0.15
	easePenaltyGood = 0.02
	easeBonusEasy   = 0.15

	// A card graduates once it has this many consecutive successes and at
	// least this interval.
	graduationReps     = 2
	graduationInterval = 21

	msPerDay = 24 * 60 * 60 * 1000
)

// NewCard returns the initial review state for a term. A brand-new card is
// due immediately.
func NewCard(termKey, filePath string, now time.Time) *model.Flashcard {
	return &model.Flashcard{
		CardID:       uuid.New(),
		TermKey:      termKey,
		FilePath:     filePath,
		Status:       model.StatusNew,
		EaseFactor:   initialEase,
		IntervalDays: 1,
		Repetitions:  0,
		NextReviewAt: now,
		CreatedAt:    now,
	}
}

// Update applies one review grade and returns the successor state. The input
// card is not modified.
func Update(card *model.Flashcard, grade model.Grade, now time.Time) *model.Flashcard {
	next := *card
	next.TotalReviews++
	reviewed := now
	next.LastReviewedAt = &reviewed
	if grade.Correct() {
		next.CorrectReviews++
	}

	switch grade {
	case model.GradeAgain:
		next.Repetitions = 0
		next.IntervalDays = 1
		next.Status = model.StatusLearning

	case model.GradeHard:
		next.EaseFactor = math.Max(minEase, next.EaseFactor-easePenaltyHard)
		if next.Repetitions == 0 {
			next.Repetitions = 1
			next.IntervalDays = 1
		} else {
			next.IntervalDays = max(1, int(math.Round(float64(next.IntervalDays)*1.2)))
		}
		next.Status = model.StatusLearning

	case model.GradeGood:
		next.Repetitions++
		next.EaseFactor = math.Max(minEase, next.EaseFactor-easePenaltyGood)
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(next.IntervalDays) * next.EaseFactor))
		}
		next.Status = successorStatus(&next)

	case model.GradeEasy:
		next.Repetitions++
		next.EaseFactor = math.Min(maxEase, next.EaseFactor+easeBonusEasy)
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 4
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(next.IntervalDays) * next.EaseFactor))
		}
		next.Status = successorStatus(&next)
	}

	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * 24 * time.Hour)
	return &next
}

func successorStatus(card *model.Flashcard) model.CardStatus {
	if card.Repetitions >= graduationReps && card.IntervalDays >= graduationInterval {
		return model.StatusGraduated
	}
	return model.StatusReview
}

// IsDue reports whether the card's next review time has passed.
func IsDue(card *model.Flashcard, now time.Time) bool {
	return card.NextReviewAt.IsZero() || !card.NextReviewAt.After(now)
}

// Priority returns a sortable review priority; lower sorts first. Status
// dominates (New < Learning < Review < Graduated); within a status tier,
// more-overdue cards sort earlier.
func Priority(card *model.Flashcard, now time.Time) float64 {
	overdueMs := 0.0
	if !card.NextReviewAt.IsZero() && now.After(card.NextReviewAt) {
		overdueMs = float64(now.Sub(card.NextReviewAt).Milliseconds())
	}
	return statusBase(card.Status) - overdueMs/msPerDay
}

func statusBase(status model.CardStatus) float64 {
	switch status {
	case model.StatusNew:
		return 1000
	case model.StatusLearning:
		return 2000
	case model.StatusReview:
		return 3000
	case model.StatusGraduated:
		return 4000
	default:
		return 4000
	}
}
