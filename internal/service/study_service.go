// internal/service/study_service.go
package service

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"defkeep/internal/config"
	"defkeep/internal/index"
	"defkeep/internal/middleware"
	"defkeep/internal/model"
	"defkeep/internal/repository"
	"defkeep/internal/scheduler"
	"defkeep/internal/vault"
)

// StudyService builds study queues, grades cards, and reports statistics.
type StudyService interface {
	BuildTodayQueue(ctx context.Context) ([]*model.StudyCard, error)
	BuildExtraQueue(ctx context.Context) ([]*model.StudyCard, error)
	Grade(ctx context.Context, termKey string, grade model.Grade) (*model.Flashcard, error)
	Stats(ctx context.Context) (*model.FlashcardStats, error)
}

type studyService struct {
	db       *gorm.DB
	cardRepo repository.FlashcardRepository
	sessRepo repository.SessionRepository
	index    *index.Index
	store    *vault.Store
	cfg      *config.Config

	now func() time.Time

	// rand.Rand is not safe for concurrent use; handlers run on
	// concurrent goroutines.
	rngMu sync.Mutex
	rng   *rand.Rand // injectable randomness for the extra-session shuffle

	// Grading is serialized: sqlite has a single writer, and the session
	// counter increments must not interleave.
	gradeMu sync.Mutex
}

func NewStudyService(db *gorm.DB, cardRepo repository.FlashcardRepository, sessRepo repository.SessionRepository, idx *index.Index, store *vault.Store, cfg *config.Config) StudyService {
	return &studyService{
		db:       db,
		cardRepo: cardRepo,
		sessRepo: sessRepo,
		index:    idx,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// BuildTodayQueue assembles today's bounded queue: due review cards first
// (most overdue leading), then the oldest New cards, each portion capped by
// the daily limits minus what today's session already consumed.
func (s *studyService) BuildTodayQueue(ctx context.Context) ([]*model.StudyCard, error) {
	logger := middleware.GetLogger(ctx)
	now := s.now()

	cards, err := s.eligibleCards(ctx, true)
	if err != nil {
		return nil, err
	}

	session, err := s.todaySession(ctx)
	if err != nil {
		logger.Error("Failed to load today's session", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load today's session.", "", err)
	}

	var due, fresh []*model.StudyCard
	for _, card := range cards {
		if card.Status == model.StatusNew {
			fresh = append(fresh, card)
		} else if scheduler.IsDue(card.Flashcard, now) {
			due = append(due, card)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return scheduler.Priority(due[i].Flashcard, now) < scheduler.Priority(due[j].Flashcard, now)
	})
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
	})

	due = capQueue(due, s.cfg.Flashcards.DailyReviewLimit-session.ReviewCardsStudied)
	fresh = capQueue(fresh, s.cfg.Flashcards.DailyNewCards-session.NewCardsStudied)

	queue := append(due, fresh...)
	logger.Info("Study queue built", "reviews", len(due), "new", len(fresh))
	return queue, nil
}

// BuildExtraQueue ignores the daily caps and the review/new split: every
// eligible card is gathered, shuffled uniformly, and truncated to the extra
// session ceiling. Grading extra cards still increments the session counters
// so streak tracking stays truthful.
func (s *studyService) BuildExtraQueue(ctx context.Context) ([]*model.StudyCard, error) {
	cards, err := s.eligibleCards(ctx, true)
	if err != nil {
		return nil, err
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	s.rngMu.Unlock()

	if limit := s.cfg.Flashcards.ExtraSessionSize; len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

// Grade applies one review grade to the card for termKey, persisting the new
// state and today's session counters in one transaction. An unknown key is
// the caller's signal to skip the card, not a fatal condition.
func (s *studyService) Grade(ctx context.Context, termKey string, grade model.Grade) (*model.Flashcard, error) {
	logger := middleware.GetLogger(ctx).With("term_key", termKey)

	if !grade.Valid() {
		return nil, model.NewAppError("INVALID_GRADE", "Grade must be between 0 (Again) and 3 (Easy).", "grade", model.ErrInvalidInput)
	}

	def, ok := s.index.Lookup(strings.ToLower(termKey))
	if !ok {
		return nil, model.NewAppError("NOT_FOUND", "No definition found for the given key.", "key", model.ErrNotFound)
	}
	if def.FileType != model.FileTypeAtomic {
		return nil, model.NewAppError("NOT_STUDYABLE", "Only atomic terms participate in flashcard study.", "key", model.ErrInvalidInput)
	}

	s.gradeMu.Lock()
	defer s.gradeMu.Unlock()

	now := s.now()
	var updated *model.Flashcard

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card, err := s.cardRepo.FindByTermAndPath(ctx, tx, def.Key, def.FilePath)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			logger.Error("Error finding flashcard in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load review state.", "", err)
		}
		if card == nil {
			// Missing state means this is a new card.
			card = s.seedCard(def, now)
		}

		wasNew := card.Status == model.StatusNew
		updated = scheduler.Update(card, grade, now)

		if err := s.cardRepo.Upsert(ctx, tx, updated); err != nil {
			logger.Error("Error persisting review state", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to persist review state.", "", err)
		}
		if err := s.recordOutcome(ctx, tx, wasNew); err != nil {
			logger.Error("Error updating study session", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to update study session.", "", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Card graded", "grade", int(grade), "status", updated.Status, "interval_days", updated.IntervalDays)
	return updated, nil
}

// Stats aggregates the card set and session history into the statistics DTO.
// Statistics cover all atomic terms regardless of study scope.
func (s *studyService) Stats(ctx context.Context) (*model.FlashcardStats, error) {
	logger := middleware.GetLogger(ctx)

	cards, err := s.eligibleCards(ctx, false)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessRepo.FindAll(ctx, s.db)
	if err != nil {
		logger.Error("Failed to load session history", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load session history.", "", err)
	}

	now := s.now()
	stats := &model.FlashcardStats{
		TotalCards:      len(cards),
		RecentSessions:  recentSessions(sessions, 30),
		WeeklyAverage:   weeklyAverage(sessions),
		MonthlyTotal:    monthlyTotal(sessions, now),
		CurrentStreak:   currentStreak(sessions, now),
		LongestStreak:   longestStreak(sessions),
		TotalStudyTime:  totalStudyMinutes(sessions),
		AverageAccuracy: averageAccuracy(cards),
	}
	for _, card := range cards {
		switch card.Status {
		case model.StatusNew:
			stats.NewCards++
		case model.StatusLearning:
			stats.LearningCards++
		case model.StatusReview:
			stats.ReviewCards++
		case model.StatusGraduated:
			stats.GraduatedCards++
		}
	}

	today := now.Format(model.SessionDateLayout)
	for _, sess := range sessions {
		if sess.Date == today {
			stats.TodayNewCards = sess.NewCardsStudied
			stats.TodayReviewCards = sess.ReviewCardsStudied
			break
		}
	}
	return stats, nil
}

// eligibleCards returns one study card per atomic file, pairing each term
// with its persisted review state or a synthesized new-card state. When
// scoped is true the configured study scope filter applies.
func (s *studyService) eligibleCards(ctx context.Context, scoped bool) ([]*model.StudyCard, error) {
	logger := middleware.GetLogger(ctx)
	now := s.now()

	stored, err := s.cardRepo.FindAll(ctx, s.db)
	if err != nil {
		logger.Error("Failed to load flashcards", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "Failed to load review state.", "", err)
	}
	byPath := make(map[string]*model.Flashcard, len(stored))
	for _, card := range stored {
		byPath[card.FilePath] = card
	}

	var cards []*model.StudyCard
	for _, path := range s.index.FilesOfType(model.FileTypeAtomic) {
		if scoped && !s.inScope(path) {
			continue
		}
		def, ok := s.index.FirstOfFile(path)
		if !ok {
			continue
		}

		card := byPath[path]
		if card == nil {
			card = s.seedCard(def, now)
		}
		cards = append(cards, &model.StudyCard{
			Flashcard:  card,
			Word:       def.Word,
			Definition: def.Body,
			LinkText:   def.LinkText,
		})
	}
	return cards, nil
}

// seedCard synthesizes review state for a term with none persisted. A
// flashcard block carried in the file's frontmatter (state written by an
// earlier tool) seeds the card; otherwise it starts as a default new card.
func (s *studyService) seedCard(def *model.Definition, now time.Time) *model.Flashcard {
	card := scheduler.NewCard(def.Key, def.FilePath, now)
	header := s.store.Header(def.FilePath)
	if header == nil || header.Flashcard == nil {
		return card
	}

	fm := header.Flashcard
	if v, ok := headerString(fm, "status"); ok {
		switch status := model.CardStatus(v); status {
		case model.StatusNew, model.StatusLearning, model.StatusReview, model.StatusGraduated:
			card.Status = status
		}
	}
	if v, ok := headerFloat(fm, "easeFactor"); ok && v > 0 {
		card.EaseFactor = v
	}
	if v, ok := headerInt(fm, "interval"); ok && v > 0 {
		card.IntervalDays = v
	}
	if v, ok := headerInt(fm, "repetitions"); ok && v >= 0 {
		card.Repetitions = v
	}
	if v, ok := headerInt(fm, "nextReviewDate"); ok && v > 0 {
		card.NextReviewAt = time.UnixMilli(int64(v))
	}
	if v, ok := headerInt(fm, "createdDate"); ok && v > 0 {
		card.CreatedAt = time.UnixMilli(int64(v))
	}
	if v, ok := headerInt(fm, "lastReviewDate"); ok && v > 0 {
		at := time.UnixMilli(int64(v))
		card.LastReviewedAt = &at
	}
	if v, ok := headerInt(fm, "totalReviews"); ok && v >= 0 {
		card.TotalReviews = v
	}
	if v, ok := headerInt(fm, "correctReviews"); ok && v >= 0 {
		card.CorrectReviews = v
	}
	return card
}

// recordOutcome bumps today's session counters with a single conflict-upsert,
// creating the row on the first grade of the day. The increment happens in
// SQL, so there is no read-modify-write window between concurrent grades.
func (s *studyService) recordOutcome(ctx context.Context, tx *gorm.DB, wasNewCard bool) error {
	today := s.now().Format(model.SessionDateLayout)
	if wasNewCard {
		return s.sessRepo.IncrementCounts(ctx, tx, today, 1, 0)
	}
	return s.sessRepo.IncrementCounts(ctx, tx, today, 0, 1)
}

func (s *studyService) todaySession(ctx context.Context) (*model.StudySession, error) {
	today := s.now().Format(model.SessionDateLayout)
	session, err := s.sessRepo.FindByDate(ctx, s.db, today)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &model.StudySession{Date: today}, nil
		}
		return nil, err
	}
	return session, nil
}

// inScope reports whether path falls under the configured study scope. An
// entry ending in "/" is a folder prefix; anything else matches the exact
// file or acts as a directory prefix. Empty scope means unrestricted.
func (s *studyService) inScope(path string) bool {
	scope := s.cfg.Flashcards.StudyScope
	if len(scope) == 0 {
		return true
	}
	for _, entry := range scope {
		if entry == "" {
			continue
		}
		if strings.HasSuffix(entry, "/") {
			if strings.HasPrefix(path, entry) {
				return true
			}
			continue
		}
		if path == entry || strings.HasPrefix(path, entry+"/") {
			return true
		}
	}
	return false
}

func capQueue(cards []*model.StudyCard, remaining int) []*model.StudyCard {
	if remaining < 0 {
		remaining = 0
	}
	if len(cards) > remaining {
		cards = cards[:remaining]
	}
	return cards
}

func headerString(m map[string]any, key string) (string, bool) {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func headerInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func headerFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
