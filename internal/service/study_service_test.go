// internal/service/study_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"defkeep/internal/config"
	"defkeep/internal/index"
	"defkeep/internal/model"
	"defkeep/internal/repository"
	"defkeep/internal/repository/mocks"
	"defkeep/internal/vault"
)

var studyNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// --- テストヘルパー関数 (インメモリDBセットアップ) ---
func setupStudyDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Flashcard{}, &model.StudySession{}))
	return db
}

func newTestStudyService(db *gorm.DB, idx *index.Index, store *vault.Store, cfg *config.Config) *studyService {
	return &studyService{
		db:       db,
		cardRepo: repository.NewGormFlashcardRepository(),
		sessRepo: repository.NewGormSessionRepository(),
		index:    idx,
		store:    store,
		cfg:      cfg,
		now:      func() time.Time { return studyNow },
		rng:      rand.New(rand.NewSource(42)),
	}
}

func studyCfg() *config.Config {
	return &config.Config{
		Flashcards: config.FlashcardsConfig{
			DailyNewCards:    20,
			DailyReviewLimit: 100,
			ExtraSessionSize: 30,
		},
	}
}

func atomicDef(key, path string) *model.Definition {
	return &model.Definition{
		Key:      key,
		Word:     key,
		Body:     "definition of " + key,
		FilePath: path,
		FileType: model.FileTypeAtomic,
		LinkText: path,
	}
}

func atomicIndex(defs ...*model.Definition) *index.Index {
	files := make(map[string][]*model.Definition, len(defs))
	for _, d := range defs {
		files[d.FilePath] = []*model.Definition{d}
	}
	idx := index.New()
	idx.RebuildAll(files)
	return idx
}

func storedCard(key, path string, status model.CardStatus, due, createdAt time.Time) *model.Flashcard {
	return &model.Flashcard{
		CardID:       uuid.New(),
		TermKey:      key,
		FilePath:     path,
		Status:       status,
		EaseFactor:   2.5,
		IntervalDays: 1,
		NextReviewAt: due,
		CreatedAt:    createdAt,
	}
}

// --- Test BuildTodayQueue ---
func Test_studyService_BuildTodayQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 期限切れレビューが新規カードより先、優先度順", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "a.md"),
			atomicDef("beta", "b.md"),
			atomicDef("gamma", "c.md"), // no stored state, becomes a new card
		)
		require.NoError(t, db.Create(storedCard("alpha", "a.md", model.StatusReview, studyNow.Add(-24*time.Hour), studyNow.Add(-240*time.Hour))).Error)
		require.NoError(t, db.Create(storedCard("beta", "b.md", model.StatusLearning, studyNow.Add(-48*time.Hour), studyNow.Add(-240*time.Hour))).Error)

		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		require.Len(t, queue, 3)
		// Learning outranks Review; New cards trail the due reviews.
		assert.Equal(t, "beta", queue[0].Word)
		assert.Equal(t, "alpha", queue[1].Word)
		assert.Equal(t, "gamma", queue[2].Word)
		assert.Equal(t, model.StatusNew, queue[2].Status)
	})

	t.Run("正常系: 新規カードは作成順", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(atomicDef("alpha", "a.md"), atomicDef("beta", "b.md"))
		// b.md was created first despite sorting after a.md by path.
		require.NoError(t, db.Create(storedCard("beta", "b.md", model.StatusNew, studyNow, studyNow.Add(-72*time.Hour))).Error)
		require.NoError(t, db.Create(storedCard("alpha", "a.md", model.StatusNew, studyNow, studyNow.Add(-24*time.Hour))).Error)

		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		require.Len(t, queue, 2)
		assert.Equal(t, "beta", queue[0].Word)
		assert.Equal(t, "alpha", queue[1].Word)
	})

	t.Run("正常系: まだ期限が来ていないカードは含まれない", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(atomicDef("alpha", "a.md"))
		require.NoError(t, db.Create(storedCard("alpha", "a.md", model.StatusReview, studyNow.Add(24*time.Hour), studyNow)).Error)

		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		assert.Empty(t, queue)
	})

	t.Run("正常系: 上限0ならキューは空", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(atomicDef("alpha", "a.md"), atomicDef("beta", "b.md"))
		require.NoError(t, db.Create(storedCard("alpha", "a.md", model.StatusReview, studyNow.Add(-24*time.Hour), studyNow)).Error)

		cfg := studyCfg()
		cfg.Flashcards.DailyNewCards = 0
		cfg.Flashcards.DailyReviewLimit = 0
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), cfg)
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		assert.Empty(t, queue)
	})

	t.Run("正常系: 当日の実績が上限から差し引かれる", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "a.md"),
			atomicDef("beta", "b.md"),
			atomicDef("gamma", "c.md"),
		)
		require.NoError(t, db.Create(storedCard("alpha", "a.md", model.StatusReview, studyNow.Add(-24*time.Hour), studyNow)).Error)
		require.NoError(t, db.Create(&model.StudySession{
			Date:               studyNow.Format(model.SessionDateLayout),
			NewCardsStudied:    0,
			ReviewCardsStudied: 5,
		}).Error)

		cfg := studyCfg()
		cfg.Flashcards.DailyNewCards = 1
		cfg.Flashcards.DailyReviewLimit = 5 // already consumed
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), cfg)
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		require.Len(t, queue, 1, "reviews are exhausted, one new slot remains")
		assert.Equal(t, model.StatusNew, queue[0].Status)
	})

	t.Run("異常系: リポジトリでDBエラー", func(t *testing.T) {
		db := setupStudyDB(t)
		mockRepo := new(mocks.FlashcardRepository)
		mockRepo.On("FindAll", ctx, mock.Anything).
			Return(nil, errors.New("db error loading flashcards")).Once()

		svc := newTestStudyService(db, atomicIndex(atomicDef("alpha", "a.md")), vault.NewStore(t.TempDir()), studyCfg())
		svc.cardRepo = mockRepo

		queue, err := svc.BuildTodayQueue(ctx)
		require.Error(t, err)
		assert.Nil(t, queue)
		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", appErr.Detail.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("正常系: study_scope外のファイルは対象外", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "glossary/a.md"),
			atomicDef("beta", "notes/b.md"),
		)

		cfg := studyCfg()
		cfg.Flashcards.StudyScope = []string{"glossary/"}
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), cfg)
		queue, err := svc.BuildTodayQueue(ctx)

		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, "alpha", queue[0].Word)
	})
}

// --- Test BuildExtraQueue ---
func Test_studyService_BuildExtraQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 日次上限を無視する", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "a.md"),
			atomicDef("beta", "b.md"),
			atomicDef("gamma", "c.md"),
		)

		cfg := studyCfg()
		cfg.Flashcards.DailyNewCards = 0
		cfg.Flashcards.DailyReviewLimit = 0
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), cfg)
		queue, err := svc.BuildExtraQueue(ctx)

		require.NoError(t, err)
		assert.Len(t, queue, 3)
	})

	t.Run("正常系: 並行リクエストでも安全", func(t *testing.T) {
		db := setupStudyDB(t)
		defs := make([]*model.Definition, 0, 10)
		for i := 0; i < 10; i++ {
			defs = append(defs, atomicDef(fmt.Sprintf("term%02d", i), fmt.Sprintf("terms/t%02d.md", i)))
		}
		svc := newTestStudyService(db, atomicIndex(defs...), vault.NewStore(t.TempDir()), studyCfg())

		// The shuffle shares one rand.Rand across handler goroutines.
		var wg sync.WaitGroup
		errs := make([]error, 4)
		queues := make([][]*model.StudyCard, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				queues[i], errs[i] = svc.BuildExtraQueue(ctx)
			}(i)
		}
		wg.Wait()

		for i := 0; i < 4; i++ {
			require.NoError(t, errs[i])
			assert.Len(t, queues[i], 10)
		}
	})

	t.Run("正常系: セッション上限で切り詰める", func(t *testing.T) {
		db := setupStudyDB(t)
		defs := make([]*model.Definition, 0, 35)
		for i := 0; i < 35; i++ {
			path := fmt.Sprintf("terms/t%02d.md", i)
			defs = append(defs, atomicDef(fmt.Sprintf("term%02d", i), path))
		}
		idx := atomicIndex(defs...)

		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())
		queue, err := svc.BuildExtraQueue(ctx)

		require.NoError(t, err)
		assert.Len(t, queue, 30)
	})
}

// --- Test Grade ---
func Test_studyService_Grade(t *testing.T) {
	ctx := context.Background()

	t.Run("異常系: 不正なグレード", func(t *testing.T) {
		db := setupStudyDB(t)
		svc := newTestStudyService(db, atomicIndex(), vault.NewStore(t.TempDir()), studyCfg())

		_, err := svc.Grade(ctx, "alpha", model.Grade(5))
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
	})

	t.Run("異常系: 未登録のキー", func(t *testing.T) {
		db := setupStudyDB(t)
		svc := newTestStudyService(db, atomicIndex(), vault.NewStore(t.TempDir()), studyCfg())

		_, err := svc.Grade(ctx, "missing", model.GradeGood)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("異常系: 統合ファイルの用語は学習対象外", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := index.New()
		idx.RebuildAll(map[string][]*model.Definition{
			"glossary.md": {{
				Key: "alpha", Word: "alpha",
				FilePath: "glossary.md", FileType: model.FileTypeConsolidated,
			}},
		})
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())

		_, err := svc.Grade(ctx, "alpha", model.GradeGood)
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrInvalidInput))
	})

	t.Run("正常系: 初回グレードでカードとセッションが保存される", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(atomicDef("alpha", "a.md"))
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())

		updated, err := svc.Grade(ctx, "alpha", model.GradeGood)
		require.NoError(t, err)
		assert.Equal(t, model.StatusReview, updated.Status)
		assert.Equal(t, 1, updated.IntervalDays)
		assert.Equal(t, 1, updated.Repetitions)
		assert.Equal(t, 1, updated.TotalReviews)
		assert.Equal(t, 1, updated.CorrectReviews)
		assert.Equal(t, studyNow.Add(24*time.Hour), updated.NextReviewAt)

		var stored model.Flashcard
		require.NoError(t, db.Where("term_key = ? AND file_path = ?", "alpha", "a.md").First(&stored).Error)
		assert.Equal(t, model.StatusReview, stored.Status)

		var session model.StudySession
		require.NoError(t, db.First(&session, "date = ?", studyNow.Format(model.SessionDateLayout)).Error)
		assert.Equal(t, 1, session.NewCardsStudied)
		assert.Equal(t, 0, session.ReviewCardsStudied)
	})

	t.Run("正常系: 2回目以降はレビューとして集計される", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(atomicDef("alpha", "a.md"))
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())

		_, err := svc.Grade(ctx, "alpha", model.GradeGood)
		require.NoError(t, err)
		updated, err := svc.Grade(ctx, "alpha", model.GradeAgain)
		require.NoError(t, err)

		assert.Equal(t, model.StatusLearning, updated.Status)
		assert.Equal(t, 0, updated.Repetitions)
		assert.Equal(t, 2, updated.TotalReviews)
		assert.Equal(t, 1, updated.CorrectReviews)

		var session model.StudySession
		require.NoError(t, db.First(&session, "date = ?", studyNow.Format(model.SessionDateLayout)).Error)
		assert.Equal(t, 1, session.NewCardsStudied)
		assert.Equal(t, 1, session.ReviewCardsStudied)
	})

	t.Run("正常系: 並行グレードでもカウントが失われない", func(t *testing.T) {
		db := setupStudyDB(t)
		defs := make([]*model.Definition, 0, 4)
		for i := 0; i < 4; i++ {
			defs = append(defs, atomicDef(fmt.Sprintf("term%d", i), fmt.Sprintf("t%d.md", i)))
		}
		svc := newTestStudyService(db, atomicIndex(defs...), vault.NewStore(t.TempDir()), studyCfg())

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Grade(ctx, fmt.Sprintf("term%d", i), model.GradeGood)
			}(i)
		}
		wg.Wait()
		for i := 0; i < 4; i++ {
			require.NoError(t, errs[i])
		}

		var session model.StudySession
		require.NoError(t, db.First(&session, "date = ?", studyNow.Format(model.SessionDateLayout)).Error)
		assert.Equal(t, 4, session.NewCardsStudied, "every grade lands exactly one increment")
		assert.Equal(t, 0, session.ReviewCardsStudied)
	})

	t.Run("正常系: エイリアスでもグレードできる", func(t *testing.T) {
		db := setupStudyDB(t)
		def := atomicDef("alpha", "a.md")
		def.Aliases = []string{"first"}
		idx := atomicIndex(def)
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())

		_, err := svc.Grade(ctx, "FIRST", model.GradeEasy)
		require.NoError(t, err)

		// State is keyed by the canonical term, not the alias.
		var stored model.Flashcard
		require.NoError(t, db.Where("term_key = ?", "alpha").First(&stored).Error)
		assert.Equal(t, 4, stored.IntervalDays)
	})
}

// --- Test Stats ---
func Test_studyService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: ステータス別集計と当日実績", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "a.md"),
			atomicDef("beta", "b.md"),
			atomicDef("gamma", "c.md"),
			atomicDef("delta", "d.md"), // no stored state
		)
		learning := storedCard("alpha", "a.md", model.StatusLearning, studyNow, studyNow)
		learning.TotalReviews = 2
		learning.CorrectReviews = 1
		review := storedCard("beta", "b.md", model.StatusReview, studyNow, studyNow)
		review.TotalReviews = 4
		review.CorrectReviews = 4
		graduated := storedCard("gamma", "c.md", model.StatusGraduated, studyNow, studyNow)
		require.NoError(t, db.Create(learning).Error)
		require.NoError(t, db.Create(review).Error)
		require.NoError(t, db.Create(graduated).Error)

		require.NoError(t, db.Create(&model.StudySession{
			Date:               studyNow.Format(model.SessionDateLayout),
			NewCardsStudied:    2,
			ReviewCardsStudied: 3,
			TotalTimeSeconds:   600,
		}).Error)

		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), studyCfg())
		stats, err := svc.Stats(ctx)

		require.NoError(t, err)
		assert.Equal(t, 4, stats.TotalCards)
		assert.Equal(t, 1, stats.NewCards)
		assert.Equal(t, 1, stats.LearningCards)
		assert.Equal(t, 1, stats.ReviewCards)
		assert.Equal(t, 1, stats.GraduatedCards)
		assert.Equal(t, 2, stats.TodayNewCards)
		assert.Equal(t, 3, stats.TodayReviewCards)
		assert.Equal(t, 5, stats.MonthlyTotal)
		assert.Equal(t, 1, stats.CurrentStreak)
		assert.Equal(t, 10, stats.TotalStudyTime)
		// (0.5 + 1.0) / 2
		assert.Equal(t, 0.75, stats.AverageAccuracy)
	})

	t.Run("異常系: セッション履歴の読み込み失敗", func(t *testing.T) {
		db := setupStudyDB(t)
		mockSessRepo := new(mocks.SessionRepository)
		mockSessRepo.On("FindAll", ctx, mock.Anything).
			Return(nil, errors.New("db error loading sessions")).Once()

		svc := newTestStudyService(db, atomicIndex(), vault.NewStore(t.TempDir()), studyCfg())
		svc.sessRepo = mockSessRepo

		_, err := svc.Stats(ctx)
		require.Error(t, err)
		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", appErr.Detail.Code)
		mockSessRepo.AssertExpectations(t)
	})

	t.Run("正常系: 統計はstudy_scopeの影響を受けない", func(t *testing.T) {
		db := setupStudyDB(t)
		idx := atomicIndex(
			atomicDef("alpha", "glossary/a.md"),
			atomicDef("beta", "notes/b.md"),
		)

		cfg := studyCfg()
		cfg.Flashcards.StudyScope = []string{"glossary/"}
		svc := newTestStudyService(db, idx, vault.NewStore(t.TempDir()), cfg)
		stats, err := svc.Stats(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalCards)
	})
}

// --- Test seeding from a frontmatter flashcard block ---
func Test_studyService_SeedFromHeader(t *testing.T) {
	ctx := context.Background()
	db := setupStudyDB(t)
	idx := atomicIndex(atomicDef("alpha", "a.md"))

	store := vault.NewStore(t.TempDir())
	store.RefreshHeader("a.md", "---\n"+
		"def-type: atomic\n"+
		"flashcard:\n"+
		"  status: review\n"+
		"  easeFactor: 2.3\n"+
		"  interval: 6\n"+
		"  repetitions: 2\n"+
		"  nextReviewDate: 1748000000000\n"+
		"  totalReviews: 5\n"+
		"  correctReviews: 4\n"+
		"---\nbody\n")

	svc := newTestStudyService(db, idx, store, studyCfg())
	queue, err := svc.BuildTodayQueue(ctx)

	require.NoError(t, err)
	require.Len(t, queue, 1)
	card := queue[0]
	assert.Equal(t, model.StatusReview, card.Status)
	assert.InDelta(t, 2.3, card.EaseFactor, 1e-9)
	assert.Equal(t, 6, card.IntervalDays)
	assert.Equal(t, 2, card.Repetitions)
	assert.Equal(t, time.UnixMilli(1748000000000), card.NextReviewAt)
	assert.Equal(t, 5, card.TotalReviews)
	assert.Equal(t, 4, card.CorrectReviews)
}
