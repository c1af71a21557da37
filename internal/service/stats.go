// internal/service/stats.go
//
// Pure statistics helpers over the session history and card set. Sessions
// are assumed sorted ascending by date, which is how the repository returns
// them.
package service

import (
	"math"
	"time"

	"defkeep/internal/model"
)

// recentSessions returns the last n sessions.
func recentSessions(sessions []*model.StudySession, n int) []*model.StudySession {
	if len(sessions) > n {
		sessions = sessions[len(sessions)-n:]
	}
	out := make([]*model.StudySession, len(sessions))
	copy(out, sessions)
	return out
}

// weeklyAverage is the mean daily card count over the last 7 recorded days,
// rounded to one decimal.
func weeklyAverage(sessions []*model.StudySession) float64 {
	if len(sessions) == 0 {
		return 0
	}
	week := sessions
	if len(week) > 7 {
		week = week[len(week)-7:]
	}
	total := 0
	for _, s := range week {
		total += s.TotalStudied()
	}
	return math.Round(float64(total)/7*10) / 10
}

// monthlyTotal sums the cards studied within the current calendar month.
func monthlyTotal(sessions []*model.StudySession, now time.Time) int {
	total := 0
	for _, s := range sessions {
		day, err := time.Parse(model.SessionDateLayout, s.Date)
		if err != nil {
			continue
		}
		if day.Year() == now.Year() && day.Month() == now.Month() {
			total += s.TotalStudied()
		}
	}
	return total
}

// currentStreak counts consecutive days with at least one card studied,
// walking backward from today and stopping at the first gap.
func currentStreak(sessions []*model.StudySession, now time.Time) int {
	studied := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		if s.TotalStudied() > 0 {
			studied[s.Date] = true
		}
	}

	streak := 0
	for {
		date := now.AddDate(0, 0, -streak).Format(model.SessionDateLayout)
		if !studied[date] {
			break
		}
		streak++
	}
	return streak
}

// longestStreak finds the best run of consecutive active days over all
// history. A gap of more than one day, or a recorded zero-activity day,
// breaks the run.
func longestStreak(sessions []*model.StudySession) int {
	best := 0
	run := 0
	var lastDay time.Time

	for _, s := range sessions {
		day, err := time.Parse(model.SessionDateLayout, s.Date)
		if err != nil {
			continue
		}
		if s.TotalStudied() == 0 {
			run = 0
			continue
		}
		if run > 0 && day.Sub(lastDay) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		lastDay = day
	}
	return best
}

// totalStudyMinutes converts the accumulated study seconds to minutes.
func totalStudyMinutes(sessions []*model.StudySession) int {
	seconds := 0
	for _, s := range sessions {
		seconds += s.TotalTimeSeconds
	}
	return int(math.Round(float64(seconds) / 60))
}

// averageAccuracy is the mean correct-review ratio over cards with at least
// one review, rounded to two decimals.
func averageAccuracy(cards []*model.StudyCard) float64 {
	total := 0.0
	n := 0
	for _, c := range cards {
		if c.TotalReviews > 0 {
			total += float64(c.CorrectReviews) / float64(c.TotalReviews)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(total/float64(n)*100) / 100
}
