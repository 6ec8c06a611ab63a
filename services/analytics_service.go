package services

import (
	"context"
	"time"

	"github.com/maskyy/caketruth/apperr"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/maskyy/caketruth/utils"
	"gorm.io/gorm"
)

const (
	dateLayout        = "2006-01-02"
	maxSummaryDays    = 366
	defaultSummaryLen = 7
)

// DaySummary totals one day of a user's diary snapshots.
type DaySummary struct {
	Date    string `json:"date"`
	Entries int    `json:"entries"`
	models.NutrientProfile
}

type DiarySummary struct {
	From  string                 `json:"from"`
	To    string                 `json:"to"`
	Total models.NutrientProfile `json:"total"`
	Days  []DaySummary           `json:"days"`
}

// AnalyticsService aggregates diary snapshots per day. Totals come from the
// stored snapshots, so later food edits never change a past day.
type AnalyticsService struct{ db *gorm.DB }

func NewAnalyticsService(db *gorm.DB) *AnalyticsService { return &AnalyticsService{db: db} }

// DailyTotals returns one row per day in [from, to], including empty days.
func (s *AnalyticsService) DailyTotals(ctx context.Context, p policy.Principal, from, to time.Time) (*DiarySummary, error) {
	if err := policy.Authorize(p, policy.List, policy.Diary); err != nil {
		return nil, err
	}
	from, to = dayStart(from), dayStart(to)
	if to.Before(from) {
		return nil, apperr.NewValidation("to", "must be on or after from")
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxSummaryDays {
		return nil, apperr.NewValidation("to", "range must not exceed 366 days")
	}

	var entries []models.DiaryEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND added_date >= ? AND added_date < ?", p.UserID, from, from.AddDate(0, 0, days)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	idx := make(map[string]*DaySummary, days)
	out := &DiarySummary{From: from.Format(dateLayout), To: to.Format(dateLayout), Days: make([]DaySummary, days)}
	for i := range out.Days {
		key := from.AddDate(0, 0, i).Format(dateLayout)
		out.Days[i].Date = key
		idx[key] = &out.Days[i]
	}
	for _, e := range entries {
		d, ok := idx[e.AddedDate.In(from.Location()).Format(dateLayout)]
		if !ok {
			continue
		}
		d.Entries++
		d.NutrientProfile = d.NutrientProfile.Add(e.Nutrients)
		out.Total = out.Total.Add(e.Nutrients)
	}
	for i := range out.Days {
		out.Days[i].NutrientProfile = utils.RoundProfile(out.Days[i].NutrientProfile)
	}
	out.Total = utils.RoundProfile(out.Total)
	return out, nil
}

// LastWeek is the default summary window ending on the day of now.
func LastWeek(now time.Time) (from, to time.Time) {
	to = dayStart(now)
	return to.AddDate(0, 0, -(defaultSummaryLen - 1)), to
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
