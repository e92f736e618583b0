package repository

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/gorm"
)

// LabelCount is one row of a GROUP BY over a text column.
type LabelCount struct {
	Label *string
	Count int64
}

// AgeCount is one row of a GROUP BY age.
type AgeCount struct {
	Age   int
	Count int64
}

// DayCount is the number of accounts created on Day (UTC).
type DayCount struct {
	Day   time.Time
	Count int64
}

// Counts holds the scalar figures behind the analytics summary.
type Counts struct {
	Total     int64
	Last24h   int64
	Last7d    int64
	Last30d   int64
	Active7d  int64
	Complete  int64
	Local     int64
	Federated int64
}

func (r *AccountRepository) Counts(ctx context.Context, now time.Time) (*Counts, error) {
	var c Counts
	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&models.Account{}) }

	steps := []struct {
		dst   *int64
		query string
		arg   interface{}
	}{
		{&c.Total, "", nil},
		{&c.Last24h, "created_at >= ?", now.Add(-24 * time.Hour)},
		{&c.Last7d, "created_at >= ?", now.AddDate(0, 0, -7)},
		{&c.Last30d, "created_at >= ?", now.AddDate(0, 0, -30)},
		{&c.Active7d, "last_login_at >= ?", now.AddDate(0, 0, -7)},
		{&c.Complete, "profile_complete = ?", true},
		{&c.Local, "provenance = ?", models.ProvenanceLocal},
		{&c.Federated, "provenance = ?", models.ProvenanceFederated},
	}
	for _, st := range steps {
		q := base()
		if st.query != "" {
			q = q.Where(st.query, st.arg)
		}
		if err := q.Count(st.dst).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *AccountRepository) GenderCounts(ctx context.Context) ([]LabelCount, error) {
	var rows []LabelCount
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("gender AS label, COUNT(*) AS count").
		Group("gender").
		Scan(&rows).Error
	return rows, err
}

// AgeCounts returns per-age counts plus the number of accounts without an age.
func (r *AccountRepository) AgeCounts(ctx context.Context) ([]AgeCount, int64, error) {
	var rows []AgeCount
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select("age, COUNT(*) AS count").
		Where("age IS NOT NULL").
		Group("age").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var unset int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("age IS NULL").Count(&unset).Error; err != nil {
		return nil, 0, err
	}
	return rows, unset, nil
}

// utcDay buckets by UTC calendar day whatever the session time zone is.
const utcDay = "DATE(created_at AT TIME ZONE 'UTC')"

func (r *AccountRepository) DailyRegistrations(ctx context.Context, since time.Time) ([]DayCount, error) {
	var rows []DayCount
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Select(utcDay+" AS day, COUNT(*) AS count").
		Where("created_at >= ?", since.UTC()).
		Group(utcDay).
		Order("day").
		Scan(&rows).Error
	return rows, err
}
