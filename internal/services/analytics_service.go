package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/validation"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 365
	Unspecified      = "unspecified"
)

type ageBucket struct {
	label    string
	min, max int
}

var ageBuckets = []ageBucket{
	{"13-17", 13, 17},
	{"18-24", 18, 24},
	{"25-34", 25, 34},
	{"35-44", 35, 44},
	{"45-54", 45, 54},
	{"55-64", 55, 64},
	{"65+", 65, validation.MaxAge},
}

// AnalyticsService serves read-only projections over the account table.
type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

func (s *AnalyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	c, err := s.store.Counts(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	return &dto.AnalyticsSummary{
		TotalAccounts:      c.Total,
		NewLast24h:         c.Last24h,
		NewLast7d:          c.Last7d,
		NewLast30d:         c.Last30d,
		ActiveLast7d:       c.Active7d,
		CompleteProfiles:   c.Complete,
		IncompleteProfiles: c.Total - c.Complete,
		LocalAccounts:      c.Local,
		FederatedAccounts:  c.Federated,
	}, nil
}

// GenderDistribution reports every accepted gender, plus accounts without one.
func (s *AnalyticsService) GenderDistribution(ctx context.Context) (*dto.DistributionResponse, error) {
	rows, err := s.store.GenderCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count genders: %w", err)
	}
	return genderDistribution(rows), nil
}

func (s *AnalyticsService) AgeBuckets(ctx context.Context) (*dto.DistributionResponse, error) {
	rows, unset, err := s.store.AgeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count ages: %w", err)
	}
	return bucketAges(rows, unset), nil
}

// DailyRegistrations returns one point per UTC day for the last days days,
// today included, with zero for days without signups.
func (s *AnalyticsService) DailyRegistrations(ctx context.Context, days int) (*dto.RegistrationTrendResponse, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return nil, invalid(fieldError("days", fmt.Errorf("days must be between 1 and %d", MaxTrendDays)))
	}

	today := truncateDay(s.now())
	since := today.AddDate(0, 0, -(days - 1))
	rows, err := s.store.DailyRegistrations(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	return &dto.RegistrationTrendResponse{Days: days, Points: zeroFill(rows, since, days)}, nil
}

func genderDistribution(rows []repository.LabelCount) *dto.DistributionResponse {
	counts := make(map[string]int64, len(validation.Genders)+1)
	var total int64
	for _, r := range rows {
		label := Unspecified
		if r.Label != nil && *r.Label != "" {
			label = validation.NormalizeGender(*r.Label)
		}
		counts[label] += r.Count
		total += r.Count
	}

	labels := append(append([]string{}, validation.Genders...), Unspecified)
	resp := &dto.DistributionResponse{Buckets: make([]dto.Bucket, 0, len(labels)), Total: total}
	for _, l := range labels {
		resp.Buckets = append(resp.Buckets, dto.Bucket{Label: l, Count: counts[l]})
	}
	return resp
}

func bucketAges(rows []repository.AgeCount, unset int64) *dto.DistributionResponse {
	counts := make([]int64, len(ageBuckets))
	total := unset
	for _, r := range rows {
		total += r.Count
		placed := false
		for i, b := range ageBuckets {
			if r.Age >= b.min && r.Age <= b.max {
				counts[i] += r.Count
				placed = true
				break
			}
		}
		if !placed {
			unset += r.Count
		}
	}

	resp := &dto.DistributionResponse{Buckets: make([]dto.Bucket, 0, len(ageBuckets)+1), Total: total}
	for i, b := range ageBuckets {
		resp.Buckets = append(resp.Buckets, dto.Bucket{Label: b.label, Count: counts[i]})
	}
	resp.Buckets = append(resp.Buckets, dto.Bucket{Label: Unspecified, Count: unset})
	return resp
}

func zeroFill(rows []repository.DayCount, since time.Time, days int) []dto.DailyCount {
	byDay := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDay[r.Day.UTC().Format(time.DateOnly)] += r.Count
	}

	points := make([]dto.DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		points = append(points, dto.DailyCount{Date: day, Count: byDay[day]})
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
