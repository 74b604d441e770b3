// Package analytics computes dashboard aggregates over leads and events.
// Read-only; every number here can be rebuilt from the ledger.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type DashboardStats struct {
	TotalLeads      int     `json:"totalLeads"`
	TotalEvents     int     `json:"totalEvents"`
	ProcessedEvents int     `json:"processedEvents"`
	OrphanEvents    int     `json:"orphanEvents"`
	ActiveRules     int     `json:"activeRules"`
	TotalPoints     int     `json:"totalPoints"`
	AverageScore    float64 `json:"averageScore"`
	HotLeads        int     `json:"hotLeads"`
}

// hotLeadThreshold marks a lead as sales-ready on the dashboard.
const hotLeadThreshold = 100

func (r *Repository) Dashboard(ctx context.Context) (DashboardStats, error) {
	var stats DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM leads),
			(SELECT count(*) FROM events),
			(SELECT count(*) FROM events WHERE processed),
			(SELECT count(*) FROM events WHERE NOT processed),
			(SELECT count(*) FROM scoring_rules WHERE active),
			(SELECT COALESCE(sum(current_score), 0) FROM leads),
			(SELECT COALESCE(round(avg(current_score), 2), 0) FROM leads),
			(SELECT count(*) FROM leads WHERE current_score >= $1)
	`, hotLeadThreshold).Scan(
		&stats.TotalLeads,
		&stats.TotalEvents,
		&stats.ProcessedEvents,
		&stats.OrphanEvents,
		&stats.ActiveRules,
		&stats.TotalPoints,
		&stats.AverageScore,
		&stats.HotLeads,
	)
	return stats, err
}

type CompanyStats struct {
	Company      string  `json:"company"`
	LeadCount    int     `json:"leadCount"`
	AverageScore float64 `json:"averageScore"`
	TotalScore   int     `json:"totalScore"`
}

// CompanyDistribution returns the top companies by lead count.
func (r *Repository) CompanyDistribution(ctx context.Context, limit int) ([]CompanyStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT company,
		       count(*) AS lead_count,
		       COALESCE(round(avg(current_score), 2), 0) AS average_score,
		       COALESCE(sum(current_score), 0) AS total_score
		FROM leads
		GROUP BY company
		ORDER BY lead_count DESC, total_score DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]CompanyStats, 0)
	for rows.Next() {
		var cs CompanyStats
		if err := rows.Scan(&cs.Company, &cs.LeadCount, &cs.AverageScore, &cs.TotalScore); err != nil {
			return nil, err
		}
		results = append(results, cs)
	}
	return results, rows.Err()
}

type TrendPoint struct {
	Day    time.Time `json:"day"`
	Events int       `json:"events"`
}

// EventTrend returns per-day event counts for the trailing window, including
// zero-count days.
func (r *Repository) EventTrend(ctx context.Context, days int) ([]TrendPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d::date AS day,
		       count(e.id) AS events
		FROM generate_series(
			date_trunc('day', now()) - ($1 - 1) * interval '1 day',
			date_trunc('day', now()),
			interval '1 day'
		) AS d
		LEFT JOIN events e ON date_trunc('day', e.occurred_at) = d
		GROUP BY d
		ORDER BY d ASC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]TrendPoint, 0, days)
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Day, &p.Events); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
