package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Repository provides access to the leads, events and score_history stores.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is a prospect tracked by email or external identifier, carrying a
// cumulative engagement score.
type Lead struct {
	ID           uuid.UUID
	Name         string
	Email        *string
	ExternalID   *string
	Company      string
	CurrentScore int
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const leadColumns = `id, name, email, external_id, company, current_score, status, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &lead.ExternalID, &lead.Company,
		&lead.CurrentScore, &lead.Status, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByID fetches a lead by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
}

// GetByEmail fetches a lead by its unique email identity key.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE email = $1
	`, email))
}

// GetByExternalID fetches a lead by its alternate identity key.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE external_id = $1
	`, externalID))
}

type CreateLeadParams struct {
	Name       string
	Email      *string
	ExternalID *string
	Company    string
	Status     string
}

// Create inserts a new lead. The identity key (email or external id) is
// stable once assigned.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, external_id, company, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+leadColumns+`
	`, params.Name, params.Email, params.ExternalID, params.Company, params.Status))
}

// UpdateScore persists a new score and bumps updated_at, which resets the
// inactivity window for the decay sweep.
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, score int) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET current_score = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, score))
}

// List returns all leads ordered by score descending.
func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	return r.queryLeads(ctx, `
		SELECT `+leadColumns+` FROM leads ORDER BY current_score DESC, created_at ASC
	`)
}

// Leaderboard returns the top scoring leads.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]Lead, error) {
	return r.queryLeads(ctx, `
		SELECT `+leadColumns+` FROM leads ORDER BY current_score DESC, created_at ASC LIMIT $1
	`, limit)
}

// ListInactive returns leads whose last mutation predates the cutoff and
// whose score is still positive. These are the decay candidates.
func (r *Repository) ListInactive(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	return r.queryLeads(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE updated_at < $1 AND current_score > 0
		ORDER BY updated_at ASC
	`, cutoff)
}

// ResetAllScores zeroes every lead score without touching updated_at.
// Used only by the replay coordinator.
func (r *Repository) ResetAllScores(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE leads SET current_score = 0`)
	return err
}

func (r *Repository) queryLeads(ctx context.Context, sql string, args ...any) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
