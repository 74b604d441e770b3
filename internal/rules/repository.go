// Package rules manages the scoring rule table: the admin CRUD surface, the
// read path used by the event processor and the default seed set.
package rules

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no rule matches the lookup.
var ErrNotFound = errors.New("scoring rule not found")

// ErrDuplicateEventType is returned when a rule already covers the event type.
var ErrDuplicateEventType = errors.New("scoring rule already exists for event type")

// Rule maps one event type to a point delta. Points may be negative;
// magnitudes are not bounded here, the pipeline clamps resulting scores.
type Rule struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"eventType"`
	Points    int       `json:"points"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const ruleColumns = "id, event_type, points, active, created_at, updated_at"

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.EventType, &r.Points, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Rule{}, ErrNotFound
	}
	if err != nil {
		return Rule{}, err
	}
	return r, nil
}

// ActivePoints resolves the point value for an event type. Inactive rules
// and unknown event types report ok=false.
func (r *Repository) ActivePoints(ctx context.Context, eventType string) (int, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT points FROM scoring_rules WHERE event_type = $1 AND active`,
		eventType,
	)
	var points int
	if err := row.Scan(&points); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return points, true, nil
}

func (r *Repository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM scoring_rules ORDER BY event_type ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rule)
	}
	return results, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Rule, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM scoring_rules WHERE id = $1`, id)
	return scanRule(row)
}

type CreateRuleParams struct {
	EventType string
	Points    int
	Active    bool
}

func (r *Repository) Create(ctx context.Context, params CreateRuleParams) (Rule, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO scoring_rules (event_type, points, active)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (event_type) DO NOTHING
		 RETURNING `+ruleColumns,
		params.EventType, params.Points, params.Active,
	)
	rule, err := scanRule(row)
	if errors.Is(err, ErrNotFound) {
		// ON CONFLICT DO NOTHING returns no row when the type is taken.
		return Rule{}, ErrDuplicateEventType
	}
	return rule, err
}

type UpdateRuleParams struct {
	Points *int
	Active *bool
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateRuleParams) (Rule, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE scoring_rules
		 SET points = COALESCE($2, points),
		     active = COALESCE($3, active),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+ruleColumns,
		id, params.Points, params.Active,
	)
	return scanRule(row)
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scoring_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureRule inserts a rule only when the event type has no rule yet.
// Existing rules keep their operator-tuned points and active flag.
func (r *Repository) EnsureRule(ctx context.Context, params CreateRuleParams) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO scoring_rules (event_type, points, active)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (event_type) DO NOTHING`,
		params.EventType, params.Points, params.Active,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
