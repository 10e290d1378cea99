package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const leadColumns = `lead_id, org_id, agent_id, category_id, first_name, last_name, age,
	description, phone_number, email, converted_at, created_at, updated_at`

// LeadStore implements store.LeadStore using PostgreSQL.
type LeadStore struct {
	pool *pgxpool.Pool
}

// NewLeadStore creates a new PostgreSQL-backed lead store.
func NewLeadStore(pool *pgxpool.Pool) *LeadStore {
	return &LeadStore{
		pool: pool,
	}
}

// Create creates a new lead in the database.
func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		lead.LeadID,
		lead.OrgID,
		lead.AgentID,
		lead.CategoryID,
		lead.FirstName,
		lead.LastName,
		lead.Age,
		lead.Description,
		lead.PhoneNumber,
		lead.Email,
		lead.ConvertedAt,
		lead.CreatedAt,
		lead.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create lead: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Msg("Created lead")

	return nil
}

// Get retrieves a lead within the filter.
func (s *LeadStore) Get(ctx context.Context, filter store.LeadFilter, leadID uuid.UUID) (*models.Lead, error) {
	where, args := leadWhere(filter)
	args = append(args, leadID)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s AND lead_id = $%d`, leadColumns, where, len(args))

	lead, err := scanLead(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", mapPostgresError(err))
	}

	return lead, nil
}

// List returns the leads within the filter, newest first.
func (s *LeadStore) List(ctx context.Context, filter store.LeadFilter) ([]*models.Lead, error) {
	where, args := leadWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE %s ORDER BY created_at DESC, lead_id DESC`, leadColumns, where)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}

// Count returns the number of leads within the filter.
func (s *LeadStore) Count(ctx context.Context, filter store.LeadFilter) (int, error) {
	where, args := leadWhere(filter)

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM leads WHERE `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", mapPostgresError(err))
	}

	return count, nil
}

// Update persists the mutable fields of a lead. The organisation is never written
// and the conversion time is kept once set.
func (s *LeadStore) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads SET
			agent_id = $3,
			category_id = $4,
			first_name = $5,
			last_name = $6,
			age = $7,
			description = $8,
			phone_number = $9,
			email = $10,
			converted_at = COALESCE(converted_at, $11),
			updated_at = $12
		WHERE lead_id = $1 AND org_id = $2
		RETURNING converted_at
	`

	err := s.pool.QueryRow(ctx, query,
		lead.LeadID,
		lead.OrgID,
		lead.AgentID,
		lead.CategoryID,
		lead.FirstName,
		lead.LastName,
		lead.Age,
		lead.Description,
		lead.PhoneNumber,
		lead.Email,
		lead.ConvertedAt,
		lead.UpdatedAt,
	).Scan(&lead.ConvertedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrLeadNotFound
		}
		return fmt.Errorf("failed to update lead: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Msg("Updated lead")

	return nil
}

// Delete deletes a lead within the filter.
func (s *LeadStore) Delete(ctx context.Context, filter store.LeadFilter, leadID uuid.UUID) error {
	where, args := leadWhere(filter)
	args = append(args, leadID)
	query := fmt.Sprintf(`DELETE FROM leads WHERE %s AND lead_id = $%d`, where, len(args))

	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrLeadNotFound
	}

	log.Info().
		Str("lead_id", leadID.String()).
		Str("org_id", filter.OrgID.String()).
		Msg("Deleted lead")

	return nil
}

// leadWhere renders a filter as a WHERE clause with positional arguments.
func leadWhere(filter store.LeadFilter) (string, []any) {
	clauses := []string{"org_id = $1"}
	args := []any{filter.OrgID}

	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id = $%d", len(args)))
	}
	if filter.Assigned != nil {
		if *filter.Assigned {
			clauses = append(clauses, "agent_id IS NOT NULL")
		} else {
			clauses = append(clauses, "agent_id IS NULL")
		}
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.Uncategorised {
		clauses = append(clauses, "category_id IS NULL")
	}

	return strings.Join(clauses, " AND "), args
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var lead models.Lead
	err := row.Scan(
		&lead.LeadID,
		&lead.OrgID,
		&lead.AgentID,
		&lead.CategoryID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Age,
		&lead.Description,
		&lead.PhoneNumber,
		&lead.Email,
		&lead.ConvertedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}
