package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

const leadColumns = `lead_id, org_id, agent_id, category_id, first_name, last_name, age,
	description, phone_number, email, converted_at, created_at, updated_at`

// LeadStore implements store.LeadStore using SQLite.
type LeadStore struct {
	db *sql.DB
}

// NewLeadStore creates a new SQLite-backed lead store.
func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

// Create creates a new lead in the database.
func (s *LeadStore) Create(ctx context.Context, lead *models.Lead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		toNullMicros(lead.ConvertedAt),
		toMicros(lead.CreatedAt),
		toMicros(lead.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
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

	lead, err := scanLead(s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE `+where+` AND lead_id = ?`, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return lead, nil
}

// List returns the leads within the filter, newest first.
func (s *LeadStore) List(ctx context.Context, filter store.LeadFilter) ([]*models.Lead, error) {
	where, args := leadWhere(filter)

	rows, err := s.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE `+where+` ORDER BY created_at DESC, lead_id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM leads WHERE `+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}

	return count, nil
}

// Update persists the mutable fields of a lead. The organisation is never written
// and the conversion time is kept once set.
func (s *LeadStore) Update(ctx context.Context, lead *models.Lead) error {
	var convertedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		UPDATE leads SET
			agent_id = ?,
			category_id = ?,
			first_name = ?,
			last_name = ?,
			age = ?,
			description = ?,
			phone_number = ?,
			email = ?,
			converted_at = COALESCE(converted_at, ?),
			updated_at = ?
		WHERE lead_id = ? AND org_id = ?
		RETURNING converted_at`,
		lead.AgentID,
		lead.CategoryID,
		lead.FirstName,
		lead.LastName,
		lead.Age,
		lead.Description,
		lead.PhoneNumber,
		lead.Email,
		toNullMicros(lead.ConvertedAt),
		toMicros(lead.UpdatedAt),
		lead.LeadID,
		lead.OrgID,
	).Scan(&convertedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrLeadNotFound
		}
		return fmt.Errorf("failed to update lead: %w", err)
	}

	lead.ConvertedAt = fromNullMicros(convertedAt)
	return nil
}

// Delete deletes a lead within the filter.
func (s *LeadStore) Delete(ctx context.Context, filter store.LeadFilter, leadID uuid.UUID) error {
	where, args := leadWhere(filter)
	args = append(args, leadID)

	result, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE `+where+` AND lead_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return expectRow(result, store.ErrLeadNotFound)
}

// leadWhere renders a filter as a WHERE clause with its arguments.
func leadWhere(filter store.LeadFilter) (string, []any) {
	clauses := []string{"org_id = ?"}
	args := []any{filter.OrgID}

	if filter.AgentID != nil {
		clauses = append(clauses, "agent_id = ?")
		args = append(args, *filter.AgentID)
	}
	if filter.Assigned != nil {
		if *filter.Assigned {
			clauses = append(clauses, "agent_id IS NOT NULL")
		} else {
			clauses = append(clauses, "agent_id IS NULL")
		}
	}
	if filter.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Uncategorised {
		clauses = append(clauses, "category_id IS NULL")
	}

	return strings.Join(clauses, " AND "), args
}

func scanLead(row scanner) (*models.Lead, error) {
	var (
		lead                 models.Lead
		convertedAt          sql.NullInt64
		createdAt, updatedAt int64
	)
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
		&convertedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.ConvertedAt = fromNullMicros(convertedAt)
	lead.CreatedAt = fromMicros(createdAt)
	lead.UpdatedAt = fromMicros(updatedAt)
	return &lead, nil
}
