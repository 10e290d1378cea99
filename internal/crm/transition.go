package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

// ConversionStamp returns the conversion time a lead should carry after moving from
// previous to next. A lead is stamped the first time it enters the Converted category;
// an existing stamp is never replaced or cleared.
func ConversionStamp(previous, next *uuid.UUID, convertedID uuid.UUID, current *time.Time, now time.Time) *time.Time {
	if current != nil {
		return current
	}
	if next == nil || *next != convertedID {
		return nil
	}
	if previous != nil && *previous == convertedID {
		return nil
	}
	return &now
}

// categoryTransition applies a category change to a lead in memory. The caller persists it.
type categoryTransition struct {
	categories store.CategoryStore
	now        func() time.Time
}

// apply resolves the organisation's Converted category and moves lead into next.
func (t categoryTransition) apply(ctx context.Context, lead *models.Lead, next *uuid.UUID) error {
	converted, err := t.categories.GetByName(ctx, lead.OrgID, models.ConvertedCategoryName)
	if errors.Is(err, store.ErrCategoryNotFound) {
		telemetry.GetMetrics().ConfigurationErrors.Add(ctx, 1)
		log.Error().
			Str("org_id", lead.OrgID.String()).
			Str("lead_id", lead.LeadID.String()).
			Msg("Organisation has no Converted category")
		return fmt.Errorf("organisation %s has no %q category: %w", lead.OrgID, models.ConvertedCategoryName, ErrConfiguration)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve converted category: %w", err)
	}

	wasConverted := lead.IsConverted()
	lead.ConvertedAt = ConversionStamp(lead.CategoryID, next, converted.CategoryID, lead.ConvertedAt, t.now())
	lead.CategoryID = copyID(next)

	if !wasConverted && lead.IsConverted() {
		telemetry.GetMetrics().LeadsConvertedTotal.Add(ctx, 1)
		log.Info().
			Str("lead_id", lead.LeadID.String()).
			Str("org_id", lead.OrgID.String()).
			Time("converted_at", *lead.ConvertedAt).
			Msg("Lead converted")
	}
	telemetry.GetMetrics().CategoryChangesTotal.Add(ctx, 1)

	return nil
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
