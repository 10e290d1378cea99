package crm

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/leadtrack/internal/access"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
	"github.com/wolfeidau/leadtrack/internal/telemetry"
)

const (
	maxNameLength = 100
	maxAge        = 150
)

// Notifier is told about newly created leads.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *models.Lead) error
}

// LeadInput is the editable part of a lead.
type LeadInput struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Age         int        `json:"age"`
	Description string     `json:"description"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email"`
	AgentID     *uuid.UUID `json:"agent_id,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// InputFromLead returns the editable fields of an existing lead, used to prefill forms.
func InputFromLead(lead *models.Lead) LeadInput {
	return LeadInput{
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Age:         lead.Age,
		Description: lead.Description,
		PhoneNumber: lead.PhoneNumber,
		Email:       lead.Email,
		AgentID:     copyID(lead.AgentID),
		CategoryID:  copyID(lead.CategoryID),
	}
}

// LeadList is the lead index as seen by one requester.
type LeadList struct {
	Leads      []*models.Lead `json:"leads"`
	Assigned   []*models.Lead `json:"assigned"`
	Unassigned []*models.Lead `json:"unassigned,omitempty"` // organisors only
}

// LeadService implements the lead operations on top of the stores.
type LeadService struct {
	stores     store.Stores
	notifier   Notifier
	transition categoryTransition
	now        func() time.Time
}

// NewLeadService creates a lead service.
func NewLeadService(stores store.Stores, notifier Notifier, opts ...Option) *LeadService {
	cfg := newServiceConfig(opts)
	return &LeadService{
		stores:     stores,
		notifier:   notifier,
		transition: categoryTransition{categories: stores.Categories, now: cfg.now},
		now:        cfg.now,
	}
}

// List returns the leads visible to the requester.
func (s *LeadService) List(ctx context.Context, id access.Identity) (*LeadList, error) {
	scope := access.LeadScope(id)

	leads, err := s.stores.Leads.List(ctx, scope)
	if err != nil {
		return nil, mapStoreError(err, "list leads")
	}

	list := &LeadList{Leads: leads}
	for _, lead := range leads {
		if lead.IsAssigned() {
			list.Assigned = append(list.Assigned, lead)
		}
	}

	if unassignedScope, ok := access.UnassignedLeadScope(id); ok {
		list.Unassigned, err = s.stores.Leads.List(ctx, unassignedScope)
		if err != nil {
			return nil, mapStoreError(err, "list unassigned leads")
		}
	}

	return list, nil
}

// Get returns a single lead within the requester's scope.
func (s *LeadService) Get(ctx context.Context, id access.Identity, leadID uuid.UUID) (*models.Lead, error) {
	lead, err := s.stores.Leads.Get(ctx, access.LeadScope(id), leadID)
	if err != nil {
		return nil, mapStoreError(err, "get lead")
	}
	return lead, nil
}

// Create adds a lead to the organisor's organisation and sends the creation notification.
func (s *LeadService) Create(ctx context.Context, id access.Identity, in LeadInput) (*models.Lead, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	ctx, span := telemetry.Tracer().Start(ctx, "LeadService.Create")
	defer span.End()

	if err := s.validate(ctx, id, in); err != nil {
		return nil, err
	}

	now := s.now()
	lead := &models.Lead{
		LeadID:    uuid.Must(uuid.NewV7()),
		OrgID:     id.OrgID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(lead, in)

	if in.CategoryID != nil {
		if err := s.transition.apply(ctx, lead, in.CategoryID); err != nil {
			return nil, err
		}
	}

	if err := s.stores.Leads.Create(ctx, lead); err != nil {
		return nil, mapStoreError(err, "create lead")
	}

	span.SetAttributes(attribute.String("lead_id", lead.LeadID.String()))
	telemetry.GetMetrics().LeadsCreatedTotal.Add(ctx, 1)

	log.Info().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Str("user_id", id.UserID.String()).
		Msg("Lead created")

	s.notify(ctx, span, lead)

	return lead, nil
}

// notify sends the creation notification. Failures are logged and recorded on the span,
// never returned. The notifier owns the notification metrics.
func (s *LeadService) notify(ctx context.Context, span trace.Span, lead *models.Lead) {
	if s.notifier == nil {
		return
	}

	if err := s.notifier.LeadCreated(ctx, lead); err != nil {
		span.RecordError(err)
		log.Error().Err(err).
			Str("lead_id", lead.LeadID.String()).
			Str("org_id", lead.OrgID.String()).
			Msg("Failed to send lead notification")
	}
}

// Update changes the editable fields of a lead. Organisors may change everything;
// the assigned agent may change everything except the assignment. The conversion
// transition runs only when the category actually changes.
func (s *LeadService) Update(ctx context.Context, id access.Identity, leadID uuid.UUID, in LeadInput) (*models.Lead, error) {
	lead, err := s.Get(ctx, id, leadID)
	if err != nil {
		return nil, err
	}

	if id.IsAgent() {
		if in.AgentID == nil {
			in.AgentID = copyID(lead.AgentID)
		} else if !sameID(in.AgentID, lead.AgentID) {
			return nil, fieldError("agent", "agents cannot reassign leads")
		}
	}

	if err := s.validate(ctx, id, in); err != nil {
		return nil, err
	}

	if !sameID(lead.CategoryID, in.CategoryID) {
		if err := s.transition.apply(ctx, lead, in.CategoryID); err != nil {
			return nil, err
		}
	}

	applyInput(lead, in)
	lead.UpdatedAt = s.now()

	if err := s.stores.Leads.Update(ctx, lead); err != nil {
		return nil, mapStoreError(err, "update lead")
	}

	telemetry.GetMetrics().LeadsUpdatedTotal.Add(ctx, 1, roleAttr(id))

	log.Info().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Str("user_id", id.UserID.String()).
		Msg("Lead updated")

	return lead, nil
}

// UpdateCategory moves a lead into categoryID (nil to uncategorise), always running the
// conversion transition.
func (s *LeadService) UpdateCategory(ctx context.Context, id access.Identity, leadID uuid.UUID, categoryID *uuid.UUID) (*models.Lead, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "LeadService.UpdateCategory")
	defer span.End()

	lead, err := s.Get(ctx, id, leadID)
	if err != nil {
		return nil, err
	}

	if categoryID != nil {
		if _, err := s.stores.Categories.Get(ctx, access.CategoryScope(id), *categoryID); err != nil {
			if errors.Is(err, store.ErrCategoryNotFound) {
				return nil, fieldError("category", "select a valid category")
			}
			return nil, mapStoreError(err, "get category")
		}
	}

	if err := s.transition.apply(ctx, lead, categoryID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	lead.UpdatedAt = s.now()

	if err := s.stores.Leads.Update(ctx, lead); err != nil {
		return nil, mapStoreError(err, "update lead category")
	}

	log.Info().
		Str("lead_id", lead.LeadID.String()).
		Str("org_id", lead.OrgID.String()).
		Bool("converted", lead.IsConverted()).
		Msg("Lead category updated")

	return lead, nil
}

// AssignAgent assigns a lead to an agent of the same organisation.
func (s *LeadService) AssignAgent(ctx context.Context, id access.Identity, leadID, agentID uuid.UUID) (*models.Lead, error) {
	if !id.IsOrganisor() {
		return nil, ErrForbidden
	}

	lead, err := s.Get(ctx, id, leadID)
	if err != nil {
		return nil, err
	}

	agent, err := s.stores.Agents.Get(ctx, agentID)
	if err != nil && !errors.Is(err, store.ErrAgentNotFound) {
		return nil, mapStoreError(err, "get agent")
	}
	if agent == nil || agent.OrgID != lead.OrgID {
		return nil, fieldError("agent", "select an agent from your organisation")
	}

	lead.AgentID = &agent.AgentID
	lead.UpdatedAt = s.now()

	if err := s.stores.Leads.Update(ctx, lead); err != nil {
		return nil, mapStoreError(err, "assign agent")
	}

	telemetry.GetMetrics().LeadsAssignedTotal.Add(ctx, 1)

	log.Info().
		Str("lead_id", lead.LeadID.String()).
		Str("agent_id", agent.AgentID.String()).
		Str("org_id", lead.OrgID.String()).
		Msg("Lead assigned")

	return lead, nil
}

// Delete removes a lead from the organisor's organisation.
func (s *LeadService) Delete(ctx context.Context, id access.Identity, leadID uuid.UUID) error {
	if !id.IsOrganisor() {
		return ErrForbidden
	}

	if err := s.stores.Leads.Delete(ctx, access.LeadScope(id), leadID); err != nil {
		return mapStoreError(err, "delete lead")
	}

	telemetry.GetMetrics().LeadsDeletedTotal.Add(ctx, 1)

	log.Info().
		Str("lead_id", leadID.String()).
		Str("org_id", id.OrgID.String()).
		Msg("Lead deleted")

	return nil
}

// validate checks field constraints and that referenced records belong to the requester's organisation.
func (s *LeadService) validate(ctx context.Context, id access.Identity, in LeadInput) error {
	verr := &ValidationError{}

	validateName(verr, "first_name", in.FirstName)
	validateName(verr, "last_name", in.LastName)

	if in.Age < 0 || in.Age > maxAge {
		verr.Add("age", fmt.Sprintf("must be between 0 and %d", maxAge))
	}

	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			verr.Add("email", "enter a valid email address")
		}
	}

	if in.AgentID != nil {
		agent, err := s.stores.Agents.Get(ctx, *in.AgentID)
		switch {
		case errors.Is(err, store.ErrAgentNotFound):
			verr.Add("agent", "select an agent from your organisation")
		case err != nil:
			return mapStoreError(err, "get agent")
		case agent.OrgID != id.OrgID:
			verr.Add("agent", "select an agent from your organisation")
		}
	}

	if in.CategoryID != nil {
		_, err := s.stores.Categories.Get(ctx, access.CategoryScope(id), *in.CategoryID)
		switch {
		case errors.Is(err, store.ErrCategoryNotFound):
			verr.Add("category", "select a valid category")
		case err != nil:
			return mapStoreError(err, "get category")
		}
	}

	return verr.Err()
}

func validateName(verr *ValidationError, field, value string) {
	switch {
	case value == "":
		verr.Add(field, "this field is required")
	case len([]rune(value)) > maxNameLength:
		verr.Add(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
}

// applyInput copies the plain fields of in onto lead. The category is handled by the transition.
func applyInput(lead *models.Lead, in LeadInput) {
	lead.FirstName = in.FirstName
	lead.LastName = in.LastName
	lead.Age = in.Age
	lead.Description = in.Description
	lead.PhoneNumber = in.PhoneNumber
	lead.Email = in.Email
	lead.AgentID = copyID(in.AgentID)
}

func roleAttr(id access.Identity) metric.AddOption {
	return metric.WithAttributes(attribute.String("role", id.Role.String()))
}
