// Package storetest holds the behaviour every store backend must share.
// Backends run it from their own tests with a constructor for fresh stores.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/leadtrack/internal/models"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// Factory returns an empty set of stores for a single subtest.
type Factory func(t *testing.T) store.Stores

// Run exercises every store in the set against the shared contract.
func Run(t *testing.T, newStores Factory) {
	t.Run("organisations", func(t *testing.T) { testOrganisations(t, newStores(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, newStores(t)) })
	t.Run("agents", func(t *testing.T) { testAgents(t, newStores(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStores(t)) })
	t.Run("leads", func(t *testing.T) { testLeads(t, newStores(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStores(t)) })
}

// Fixture is a minimal organisation with an organisor and one agent.
type Fixture struct {
	Org       *models.Organisation
	Organisor *models.User
	AgentUser *models.User
	Agent     *models.Agent
}

// Seed creates an organisation, its organisor and a single agent.
func Seed(t *testing.T, stores store.Stores, name string) *Fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	org := &models.Organisation{OrgID: uuid.Must(uuid.NewV7()), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, stores.Organisations.Create(ctx, org))

	organisor := NewUser(org.OrgID, models.RoleOrganisor, name+"-owner")
	require.NoError(t, stores.Users.Create(ctx, organisor))

	agentUser := NewUser(org.OrgID, models.RoleAgent, name+"-agent")
	require.NoError(t, stores.Users.Create(ctx, agentUser))

	agent := &models.Agent{AgentID: uuid.Must(uuid.NewV7()), UserID: agentUser.UserID, OrgID: org.OrgID, CreatedAt: now}
	require.NoError(t, stores.Agents.Create(ctx, agent))

	return &Fixture{Org: org, Organisor: organisor, AgentUser: agentUser, Agent: agent}
}

// NewUser builds a user with a unique username and email derived from name.
func NewUser(orgID uuid.UUID, role models.Role, name string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.User{
		UserID:    uuid.Must(uuid.NewV7()),
		OrgID:     orgID,
		Role:      role,
		Username:  name,
		Email:     name + "@example.com",
		FirstName: "First",
		LastName:  "Last",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewLead builds an unassigned, uncategorised lead in orgID.
func NewLead(orgID uuid.UUID, firstName string) *models.Lead {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Lead{
		LeadID:      uuid.Must(uuid.NewV7()),
		OrgID:       orgID,
		FirstName:   firstName,
		LastName:    "Smith",
		Age:         30,
		Description: "interested",
		PhoneNumber: "555-0100",
		Email:       firstName + "@example.com",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewCategory builds a category in orgID.
func NewCategory(orgID uuid.UUID, name string) *models.Category {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Category{CategoryID: uuid.Must(uuid.NewV7()), OrgID: orgID, Name: name, CreatedAt: now, UpdatedAt: now}
}

func testOrganisations(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	org := &models.Organisation{OrgID: uuid.Must(uuid.NewV7()), Name: "acme", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, stores.Organisations.Create(ctx, org))
	require.ErrorIs(t, stores.Organisations.Create(ctx, org), store.ErrOrganisationAlreadyExists)

	got, err := stores.Organisations.Get(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, "acme", got.Name)

	got.Name = "acme two"
	require.NoError(t, stores.Organisations.Update(ctx, got))

	got, err = stores.Organisations.Get(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, "acme two", got.Name)

	_, err = stores.Organisations.Get(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrOrganisationNotFound)

	missing := &models.Organisation{OrgID: uuid.Must(uuid.NewV7()), Name: "ghost"}
	require.ErrorIs(t, stores.Organisations.Update(ctx, missing), store.ErrOrganisationNotFound)

	require.NoError(t, stores.Organisations.Delete(ctx, org.OrgID))
	_, err = stores.Organisations.Get(ctx, org.OrgID)
	require.ErrorIs(t, err, store.ErrOrganisationNotFound)
	require.ErrorIs(t, stores.Organisations.Delete(ctx, org.OrgID), store.ErrOrganisationNotFound)
}

func testUsers(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	fx := Seed(t, stores, "users")

	t.Run("lookup by email is case insensitive", func(t *testing.T) {
		got, err := stores.Users.GetByEmail(ctx, "USERS-OWNER@example.com")
		require.NoError(t, err)
		require.Equal(t, fx.Organisor.UserID, got.UserID)
		require.Equal(t, models.RoleOrganisor, got.Role)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := NewUser(fx.Org.OrgID, models.RoleAgent, "other")
		dup.Email = fx.Organisor.Email
		require.ErrorIs(t, stores.Users.Create(ctx, dup), store.ErrUserAlreadyExists)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		dup := NewUser(fx.Org.OrgID, models.RoleAgent, "other")
		dup.Username = fx.Organisor.Username
		require.ErrorIs(t, stores.Users.Create(ctx, dup), store.ErrUserAlreadyExists)
	})

	t.Run("update keeps role and organisation", func(t *testing.T) {
		user, err := stores.Users.Get(ctx, fx.AgentUser.UserID)
		require.NoError(t, err)

		user.FirstName = "Renamed"
		user.Role = models.RoleOrganisor
		user.OrgID = uuid.Must(uuid.NewV7())
		require.NoError(t, stores.Users.Update(ctx, user))

		got, err := stores.Users.Get(ctx, fx.AgentUser.UserID)
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.FirstName)
		require.Equal(t, models.RoleAgent, got.Role)
		require.Equal(t, fx.Org.OrgID, got.OrgID)
	})

	t.Run("delete", func(t *testing.T) {
		user := NewUser(fx.Org.OrgID, models.RoleAgent, "doomed")
		require.NoError(t, stores.Users.Create(ctx, user))
		require.NoError(t, stores.Users.Delete(ctx, user.UserID))

		_, err := stores.Users.Get(ctx, user.UserID)
		require.ErrorIs(t, err, store.ErrUserNotFound)
		require.ErrorIs(t, stores.Users.Delete(ctx, user.UserID), store.ErrUserNotFound)
	})
}

func testAgents(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	fx := Seed(t, stores, "agents")
	other := Seed(t, stores, "rival")

	t.Run("one agent per user", func(t *testing.T) {
		dup := &models.Agent{AgentID: uuid.Must(uuid.NewV7()), UserID: fx.AgentUser.UserID, OrgID: fx.Org.OrgID}
		require.ErrorIs(t, stores.Agents.Create(ctx, dup), store.ErrAgentAlreadyExists)
	})

	t.Run("get by user", func(t *testing.T) {
		got, err := stores.Agents.GetByUser(ctx, fx.AgentUser.UserID)
		require.NoError(t, err)
		require.Equal(t, fx.Agent.AgentID, got.AgentID)

		_, err = stores.Agents.GetByUser(ctx, fx.Organisor.UserID)
		require.ErrorIs(t, err, store.ErrAgentNotFound)
	})

	t.Run("list is scoped to the organisation", func(t *testing.T) {
		agents, err := stores.Agents.ListByOrg(ctx, fx.Org.OrgID)
		require.NoError(t, err)
		require.Len(t, agents, 1)
		require.Equal(t, fx.Agent.AgentID, agents[0].AgentID)
		require.Equal(t, fx.AgentUser.Email, agents[0].User.Email)
	})

	t.Run("delete from another organisation is not found", func(t *testing.T) {
		require.ErrorIs(t, stores.Agents.Delete(ctx, other.Org.OrgID, fx.Agent.AgentID), store.ErrAgentNotFound)
	})

	t.Run("delete unassigns leads", func(t *testing.T) {
		lead := NewLead(fx.Org.OrgID, "assigned")
		lead.AgentID = &fx.Agent.AgentID
		require.NoError(t, stores.Leads.Create(ctx, lead))

		require.NoError(t, stores.Agents.Delete(ctx, fx.Org.OrgID, fx.Agent.AgentID))

		got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, lead.LeadID)
		require.NoError(t, err)
		require.Nil(t, got.AgentID)

		_, err = stores.Agents.Get(ctx, fx.Agent.AgentID)
		require.ErrorIs(t, err, store.ErrAgentNotFound)
	})
}

func testCategories(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	fx := Seed(t, stores, "categories")
	other := Seed(t, stores, "elsewhere")

	for _, name := range []string{"New", "Contacted", "Converted"} {
		require.NoError(t, stores.Categories.Create(ctx, NewCategory(fx.Org.OrgID, name)))
	}
	require.NoError(t, stores.Categories.Create(ctx, NewCategory(other.Org.OrgID, "New")))

	t.Run("names are unique within an organisation", func(t *testing.T) {
		require.ErrorIs(t, stores.Categories.Create(ctx, NewCategory(fx.Org.OrgID, "New")), store.ErrCategoryAlreadyExists)
	})

	t.Run("list is ordered by name and scoped", func(t *testing.T) {
		categories, err := stores.Categories.List(ctx, store.CategoryFilter{OrgID: fx.Org.OrgID})
		require.NoError(t, err)

		var names []string
		for _, c := range categories {
			names = append(names, c.Name)
		}
		require.Equal(t, []string{"Contacted", "Converted", "New"}, names)
	})

	t.Run("get by name", func(t *testing.T) {
		got, err := stores.Categories.GetByName(ctx, fx.Org.OrgID, "Converted")
		require.NoError(t, err)
		require.Equal(t, "Converted", got.Name)

		_, err = stores.Categories.GetByName(ctx, fx.Org.OrgID, "Missing")
		require.ErrorIs(t, err, store.ErrCategoryNotFound)
	})

	t.Run("get outside the organisation is not found", func(t *testing.T) {
		theirs, err := stores.Categories.GetByName(ctx, other.Org.OrgID, "New")
		require.NoError(t, err)

		_, err = stores.Categories.Get(ctx, store.CategoryFilter{OrgID: fx.Org.OrgID}, theirs.CategoryID)
		require.ErrorIs(t, err, store.ErrCategoryNotFound)
	})

	t.Run("rename", func(t *testing.T) {
		category, err := stores.Categories.GetByName(ctx, fx.Org.OrgID, "Contacted")
		require.NoError(t, err)

		category.Name = "Called"
		require.NoError(t, stores.Categories.Update(ctx, category))

		got, err := stores.Categories.Get(ctx, store.CategoryFilter{OrgID: fx.Org.OrgID}, category.CategoryID)
		require.NoError(t, err)
		require.Equal(t, "Called", got.Name)

		got.Name = "New"
		require.ErrorIs(t, stores.Categories.Update(ctx, got), store.ErrCategoryAlreadyExists)
	})

	t.Run("delete uncategorises leads", func(t *testing.T) {
		category, err := stores.Categories.GetByName(ctx, fx.Org.OrgID, "New")
		require.NoError(t, err)

		lead := NewLead(fx.Org.OrgID, "staged")
		lead.CategoryID = &category.CategoryID
		require.NoError(t, stores.Leads.Create(ctx, lead))

		require.ErrorIs(t, stores.Categories.Delete(ctx, store.CategoryFilter{OrgID: other.Org.OrgID}, category.CategoryID), store.ErrCategoryNotFound)
		require.NoError(t, stores.Categories.Delete(ctx, store.CategoryFilter{OrgID: fx.Org.OrgID}, category.CategoryID))

		got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, lead.LeadID)
		require.NoError(t, err)
		require.Nil(t, got.CategoryID)
	})
}

func testLeads(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	fx := Seed(t, stores, "leads")
	other := Seed(t, stores, "competitor")

	converted := NewCategory(fx.Org.OrgID, models.ConvertedCategoryName)
	require.NoError(t, stores.Categories.Create(ctx, converted))

	assigned := NewLead(fx.Org.OrgID, "assigned")
	assigned.AgentID = &fx.Agent.AgentID
	assigned.CategoryID = &converted.CategoryID
	require.NoError(t, stores.Leads.Create(ctx, assigned))

	unassigned := NewLead(fx.Org.OrgID, "unassigned")
	unassigned.CreatedAt = assigned.CreatedAt.Add(time.Second)
	require.NoError(t, stores.Leads.Create(ctx, unassigned))

	foreign := NewLead(other.Org.OrgID, "foreign")
	require.NoError(t, stores.Leads.Create(ctx, foreign))

	yes, no := true, false
	tests := []struct {
		name   string
		filter store.LeadFilter
		want   []uuid.UUID
	}{
		{"organisation", store.LeadFilter{OrgID: fx.Org.OrgID}, []uuid.UUID{unassigned.LeadID, assigned.LeadID}},
		{"assigned", store.LeadFilter{OrgID: fx.Org.OrgID, Assigned: &yes}, []uuid.UUID{assigned.LeadID}},
		{"unassigned", store.LeadFilter{OrgID: fx.Org.OrgID, Assigned: &no}, []uuid.UUID{unassigned.LeadID}},
		{"agent", store.LeadFilter{OrgID: fx.Org.OrgID, AgentID: &fx.Agent.AgentID}, []uuid.UUID{assigned.LeadID}},
		{"category", store.LeadFilter{OrgID: fx.Org.OrgID, CategoryID: &converted.CategoryID}, []uuid.UUID{assigned.LeadID}},
		{"uncategorised", store.LeadFilter{OrgID: fx.Org.OrgID, Uncategorised: true}, []uuid.UUID{unassigned.LeadID}},
		{"other organisation", store.LeadFilter{OrgID: other.Org.OrgID}, []uuid.UUID{foreign.LeadID}},
		{"agent from wrong organisation", store.LeadFilter{OrgID: other.Org.OrgID, AgentID: &fx.Agent.AgentID}, nil},
	}

	for _, tt := range tests {
		t.Run("list "+tt.name, func(t *testing.T) {
			leads, err := stores.Leads.List(ctx, tt.filter)
			require.NoError(t, err)

			var got []uuid.UUID
			for _, l := range leads {
				got = append(got, l.LeadID)
			}
			require.Equal(t, tt.want, got)

			count, err := stores.Leads.Count(ctx, tt.filter)
			require.NoError(t, err)
			require.Equal(t, len(tt.want), count)
		})
	}

	t.Run("get outside the filter is not found", func(t *testing.T) {
		_, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, foreign.LeadID)
		require.ErrorIs(t, err, store.ErrLeadNotFound)

		_, err = stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID, AgentID: &fx.Agent.AgentID}, unassigned.LeadID)
		require.ErrorIs(t, err, store.ErrLeadNotFound)
	})

	t.Run("get round trips optional fields", func(t *testing.T) {
		got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, assigned.LeadID)
		require.NoError(t, err)
		require.Equal(t, assigned.FirstName, got.FirstName)
		require.Equal(t, assigned.Age, got.Age)
		require.Equal(t, assigned.PhoneNumber, got.PhoneNumber)
		require.Equal(t, fx.Agent.AgentID, *got.AgentID)
		require.Equal(t, converted.CategoryID, *got.CategoryID)
		require.Nil(t, got.ConvertedAt)
	})

	t.Run("update never rewrites the conversion date", func(t *testing.T) {
		first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		lead, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, assigned.LeadID)
		require.NoError(t, err)

		lead.ConvertedAt = &first
		require.NoError(t, stores.Leads.Update(ctx, lead))

		later := first.Add(48 * time.Hour)
		lead.ConvertedAt = &later
		lead.Description = "updated"
		lead.UpdatedAt = later
		require.NoError(t, stores.Leads.Update(ctx, lead))

		got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, assigned.LeadID)
		require.NoError(t, err)
		require.Equal(t, "updated", got.Description)
		require.NotNil(t, got.ConvertedAt)
		require.True(t, first.Equal(*got.ConvertedAt))
		require.True(t, later.Equal(got.UpdatedAt), "updated_at is persisted as given")
	})

	t.Run("update cannot move a lead between organisations", func(t *testing.T) {
		lead, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, unassigned.LeadID)
		require.NoError(t, err)

		lead.OrgID = other.Org.OrgID
		require.ErrorIs(t, stores.Leads.Update(ctx, lead), store.ErrLeadNotFound)

		_, err = stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, unassigned.LeadID)
		require.NoError(t, err)
	})

	t.Run("clearing the agent", func(t *testing.T) {
		lead, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, assigned.LeadID)
		require.NoError(t, err)

		lead.AgentID = nil
		require.NoError(t, stores.Leads.Update(ctx, lead))

		got, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, assigned.LeadID)
		require.NoError(t, err)
		require.Nil(t, got.AgentID)
	})

	t.Run("delete", func(t *testing.T) {
		require.ErrorIs(t, stores.Leads.Delete(ctx, store.LeadFilter{OrgID: fx.Org.OrgID}, foreign.LeadID), store.ErrLeadNotFound)
		require.NoError(t, stores.Leads.Delete(ctx, store.LeadFilter{OrgID: other.Org.OrgID}, foreign.LeadID))

		_, err := stores.Leads.Get(ctx, store.LeadFilter{OrgID: other.Org.OrgID}, foreign.LeadID)
		require.ErrorIs(t, err, store.ErrLeadNotFound)
	})
}

func testSessions(t *testing.T, stores store.Stores) {
	ctx := context.Background()
	fx := Seed(t, stores, "sessions")
	now := time.Now().UTC().Truncate(time.Microsecond)

	newSession := func(expiresAt time.Time) *models.Session {
		return &models.Session{
			SessionID:  uuid.Must(uuid.NewV7()),
			UserID:     fx.Organisor.UserID,
			OrgID:      fx.Org.OrgID,
			CreatedAt:  now,
			ExpiresAt:  expiresAt,
			LastUsedAt: now,
			UserAgent:  "test",
			IPAddress:  "127.0.0.1",
		}
	}

	live := newSession(now.Add(time.Hour))
	require.NoError(t, stores.Sessions.Create(ctx, live))

	expired := newSession(now.Add(-time.Hour))
	require.NoError(t, stores.Sessions.Create(ctx, expired))

	got, err := stores.Sessions.Get(ctx, live.SessionID)
	require.NoError(t, err)
	require.Equal(t, fx.Organisor.UserID, got.UserID)
	require.Equal(t, fx.Org.OrgID, got.OrgID)

	_, err = stores.Sessions.Get(ctx, expired.SessionID)
	require.ErrorIs(t, err, store.ErrSessionExpired)

	_, err = stores.Sessions.Get(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrSessionNotFound)

	used := now.Add(time.Minute)
	require.NoError(t, stores.Sessions.UpdateLastUsed(ctx, live.SessionID, used))
	require.ErrorIs(t, stores.Sessions.UpdateLastUsed(ctx, uuid.Must(uuid.NewV7()), used), store.ErrSessionNotFound)

	got, err = stores.Sessions.Get(ctx, live.SessionID)
	require.NoError(t, err)
	require.True(t, used.Equal(got.LastUsedAt))

	require.NoError(t, stores.Sessions.UpdateLastUsed(ctx, live.SessionID, now))
	got, err = stores.Sessions.Get(ctx, live.SessionID)
	require.NoError(t, err)
	require.True(t, used.Equal(got.LastUsedAt), "last use never moves backwards")

	removed, err := stores.Sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	another := newSession(now.Add(time.Hour))
	require.NoError(t, stores.Sessions.Create(ctx, another))
	require.NoError(t, stores.Sessions.Delete(ctx, another.SessionID))
	require.ErrorIs(t, stores.Sessions.Delete(ctx, another.SessionID), store.ErrSessionNotFound)

	removed, err = stores.Sessions.DeleteByUser(ctx, fx.Organisor.UserID)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = stores.Sessions.Get(ctx, live.SessionID)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}
