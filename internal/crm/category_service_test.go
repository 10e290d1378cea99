package crm

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/models"
)

func TestCategoryService_List(t *testing.T) {
	f := newFixture(t)

	newID := f.category(f.acme.organisor, "New")
	convertedID := f.category(f.acme.organisor, models.ConvertedCategoryName)

	in := LeadInput{FirstName: "a", LastName: "b", CategoryID: newID}
	_, err := f.leads.Create(f.ctx, f.acme.organisor, in)
	require.NoError(t, err)

	mineID := f.acme.agent.AgentID
	in = LeadInput{FirstName: "c", LastName: "d", CategoryID: convertedID, AgentID: &mineID}
	_, err = f.leads.Create(f.ctx, f.acme.organisor, in)
	require.NoError(t, err)

	f.createLead(f.acme.organisor, "loose", &f.acme.agent)

	counts := func(list *CategoryList) map[string]int {
		out := make(map[string]int)
		for _, c := range list.Categories {
			out[c.Name] = c.LeadCount
		}
		return out
	}

	t.Run("organisor counts every lead", func(t *testing.T) {
		list, err := f.categories.List(f.ctx, f.acme.organisor)
		require.NoError(t, err)
		require.Equal(t, map[string]int{"Contacted": 0, "Converted": 1, "New": 1, "Unconverted": 0}, counts(list))
		require.Equal(t, 1, list.UncategorisedCount)
		require.Equal(t, 1, list.UnassignedCount)
	})

	t.Run("agent counts only their leads", func(t *testing.T) {
		list, err := f.categories.List(f.ctx, f.acme.agent)
		require.NoError(t, err)
		require.Equal(t, map[string]int{"Contacted": 0, "Converted": 1, "New": 0, "Unconverted": 0}, counts(list))
		require.Equal(t, 1, list.UncategorisedCount)
	})

	t.Run("other organisation sees its own categories only", func(t *testing.T) {
		list, err := f.categories.List(f.ctx, f.globex.organisor)
		require.NoError(t, err)
		require.Len(t, list.Categories, len(models.DefaultCategoryNames))
		for _, c := range list.Categories {
			require.Equal(t, f.globex.organisor.OrgID, c.OrgID)
			require.Zero(t, c.LeadCount)
		}
	})
}

func TestCategoryService_Get(t *testing.T) {
	f := newFixture(t)
	newID := f.category(f.acme.organisor, "New")

	agentID := f.acme.agent.AgentID
	mine, err := f.leads.Create(f.ctx, f.acme.organisor, LeadInput{FirstName: "m", LastName: "x", CategoryID: newID, AgentID: &agentID})
	require.NoError(t, err)
	_, err = f.leads.Create(f.ctx, f.acme.organisor, LeadInput{FirstName: "o", LastName: "x", CategoryID: newID})
	require.NoError(t, err)

	detail, err := f.categories.Get(f.ctx, f.acme.agent, *newID)
	require.NoError(t, err)
	require.Equal(t, "New", detail.Category.Name)
	require.Equal(t, []uuid.UUID{mine.LeadID}, leadIDs(detail.Leads))

	detail, err = f.categories.Get(f.ctx, f.acme.organisor, *newID)
	require.NoError(t, err)
	require.Len(t, detail.Leads, 2)

	_, err = f.categories.Get(f.ctx, f.globex.organisor, *newID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCategoryService_Create(t *testing.T) {
	f := newFixture(t)

	category, err := f.categories.Create(f.ctx, f.acme.organisor, CategoryInput{Name: "  Hot  "})
	require.NoError(t, err)
	require.Equal(t, "Hot", category.Name)
	require.Equal(t, f.acme.organisor.OrgID, category.OrgID)

	// Names are unique per organisation, not globally
	_, err = f.categories.Create(f.ctx, f.globex.organisor, CategoryInput{Name: "Hot"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   CategoryInput
	}{
		{"duplicate", CategoryInput{Name: "Hot"}},
		{"empty", CategoryInput{Name: "   "}},
		{"too long", CategoryInput{Name: strings.Repeat("c", maxCategoryNameLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.Create(f.ctx, f.acme.organisor, tt.in)
			requireValidation(t, err, "name")
		})
	}

	_, err = f.categories.Create(f.ctx, f.acme.agent, CategoryInput{Name: "Cold"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCategoryService_Update(t *testing.T) {
	f := newFixture(t)
	contacted := f.category(f.acme.organisor, "Contacted")
	converted := f.category(f.acme.organisor, models.ConvertedCategoryName)

	renamed, err := f.categories.Update(f.ctx, f.acme.organisor, *contacted, CategoryInput{Name: "Called"})
	require.NoError(t, err)
	require.Equal(t, "Called", renamed.Name)

	_, err = f.categories.Update(f.ctx, f.acme.organisor, *contacted, CategoryInput{Name: "New"})
	requireValidation(t, err, "name")

	_, err = f.categories.Update(f.ctx, f.acme.organisor, *converted, CategoryInput{Name: "Won"})
	requireValidation(t, err, "name")

	_, err = f.categories.Update(f.ctx, f.acme.organisor, *converted, CategoryInput{Name: models.ConvertedCategoryName})
	require.NoError(t, err)

	_, err = f.categories.Update(f.ctx, f.globex.organisor, *contacted, CategoryInput{Name: "Mine"})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.categories.Update(f.ctx, f.acme.agent, *contacted, CategoryInput{Name: "Agent"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCategoryService_Delete(t *testing.T) {
	f := newFixture(t)
	newID := f.category(f.acme.organisor, "New")
	converted := f.category(f.acme.organisor, models.ConvertedCategoryName)

	lead, err := f.leads.Create(f.ctx, f.acme.organisor, LeadInput{FirstName: "n", LastName: "x", CategoryID: newID})
	require.NoError(t, err)

	require.ErrorIs(t, f.categories.Delete(f.ctx, f.acme.agent, *newID), ErrForbidden)
	require.ErrorIs(t, f.categories.Delete(f.ctx, f.globex.organisor, *newID), ErrNotFound)
	requireValidation(t, f.categories.Delete(f.ctx, f.acme.organisor, *converted), "name")

	require.NoError(t, f.categories.Delete(f.ctx, f.acme.organisor, *newID))

	stored, err := f.leads.Get(f.ctx, f.acme.organisor, lead.LeadID)
	require.NoError(t, err)
	require.Nil(t, stored.CategoryID)
}

func TestCategoryService_EnsureDefaults(t *testing.T) {
	f := newFixture(t)

	// Idempotent for an already provisioned organisation
	require.NoError(t, f.categories.EnsureDefaults(f.ctx, f.acme.organisor.OrgID))

	list, err := f.categories.List(f.ctx, f.acme.organisor)
	require.NoError(t, err)
	require.Len(t, list.Categories, len(models.DefaultCategoryNames))
}
