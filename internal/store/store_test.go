package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/leadtrack/internal/models"
)

func TestLeadFilter_Matches(t *testing.T) {
	orgID := uuid.New()
	otherOrg := uuid.New()
	agentID := uuid.New()
	otherAgent := uuid.New()
	categoryID := uuid.New()
	yes, no := true, false

	assigned := &models.Lead{OrgID: orgID, AgentID: &agentID, CategoryID: &categoryID}
	unassigned := &models.Lead{OrgID: orgID}

	tests := []struct {
		name   string
		filter LeadFilter
		lead   *models.Lead
		want   bool
	}{
		{"same org", LeadFilter{OrgID: orgID}, unassigned, true},
		{"other org", LeadFilter{OrgID: otherOrg}, unassigned, false},
		{"agent match", LeadFilter{OrgID: orgID, AgentID: &agentID}, assigned, true},
		{"agent mismatch", LeadFilter{OrgID: orgID, AgentID: &otherAgent}, assigned, false},
		{"agent filter on unassigned", LeadFilter{OrgID: orgID, AgentID: &agentID}, unassigned, false},
		{"assigned only", LeadFilter{OrgID: orgID, Assigned: &yes}, unassigned, false},
		{"unassigned only", LeadFilter{OrgID: orgID, Assigned: &no}, unassigned, true},
		{"unassigned only excludes assigned", LeadFilter{OrgID: orgID, Assigned: &no}, assigned, false},
		{"category match", LeadFilter{OrgID: orgID, CategoryID: &categoryID}, assigned, true},
		{"category on uncategorised", LeadFilter{OrgID: orgID, CategoryID: &categoryID}, unassigned, false},
		{"uncategorised", LeadFilter{OrgID: orgID, Uncategorised: true}, unassigned, true},
		{"uncategorised excludes categorised", LeadFilter{OrgID: orgID, Uncategorised: true}, assigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.Matches(tt.lead))
		})
	}
}

func TestStores_Validate(t *testing.T) {
	err := Stores{}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "all stores")
}
