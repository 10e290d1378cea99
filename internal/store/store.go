package store

import (
	"errors"
)

// Stores bundles the stores for a single backend.
type Stores struct {
	Organisations OrganisationStore
	Users         UserStore
	Agents        AgentStore
	Categories    CategoryStore
	Leads         LeadStore
	Sessions      SessionStore
}

// Validate checks that every store is present.
func (s Stores) Validate() error {
	if s.Organisations == nil || s.Users == nil || s.Agents == nil ||
		s.Categories == nil || s.Leads == nil || s.Sessions == nil {
		return errors.New("all stores (organisations, users, agents, categories, leads, sessions) are required")
	}
	return nil
}
