package memory

import "github.com/wolfeidau/leadtrack/internal/store"

// NewStores creates a complete set of in-memory stores. Data is lost on restart.
func NewStores() store.Stores {
	users := NewUserStore()
	leads := NewLeadStore()

	return store.Stores{
		Organisations: NewOrganisationStore(),
		Users:         users,
		Agents:        NewAgentStore(users, leads),
		Categories:    NewCategoryStore(leads),
		Leads:         leads,
		Sessions:      NewSessionStore(),
	}
}
