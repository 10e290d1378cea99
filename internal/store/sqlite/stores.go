package sqlite

import (
	"database/sql"

	"github.com/wolfeidau/leadtrack/internal/store"
)

// NewStores creates the complete set of stores sharing one database handle.
func NewStores(db *sql.DB) store.Stores {
	return store.Stores{
		Organisations: NewOrganisationStore(db),
		Users:         NewUserStore(db),
		Agents:        NewAgentStore(db),
		Categories:    NewCategoryStore(db),
		Leads:         NewLeadStore(db),
		Sessions:      NewSessionStore(db),
	}
}
