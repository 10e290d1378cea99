package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/leadtrack/internal/store"
)

// NewStores creates the complete set of stores sharing one connection pool.
func NewStores(pool *pgxpool.Pool) store.Stores {
	return store.Stores{
		Organisations: NewOrganisationStore(pool),
		Users:         NewUserStore(pool),
		Agents:        NewAgentStore(pool),
		Categories:    NewCategoryStore(pool),
		Leads:         NewLeadStore(pool),
		Sessions:      NewSessionStore(pool),
	}
}
