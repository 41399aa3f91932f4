package domain

import "context"

// DashboardStats is the admin dashboard aggregation: entity counts plus the
// ten most recent rows per entity, newest-first, enriched with the related
// server address where one exists.
type DashboardStats struct {
	Users        int64 `json:"users"`
	Servers      int64 `json:"servers"`
	Checks       int64 `json:"checks"`
	Comments     int64 `json:"comments"`
	SavedServers int64 `json:"savedServers"`

	RecentChecks   []Check       `json:"recentChecks"`
	RecentComments []Comment     `json:"recentComments"`
	RecentVotes    []Vote        `json:"recentVotes"`
	RecentUsers    []User        `json:"recentUsers"`
	RecentSaved    []SavedServer `json:"recentSaved"`
}

type AdminRepository interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	// MigrationReset wipes every entity in foreign-key order:
	// comments, sample servers, saved servers, checks, servers (with their
	// vote tokens), tokens, users. Runs in a single transaction.
	MigrationReset(ctx context.Context) error
}
