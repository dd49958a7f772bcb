// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"time"

	"gorm.io/gorm"

	"github.com/MC-Knight/django-bims/internal/conf"
	"github.com/MC-Knight/django-bims/internal/observability/metrics"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Interface abstracts the underlying database implementation and defines the
// read operations the reporting service depends on.
type Interface interface {
	Open() error
	Close() error

	// Taxon groups
	GetTaxonGroup(id uint) (TaxonGroup, error)
	GetSpeciesModuleGroups() ([]TaxonGroup, error)

	// Per-group occurrence metrics
	CountRecords(groupID uint) (int64, error)
	CountDistinctTaxa(groupID uint) (int64, error)
	CountDistinctSites(groupID uint) (int64, error)
	CountDistinctSurveys(groupID uint) (int64, error)

	// Taxa referenced by a group's records
	GetGroupTaxa(groupID uint) ([]Taxonomy, error)
	GetSpeciesPage(groupID uint, search string, limit, offset int) ([]Taxonomy, int64, error)
	FindAncestorByRank(taxonomyID uint, rank string) (*Taxonomy, error)

	// Chart aggregations
	DivisionCounts(groupID uint) ([]NamedCount, error)
	OriginCounts(groupID uint) (map[string]int64, error)
	EndemismCounts(groupID uint) (map[string]int64, error)
	ConservationStatusCounts(groupID uint) (map[string]int64, error)
	EcologicalConditionCounts() ([]EcologicalConditionCount, error)

	// Global metrics for the general summary
	CountSiteVisits() (int64, error)
	CountActiveUsers() (int64, error)
	CountSurveysExcludingOwners(patterns []string) (int64, error)
	CountDownloadRequests() (int64, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB // GORM database instance
	Metrics *metrics.DatastoreMetrics
}

// New creates a new datastore instance based on the provided configuration.
// Returns nil when no database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	case settings.Output.Postgres.Enabled:
		return &PostgresStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// SetMetrics attaches a metrics collector to the datastore. Queries are
// observed only when a collector is set.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.Metrics = m
}

// timeQuery returns a deferred-callable that records the query against the
// metrics collector. errp must point at the named error return of the caller.
func (ds *DataStore) timeQuery(operation string, errp *error) func() {
	start := time.Now()
	return func() {
		if ds.Metrics != nil {
			ds.Metrics.RecordQuery(operation, *errp, time.Since(start))
		}
	}
}
