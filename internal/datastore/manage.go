package datastore

import (
	"fmt"

	"gorm.io/gorm"
)

// performAutoMigration runs gorm auto-migration for every reporting entity.
// The surrounding application owns these tables in production; migration here
// exists so development and test databases have the schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&User{},
		&Site{},
		&TaxonGroup{},
		&IUCNStatus{},
		&Endemism{},
		&Taxonomy{},
		&Survey{},
		&BiologicalCollectionRecord{},
		&EcologicalCondition{},
		&SiteVisit{},
		&SiteVisitTaxon{},
		&DownloadRequest{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		getDatastoreLogger().Debug("Database connection initialized",
			"type", dbType,
			"connection", connectionInfo)
	}

	return nil
}
