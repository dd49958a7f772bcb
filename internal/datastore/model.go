// model.go this code defines the data model for the reporting service
package datastore

import "time"

// Taxon group categories, only species-module groups are reported on
const (
	CategorySpeciesModule = "SPECIES_MODULE"
)

// Chart modes selecting which aggregate breakdown a taxon group panel shows
const (
	ChartModeDivision = "division"
	ChartModeOrigin   = "origin"
	ChartModeEndemism = "endemism"
	ChartModeSass     = "sass"
)

// Taxonomic ranks stored on Taxonomy.Rank
const (
	RankOrder      = "ORDER"
	RankFamily     = "FAMILY"
	RankGenus      = "GENUS"
	RankSpecies    = "SPECIES"
	RankSubSpecies = "SUBSPECIES"
)

// NotEvaluated is the label substituted for a missing conservation status
const NotEvaluated = "Not evaluated"

// OriginCategories translates stored origin codes to display labels
var OriginCategories = map[string]string{
	"alien":      "Non-Native",
	"indigenous": "Native",
	"unknown":    "Unknown",
}

// IUCNCategories translates stored IUCN status codes to display labels
var IUCNCategories = map[string]string{
	"LC": "Least concern",
	"NT": "Near threatened",
	"VU": "Vulnerable",
	"EN": "Endangered",
	"CR": "Critically endangered",
	"EW": "Extinct in the wild",
	"EX": "Extinct",
	"DD": "Data deficient",
	"NE": NotEvaluated,
}

// TaxonGroup is a curated category of taxa shown as one dashboard panel
type TaxonGroup struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"index:idx_taxon_groups_name"`
	Category     string `gorm:"index:idx_taxon_groups_category"`
	DisplayOrder int
	ChartData    string // chart mode selector, empty for the default chart
	LogoURL      string // icon shown on the dashboard, empty when not configured
}

// Taxonomy is a node in the taxonomic hierarchy. OrderName and FamilyName are
// denormalized from the ancestry for fast reporting, Division is free-text
// carried over from ingested additional data.
type Taxonomy struct {
	ID             uint   `gorm:"primaryKey"`
	CanonicalName  string `gorm:"index:idx_taxonomies_canonical_name"`
	ScientificName string `gorm:"index:idx_taxonomies_scientific_name"`
	Rank           string `gorm:"index:idx_taxonomies_rank"`
	OrderName      string
	FamilyName     string
	Origin         string // origin code, key into OriginCategories
	Division       string

	ParentID *uint
	Parent   *Taxonomy `gorm:"foreignKey:ParentID"`

	EndemismID *uint
	Endemism   *Endemism `gorm:"foreignKey:EndemismID"`

	IUCNStatusID *uint       `gorm:"column:iucn_status_id"`
	IUCNStatus   *IUCNStatus `gorm:"foreignKey:IUCNStatusID"`
}

// IUCNStatus is a conservation status lookup entry storing the IUCN code
type IUCNStatus struct {
	ID       uint   `gorm:"primaryKey"`
	Category string `gorm:"index"`
}

// TableName overrides the default gorm pluralization for the acronym
func (IUCNStatus) TableName() string {
	return "iucn_statuses"
}

// Endemism is an endemism classification lookup entry
type Endemism struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"index"`
}

// Site is a physical location where records are collected
type Site struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

// User is a minimal account record, owned by the surrounding application
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	LastLogin *time.Time
}

// Survey is a data collection event owned by a user
type Survey struct {
	ID      uint  `gorm:"primaryKey"`
	SiteID  uint  `gorm:"index"`
	OwnerID uint  `gorm:"index"`
	Owner   *User `gorm:"foreignKey:OwnerID"`
	Date    time.Time
}

// BiologicalCollectionRecord is a single occurrence record. It always
// references exactly one taxon group and one taxonomy.
type BiologicalCollectionRecord struct {
	ID             uint        `gorm:"primaryKey"`
	SiteID         uint        `gorm:"index:idx_records_site"`
	SurveyID       uint        `gorm:"index:idx_records_survey"`
	TaxonomyID     uint        `gorm:"index:idx_records_taxonomy"`
	Taxonomy       *Taxonomy   `gorm:"foreignKey:TaxonomyID"`
	ModuleGroupID  uint        `gorm:"index:idx_records_module_group"`
	ModuleGroup    *TaxonGroup `gorm:"foreignKey:ModuleGroupID"`
	CollectionDate time.Time
}

// EcologicalCondition classifies the ecological state observed at a site
// visit, with a display colour for charts
type EcologicalCondition struct {
	ID       uint   `gorm:"primaryKey"`
	Category string `gorm:"index"`
	Colour   string
}

// SiteVisit is a visit-level record which may carry an ecological condition
// classification
type SiteVisit struct {
	ID                    uint                 `gorm:"primaryKey"`
	SiteID                uint                 `gorm:"index"`
	EcologicalConditionID *uint                `gorm:"index"`
	EcologicalCondition   *EcologicalCondition `gorm:"foreignKey:EcologicalConditionID"`
	VisitDate             time.Time
}

// SiteVisitTaxon links a taxon observation to a site visit
type SiteVisitTaxon struct {
	ID          uint       `gorm:"primaryKey"`
	SiteVisitID uint       `gorm:"index"`
	SiteVisit   *SiteVisit `gorm:"foreignKey:SiteVisitID"`
	TaxonomyID  uint       `gorm:"index"`
}

// TableName overrides the default gorm pluralization
func (SiteVisitTaxon) TableName() string {
	return "site_visit_taxa"
}

// DownloadRequest logs a data export request. Reporting only counts these rows.
type DownloadRequest struct {
	ID          uint `gorm:"primaryKey"`
	RequesterID uint
	CreatedAt   time.Time
}

// NamedCount is a single bucket of a grouped count query
type NamedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// EcologicalConditionCount is one bucket of the sass chart, keyed by
// ecological condition category with its display colour
type EcologicalConditionCount struct {
	Category string `json:"value" gorm:"column:category"`
	Count    int64  `json:"count"`
	Colour   string `json:"color" gorm:"column:colour"`
}
