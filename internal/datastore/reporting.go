// reporting.go: aggregation queries behind the dashboard and listing endpoints
package datastore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// maxAncestorDepth bounds the parent walk in FindAncestorByRank so a cyclic
// hierarchy cannot loop forever.
const maxAncestorDepth = 30

// GetTaxonGroup retrieves a taxon group by its ID.
func (ds *DataStore) GetTaxonGroup(id uint) (group TaxonGroup, err error) {
	defer ds.timeQuery("get_taxon_group", &err)()

	if err = ds.DB.First(&group, id).Error; err != nil {
		err = fmt.Errorf("getting taxon group with ID %d: %w", id, err)
		return TaxonGroup{}, err
	}
	return group, nil
}

// GetSpeciesModuleGroups retrieves all species-module taxon groups ordered by
// their configured display order.
func (ds *DataStore) GetSpeciesModuleGroups() (groups []TaxonGroup, err error) {
	defer ds.timeQuery("get_species_module_groups", &err)()

	if err = ds.DB.
		Where("category = ?", CategorySpeciesModule).
		Order("display_order").
		Find(&groups).Error; err != nil {
		err = fmt.Errorf("getting species module groups: %w", err)
		return nil, err
	}
	return groups, nil
}

// groupRecords returns a query over the occurrence records of one taxon group.
func (ds *DataStore) groupRecords(groupID uint) *gorm.DB {
	return ds.DB.Model(&BiologicalCollectionRecord{}).
		Where("biological_collection_records.module_group_id = ?", groupID)
}

// groupTaxonIDs returns a subquery selecting the distinct taxonomy IDs
// referenced by a group's records.
func (ds *DataStore) groupTaxonIDs(groupID uint) *gorm.DB {
	return ds.DB.Model(&BiologicalCollectionRecord{}).
		Select("DISTINCT taxonomy_id").
		Where("module_group_id = ?", groupID)
}

// CountRecords returns the total number of occurrence records in a group.
func (ds *DataStore) CountRecords(groupID uint) (count int64, err error) {
	defer ds.timeQuery("count_records", &err)()

	if err = ds.groupRecords(groupID).Count(&count).Error; err != nil {
		err = fmt.Errorf("counting records for group %d: %w", groupID, err)
		return 0, err
	}
	return count, nil
}

// CountDistinctTaxa returns the number of distinct taxa referenced by a
// group's records.
func (ds *DataStore) CountDistinctTaxa(groupID uint) (count int64, err error) {
	defer ds.timeQuery("count_distinct_taxa", &err)()

	if err = ds.groupRecords(groupID).Distinct("taxonomy_id").Count(&count).Error; err != nil {
		err = fmt.Errorf("counting distinct taxa for group %d: %w", groupID, err)
		return 0, err
	}
	return count, nil
}

// CountDistinctSites returns the number of distinct sites in a group's records.
func (ds *DataStore) CountDistinctSites(groupID uint) (count int64, err error) {
	defer ds.timeQuery("count_distinct_sites", &err)()

	if err = ds.groupRecords(groupID).Distinct("site_id").Count(&count).Error; err != nil {
		err = fmt.Errorf("counting distinct sites for group %d: %w", groupID, err)
		return 0, err
	}
	return count, nil
}

// CountDistinctSurveys returns the number of distinct surveys in a group's
// records.
func (ds *DataStore) CountDistinctSurveys(groupID uint) (count int64, err error) {
	defer ds.timeQuery("count_distinct_surveys", &err)()

	if err = ds.groupRecords(groupID).Distinct("survey_id").Count(&count).Error; err != nil {
		err = fmt.Errorf("counting distinct surveys for group %d: %w", groupID, err)
		return 0, err
	}
	return count, nil
}

// GetGroupTaxa retrieves the distinct taxonomies referenced by a group's
// records. Only the taxonomy rows themselves are loaded since the order and
// family breakdowns work on the denormalized name fields.
func (ds *DataStore) GetGroupTaxa(groupID uint) (taxa []Taxonomy, err error) {
	defer ds.timeQuery("get_group_taxa", &err)()

	if err = ds.DB.
		Where("id IN (?)", ds.groupTaxonIDs(groupID)).
		Find(&taxa).Error; err != nil {
		err = fmt.Errorf("getting taxa for group %d: %w", groupID, err)
		return nil, err
	}
	return taxa, nil
}

// GetSpeciesPage retrieves one page of species- and subspecies-rank taxa
// referenced by a group's records, with an optional case-insensitive substring
// search on canonical or scientific name. The search and pagination run in the
// database so large groups never materialize in memory. Rows are ordered by ID
// so paging is stable across requests.
func (ds *DataStore) GetSpeciesPage(groupID uint, search string, limit, offset int) (taxa []Taxonomy, total int64, err error) {
	defer ds.timeQuery("get_species_page", &err)()

	query := ds.DB.Model(&Taxonomy{}).
		Where("id IN (?)", ds.groupTaxonIDs(groupID)).
		Where("taxonomies.rank IN ?", []string{RankSpecies, RankSubSpecies})

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(canonical_name) LIKE ? OR LOWER(scientific_name) LIKE ?", pattern, pattern)
	}

	if err = query.Count(&total).Error; err != nil {
		err = fmt.Errorf("counting species for group %d: %w", groupID, err)
		return nil, 0, err
	}

	if err = query.
		Preload("IUCNStatus").
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&taxa).Error; err != nil {
		err = fmt.Errorf("getting species page for group %d: %w", groupID, err)
		return nil, 0, err
	}
	return taxa, total, nil
}

// FindAncestorByRank walks the parent chain of a taxonomy and returns the
// nearest ancestor of the given rank. Returns nil without error when the
// hierarchy has no node of that rank. Legacy data predating the formal
// ORDER/FAMILY nodes commonly hits this.
func (ds *DataStore) FindAncestorByRank(taxonomyID uint, rank string) (node *Taxonomy, err error) {
	defer ds.timeQuery("find_ancestor_by_rank", &err)()

	var current Taxonomy
	if err = ds.DB.First(&current, taxonomyID).Error; err != nil {
		err = fmt.Errorf("getting taxonomy with ID %d: %w", taxonomyID, err)
		return nil, err
	}

	for depth := 0; depth < maxAncestorDepth; depth++ {
		if current.Rank == rank {
			result := current
			return &result, nil
		}
		if current.ParentID == nil {
			return nil, nil
		}
		if err = ds.DB.First(&current, *current.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling parent reference, treat as missing ancestor
				return nil, nil
			}
			err = fmt.Errorf("walking ancestry of taxonomy %d: %w", taxonomyID, err)
			return nil, err
		}
	}
	return nil, nil
}

// DivisionCounts returns occurrence counts grouped by the free-text Division
// field of the taxonomy. Records whose taxonomy has no division form their own
// bucket with an empty name.
func (ds *DataStore) DivisionCounts(groupID uint) (counts []NamedCount, err error) {
	defer ds.timeQuery("division_counts", &err)()

	if err = ds.groupRecords(groupID).
		Select("taxonomies.division as name, COUNT(*) as count").
		Joins("JOIN taxonomies ON taxonomies.id = biological_collection_records.taxonomy_id").
		Group("taxonomies.division").
		Order("taxonomies.division").
		Scan(&counts).Error; err != nil {
		err = fmt.Errorf("getting division counts for group %d: %w", groupID, err)
		return nil, err
	}
	return counts, nil
}

// OriginCounts returns occurrence counts grouped by origin code, excluding
// records with an empty origin. Translation of codes to display labels happens
// in the API layer.
func (ds *DataStore) OriginCounts(groupID uint) (counts map[string]int64, err error) {
	defer ds.timeQuery("origin_counts", &err)()

	var rows []NamedCount
	if err = ds.groupRecords(groupID).
		Select("taxonomies.origin as name, COUNT(*) as count").
		Joins("JOIN taxonomies ON taxonomies.id = biological_collection_records.taxonomy_id").
		Where("taxonomies.origin <> ''").
		Group("taxonomies.origin").
		Scan(&rows).Error; err != nil {
		err = fmt.Errorf("getting origin counts for group %d: %w", groupID, err)
		return nil, err
	}

	counts = make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}

// EndemismCounts returns occurrence counts grouped by endemism name, with
// "Unknown" substituted for records whose taxonomy has no endemism reference.
func (ds *DataStore) EndemismCounts(groupID uint) (counts map[string]int64, err error) {
	defer ds.timeQuery("endemism_counts", &err)()

	var rows []NamedCount
	if err = ds.groupRecords(groupID).
		Select("COALESCE(endemisms.name, ?) as name, COUNT(*) as count", "Unknown").
		Joins("JOIN taxonomies ON taxonomies.id = biological_collection_records.taxonomy_id").
		Joins("LEFT JOIN endemisms ON endemisms.id = taxonomies.endemism_id").
		Group("COALESCE(endemisms.name, 'Unknown')").
		Scan(&rows).Error; err != nil {
		err = fmt.Errorf("getting endemism counts for group %d: %w", groupID, err)
		return nil, err
	}

	counts = make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}

// ConservationStatusCounts returns occurrence counts grouped by IUCN status
// code, excluding records with an empty origin. Records without a status are
// grouped under the "Not evaluated" label. Translation of codes to display
// labels happens in the API layer.
func (ds *DataStore) ConservationStatusCounts(groupID uint) (counts map[string]int64, err error) {
	defer ds.timeQuery("conservation_status_counts", &err)()

	var rows []NamedCount
	if err = ds.groupRecords(groupID).
		Select("COALESCE(iucn_statuses.category, ?) as name, COUNT(*) as count", NotEvaluated).
		Joins("JOIN taxonomies ON taxonomies.id = biological_collection_records.taxonomy_id").
		Joins("LEFT JOIN iucn_statuses ON iucn_statuses.id = taxonomies.iucn_status_id").
		Where("taxonomies.origin <> ''").
		Group("COALESCE(iucn_statuses.category, 'Not evaluated')").
		Scan(&rows).Error; err != nil {
		err = fmt.Errorf("getting conservation status counts for group %d: %w", groupID, err)
		return nil, err
	}

	counts = make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}

// EcologicalConditionCounts returns (category, count, colour) triples over all
// site-visit taxa whose visit carries an ecological condition classification,
// ordered by category ascending. Not scoped to a taxon group.
func (ds *DataStore) EcologicalConditionCounts() (counts []EcologicalConditionCount, err error) {
	defer ds.timeQuery("ecological_condition_counts", &err)()

	if err = ds.DB.Model(&SiteVisitTaxon{}).
		Select("ecological_conditions.category as category, COUNT(*) as count, ecological_conditions.colour as colour").
		Joins("JOIN site_visits ON site_visits.id = site_visit_taxa.site_visit_id").
		Joins("JOIN ecological_conditions ON ecological_conditions.id = site_visits.ecological_condition_id").
		Group("ecological_conditions.category, ecological_conditions.colour").
		Order("category ASC").
		Scan(&counts).Error; err != nil {
		err = fmt.Errorf("getting ecological condition counts: %w", err)
		return nil, err
	}
	return counts, nil
}

// CountSiteVisits returns the total number of site visits. Deliberately
// global: the dashboard shows this unscoped next to the sass chart.
func (ds *DataStore) CountSiteVisits() (count int64, err error) {
	defer ds.timeQuery("count_site_visits", &err)()

	if err = ds.DB.Model(&SiteVisit{}).Count(&count).Error; err != nil {
		err = fmt.Errorf("counting site visits: %w", err)
		return 0, err
	}
	return count, nil
}

// CountActiveUsers returns the number of users who have logged in at least
// once.
func (ds *DataStore) CountActiveUsers() (count int64, err error) {
	defer ds.timeQuery("count_active_users", &err)()

	if err = ds.DB.Model(&User{}).
		Where("last_login IS NOT NULL").
		Count(&count).Error; err != nil {
		err = fmt.Errorf("counting active users: %w", err)
		return 0, err
	}
	return count, nil
}

// CountSurveysExcludingOwners returns the number of surveys whose owner's
// username does not contain any of the given substrings, case-insensitively.
// Used to keep machine accounts out of the upload totals.
func (ds *DataStore) CountSurveysExcludingOwners(patterns []string) (count int64, err error) {
	defer ds.timeQuery("count_surveys_excluding_owners", &err)()

	query := ds.DB.Model(&Survey{}).
		Joins("JOIN users ON users.id = surveys.owner_id")
	for _, pattern := range patterns {
		query = query.Where("LOWER(users.username) NOT LIKE ?", "%"+strings.ToLower(pattern)+"%")
	}

	if err = query.Count(&count).Error; err != nil {
		err = fmt.Errorf("counting surveys excluding owners: %w", err)
		return 0, err
	}
	return count, nil
}

// CountDownloadRequests returns the total number of logged download requests.
func (ds *DataStore) CountDownloadRequests() (count int64, err error) {
	defer ds.timeQuery("count_download_requests", &err)()

	if err = ds.DB.Model(&DownloadRequest{}).Count(&count).Error; err != nil {
		err = fmt.Errorf("counting download requests: %w", err)
		return 0, err
	}
	return count, nil
}
