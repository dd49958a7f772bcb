// internal/api/v2/reports.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MC-Knight/django-bims/internal/datastore"
	"github.com/MC-Knight/django-bims/internal/errors"
)

// surveyOwnerExclusions filters machine and operator accounts out of the
// upload totals, matched case-insensitively against the owner's username.
var surveyOwnerExclusions = []string{"gbif", "admin", "map_vm"}

// chartDataFunc computes the chart section of one module summary
type chartDataFunc func(groupID uint) (map[string]any, error)

// initReportRoutes registers the dashboard reporting endpoints
func (c *Controller) initReportRoutes() {
	reportsGroup := c.Group.Group("/reports")
	reportsGroup.GET("/module-summary", c.GetModuleSummary)
}

// GetModuleSummary handles GET /api/v2/reports/module-summary
// Returns the general summary plus one summary section per species-module
// taxon group, keyed by group name and ordered by display order.
func (c *Controller) GetModuleSummary(ctx echo.Context) error {
	general, err := c.generalSummaryData()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get general summary data", http.StatusInternalServerError)
	}

	groups, err := c.DS.GetSpeciesModuleGroups()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get taxon groups", http.StatusInternalServerError)
	}

	response := map[string]any{
		"general_summary": general,
	}
	for i := range groups {
		group := &groups[i]
		summary, err := c.moduleSummaryData(group)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to get module summary data", http.StatusInternalServerError)
		}
		response[group.Name] = summary
	}

	return ctx.JSON(http.StatusOK, response)
}

// generalSummaryData calculates the key metrics shown above the per-group
// panels: total occurrences, total taxa, active users, uploads and downloads.
// Taxa are counted per group and summed, a taxon shared by two groups counts
// twice.
func (c *Controller) generalSummaryData() (map[string]int64, error) {
	groups, err := c.DS.GetSpeciesModuleGroups()
	if err != nil {
		return nil, err
	}

	var totalOccurrences, totalTaxa int64
	for i := range groups {
		occurrences, err := c.DS.CountRecords(groups[i].ID)
		if err != nil {
			return nil, err
		}
		totalOccurrences += occurrences

		taxa, err := c.DS.CountDistinctTaxa(groups[i].ID)
		if err != nil {
			return nil, err
		}
		totalTaxa += taxa
	}

	totalUsers, err := c.DS.CountActiveUsers()
	if err != nil {
		return nil, err
	}

	totalUploads, err := c.DS.CountSurveysExcludingOwners(surveyOwnerExclusions)
	if err != nil {
		return nil, err
	}

	totalDownloads, err := c.DS.CountDownloadRequests()
	if err != nil {
		return nil, err
	}

	return map[string]int64{
		"total_occurrences": totalOccurrences,
		"total_taxa":        totalTaxa,
		"total_users":       totalUsers,
		"total_uploads":     totalUploads,
		"total_downloads":   totalDownloads,
	}, nil
}

// chartDataFuncs maps each chart mode to its handler. Groups with an empty or
// unknown mode fall through to the conservation status chart.
func (c *Controller) chartDataFuncs() map[string]chartDataFunc {
	return map[string]chartDataFunc{
		datastore.ChartModeDivision: c.divisionChartData,
		datastore.ChartModeOrigin:   c.originChartData,
		datastore.ChartModeEndemism: c.endemismChartData,
		datastore.ChartModeSass:     c.sassChartData,
	}
}

// moduleSummaryData returns the summary section for one taxon group: the
// chart breakdown selected by the group's chart mode plus the hierarchy and
// occurrence totals every panel carries.
func (c *Controller) moduleSummaryData(group *datastore.TaxonGroup) (map[string]any, error) {
	chartFn, ok := c.chartDataFuncs()[group.ChartData]
	if !ok {
		chartFn = c.conservationStatusChartData
	}
	summary, err := chartFn(group.ID)
	if err != nil {
		return nil, err
	}

	// Hierarchy counts work on the denormalized name fields. One taxa scan
	// covers all three totals.
	taxa, err := c.DS.GetGroupTaxa(group.ID)
	if err != nil {
		return nil, err
	}

	orderNames := make(map[string]struct{})
	familyNames := make(map[string]struct{})
	speciesCount := 0
	for i := range taxa {
		t := &taxa[i]
		if t.OrderName != "" {
			orderNames[t.OrderName] = struct{}{}
		}
		if t.FamilyName != "" {
			familyNames[t.FamilyName] = struct{}{}
		}
		if t.Rank == datastore.RankSpecies || t.Rank == datastore.RankSubSpecies {
			speciesCount++
		}
	}

	summary["taxon_group_id"] = group.ID
	summary["orders"] = map[string]int{"total": len(orderNames)}
	summary["families"] = map[string]int{"total": len(familyNames)}
	summary["species"] = map[string]int{"total": speciesCount}

	if group.LogoURL != "" {
		summary["icon"] = group.LogoURL
	}

	total, err := c.DS.CountRecords(group.ID)
	if err != nil {
		return nil, err
	}
	summary["total"] = total

	totalSite, err := c.DS.CountDistinctSites(group.ID)
	if err != nil {
		return nil, err
	}
	summary["total_site"] = totalSite

	totalSiteVisit, err := c.DS.CountDistinctSurveys(group.ID)
	if err != nil {
		return nil, err
	}
	summary["total_site_visit"] = totalSiteVisit

	return summary, nil
}

// divisionChartData counts occurrences by the free-text Division of the
// taxonomy, including the empty bucket for records without one.
func (c *Controller) divisionChartData(groupID uint) (map[string]any, error) {
	counts, err := c.DS.DivisionCounts(groupID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"division": counts}, nil
}

// originChartData counts occurrences by origin and translates the stored
// codes to display labels. A code missing from the lookup is a data error and
// is surfaced instead of panicking.
func (c *Controller) originChartData(groupID uint) (map[string]any, error) {
	counts, err := c.DS.OriginCounts(groupID)
	if err != nil {
		return nil, err
	}

	translated := make(map[string]int64, len(counts))
	for code, count := range counts {
		label, ok := datastore.OriginCategories[code]
		if !ok {
			return nil, errors.Newf("origin code %q has no display category", code).
				Component("reports").
				Category(errors.CategoryValidation).
				Context("taxon_group_id", groupID).
				Build()
		}
		translated[label] = count
	}
	return map[string]any{"origin": translated}, nil
}

// endemismChartData counts occurrences by endemism name. The datastore
// substitutes "Unknown" for taxa without an endemism reference.
func (c *Controller) endemismChartData(groupID uint) (map[string]any, error) {
	counts, err := c.DS.EndemismCounts(groupID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"endemism": counts}, nil
}

// sassChartData reports ecological condition triples plus the grand total of
// site visits. Both are deliberately global rather than scoped to the group.
func (c *Controller) sassChartData(groupID uint) (map[string]any, error) {
	ecological, err := c.DS.EcologicalConditionCounts()
	if err != nil {
		return nil, err
	}

	totalSass, err := c.DS.CountSiteVisits()
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"ecological_data": ecological,
		"total_sass":      totalSass,
	}, nil
}

// conservationStatusChartData is the default chart: occurrence counts by IUCN
// category label. The substituted "Not evaluated" bucket passes through as-is
// while genuinely unknown codes are dropped.
func (c *Controller) conservationStatusChartData(groupID uint) (map[string]any, error) {
	counts, err := c.DS.ConservationStatusCounts(groupID)
	if err != nil {
		return nil, err
	}

	translated := make(map[string]int64, len(counts))
	for code, count := range counts {
		if code == datastore.NotEvaluated {
			translated[code] = count
			continue
		}
		if label, ok := datastore.IUCNCategories[code]; ok {
			translated[label] = count
		}
	}
	return map[string]any{"conservation-status": translated}, nil
}
