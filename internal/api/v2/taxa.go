// internal/api/v2/taxa.go
package api

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/MC-Knight/django-bims/internal/datastore"
	"github.com/MC-Knight/django-bims/internal/errors"
)

const (
	defaultPage     = 1
	defaultPageSize = 50

	taxonGroupNotFoundMessage = "Taxon group not found"
)

// OrderEntry represents one taxonomic order in the orders listing. ID is nil
// when no formal ORDER node exists in the hierarchy and the denormalized name
// stands in for the scientific name.
type OrderEntry struct {
	ID             *uint  `json:"id"`
	Name           string `json:"name"`
	ScientificName string `json:"scientific_name"`
}

// FamilyEntry represents one taxonomic family in the families listing
type FamilyEntry struct {
	ID             *uint  `json:"id"`
	Name           string `json:"name"`
	ScientificName string `json:"scientific_name"`
	OrderName      string `json:"order_name"`
}

// SpeciesEntry represents one species or subspecies in the species listing
type SpeciesEntry struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	ScientificName     string `json:"scientific_name"`
	Rank               string `json:"rank"`
	FamilyName         string `json:"family_name"`
	OrderName          string `json:"order_name"`
	ConservationStatus string `json:"conservation_status"`
	Origin             string `json:"origin"`
}

// listResponse is the shared envelope of the three listing endpoints
type listResponse struct {
	TaxonGroupID   uint   `json:"taxon_group_id"`
	TaxonGroupName string `json:"taxon_group_name"`
	Data           any    `json:"data"`
	Total          int    `json:"total"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
	HasNext        bool   `json:"has_next"`
	HasPrevious    bool   `json:"has_previous"`
}

// initTaxaRoutes registers the per-group taxa listing endpoints
func (c *Controller) initTaxaRoutes() {
	taxaGroup := c.Group.Group("/taxon-groups")
	taxaGroup.GET("/:taxon_group_id/orders", c.GetTaxonGroupOrders)
	taxaGroup.GET("/:taxon_group_id/families", c.GetTaxonGroupFamilies)
	taxaGroup.GET("/:taxon_group_id/species", c.GetTaxonGroupSpecies)
}

// parseListParams reads pagination and search query parameters, falling back
// to defaults for missing or malformed values.
func parseListParams(ctx echo.Context) (page, pageSize int, search string) {
	page = defaultPage
	if parsed, err := strconv.Atoi(ctx.QueryParam("page")); err == nil && parsed > 0 {
		page = parsed
	}

	pageSize = defaultPageSize
	if parsed, err := strconv.Atoi(ctx.QueryParam("page_size")); err == nil && parsed > 0 {
		pageSize = parsed
	}

	search = ctx.QueryParam("search")
	return page, pageSize, search
}

// pageStart returns the zero-based offset of a page, clamped so the
// multiplication cannot overflow for arbitrarily large page values.
func pageStart(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// paginate slices one page out of a sorted list and reports whether pages
// exist on either side. A page past the end yields an empty slice, never an
// out-of-range panic.
func paginate[T any](items []T, page, pageSize int) (pageItems []T, hasNext, hasPrevious bool) {
	total := len(items)
	start := pageStart(page, pageSize)
	if start >= total {
		return []T{}, false, page > 1
	}

	remaining := total - start
	if remaining > pageSize {
		return items[start : start+pageSize], true, page > 1
	}
	return items[start:total], false, page > 1
}

// taxonGroupFromPath resolves the taxon group named by the path parameter.
// When done is true the response has already been written and the handler
// should return err as-is. An unparseable id is treated the same as an
// unknown one.
func (c *Controller) taxonGroupFromPath(ctx echo.Context) (group *datastore.TaxonGroup, done bool, err error) {
	id, parseErr := strconv.ParseUint(ctx.Param("taxon_group_id"), 10, 32)
	if parseErr != nil {
		return nil, true, ctx.JSON(http.StatusNotFound, map[string]string{"error": taxonGroupNotFoundMessage})
	}

	found, getErr := c.DS.GetTaxonGroup(uint(id))
	if getErr != nil {
		if errors.Is(getErr, datastore.ErrNotFound) {
			return nil, true, ctx.JSON(http.StatusNotFound, map[string]string{"error": taxonGroupNotFoundMessage})
		}
		return nil, true, c.HandleError(ctx, getErr, "Failed to get taxon group", http.StatusInternalServerError)
	}

	return &found, false, nil
}

// GetTaxonGroupOrders handles GET /api/v2/taxon-groups/:taxon_group_id/orders
// Lists the distinct taxonomic orders among the group's records, resolved to
// their ORDER-rank hierarchy node where one exists.
func (c *Controller) GetTaxonGroupOrders(ctx echo.Context) error {
	group, done, err := c.taxonGroupFromPath(ctx)
	if done {
		return err
	}

	page, pageSize, search := parseListParams(ctx)

	taxa, err := c.DS.GetGroupTaxa(group.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get taxa", http.StatusInternalServerError)
	}

	searchLower := strings.ToLower(search)
	entries := make(map[string]OrderEntry)
	for i := range taxa {
		t := &taxa[i]
		name := t.OrderName
		if name == "" || !strings.Contains(strings.ToLower(name), searchLower) {
			continue
		}
		// First taxonomy seen for a name supplies the representative node
		if _, seen := entries[name]; seen {
			continue
		}

		entry := OrderEntry{Name: name, ScientificName: name}
		ancestor, err := c.DS.FindAncestorByRank(t.ID, datastore.RankOrder)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to resolve order taxonomy", http.StatusInternalServerError)
		}
		if ancestor != nil {
			id := ancestor.ID
			entry.ID = &id
			entry.ScientificName = ancestor.ScientificName
		}
		entries[name] = entry
	}

	orders := make([]OrderEntry, 0, len(entries))
	for _, entry := range entries {
		orders = append(orders, entry)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Name < orders[j].Name })

	pageItems, hasNext, hasPrevious := paginate(orders, page, pageSize)

	return ctx.JSON(http.StatusOK, listResponse{
		TaxonGroupID:   group.ID,
		TaxonGroupName: group.Name,
		Data:           pageItems,
		Total:          len(orders),
		Page:           page,
		PageSize:       pageSize,
		HasNext:        hasNext,
		HasPrevious:    hasPrevious,
	})
}

// GetTaxonGroupFamilies handles GET /api/v2/taxon-groups/:taxon_group_id/families
// Lists the distinct taxonomic families among the group's records, each with
// the order it belongs to.
func (c *Controller) GetTaxonGroupFamilies(ctx echo.Context) error {
	group, done, err := c.taxonGroupFromPath(ctx)
	if done {
		return err
	}

	page, pageSize, search := parseListParams(ctx)

	taxa, err := c.DS.GetGroupTaxa(group.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get taxa", http.StatusInternalServerError)
	}

	searchLower := strings.ToLower(search)
	entries := make(map[string]FamilyEntry)
	for i := range taxa {
		t := &taxa[i]
		name := t.FamilyName
		if name == "" || !strings.Contains(strings.ToLower(name), searchLower) {
			continue
		}
		// First taxonomy seen for a name supplies the representative node
		if _, seen := entries[name]; seen {
			continue
		}

		entry := FamilyEntry{Name: name, ScientificName: name, OrderName: t.OrderName}
		ancestor, err := c.DS.FindAncestorByRank(t.ID, datastore.RankFamily)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to resolve family taxonomy", http.StatusInternalServerError)
		}
		if ancestor != nil {
			id := ancestor.ID
			entry.ID = &id
			entry.ScientificName = ancestor.ScientificName
		}
		entries[name] = entry
	}

	families := make([]FamilyEntry, 0, len(entries))
	for _, entry := range entries {
		families = append(families, entry)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].Name < families[j].Name })

	pageItems, hasNext, hasPrevious := paginate(families, page, pageSize)

	return ctx.JSON(http.StatusOK, listResponse{
		TaxonGroupID:   group.ID,
		TaxonGroupName: group.Name,
		Data:           pageItems,
		Total:          len(families),
		Page:           page,
		PageSize:       pageSize,
		HasNext:        hasNext,
		HasPrevious:    hasPrevious,
	})
}

// GetTaxonGroupSpecies handles GET /api/v2/taxon-groups/:taxon_group_id/species
// Lists the species- and subspecies-rank taxa among the group's records.
// Search and pagination are pushed down to the datastore so large groups page
// in the database. The search semantics match the in-memory filtering of the
// orders and families listings.
func (c *Controller) GetTaxonGroupSpecies(ctx echo.Context) error {
	group, done, err := c.taxonGroupFromPath(ctx)
	if done {
		return err
	}

	page, pageSize, search := parseListParams(ctx)

	offset := pageStart(page, pageSize)
	taxa, total, err := c.DS.GetSpeciesPage(group.ID, search, pageSize, offset)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get species", http.StatusInternalServerError)
	}

	species := make([]SpeciesEntry, 0, len(taxa))
	for i := range taxa {
		t := &taxa[i]

		name := t.CanonicalName
		if name == "" {
			name = t.ScientificName
		}

		conservationStatus := datastore.NotEvaluated
		if t.IUCNStatus != nil {
			conservationStatus = t.IUCNStatus.Category
		}

		origin := "Unknown"
		if t.Origin != "" {
			if label, ok := datastore.OriginCategories[t.Origin]; ok {
				origin = label
			}
		}

		species = append(species, SpeciesEntry{
			ID:                 t.ID,
			Name:               name,
			ScientificName:     t.ScientificName,
			Rank:               t.Rank,
			FamilyName:         t.FamilyName,
			OrderName:          t.OrderName,
			ConservationStatus: conservationStatus,
			Origin:             origin,
		})
	}

	return ctx.JSON(http.StatusOK, listResponse{
		TaxonGroupID:   group.ID,
		TaxonGroupName: group.Name,
		Data:           species,
		Total:          int(total),
		Page:           page,
		PageSize:       pageSize,
		HasNext:        total-int64(offset) > int64(pageSize),
		HasPrevious:    page > 1,
	})
}
