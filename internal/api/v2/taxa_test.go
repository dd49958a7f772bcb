// internal/api/v2/taxa_test.go
package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MC-Knight/django-bims/internal/datastore"
)

// callListHandler invokes one of the listing handlers with the given path id
// and query string, returning the recorder and the decoded response envelope.
func callListHandler(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, groupID, query string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	target := "/api/v2/taxon-groups/" + groupID + "/x"
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("taxon_group_id")
	ctx.SetParamValues(groupID)

	require.NoError(t, handler(ctx))

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return rec, response
}

func fishGroup() datastore.TaxonGroup {
	return datastore.TaxonGroup{ID: 1, Name: "Fish", Category: datastore.CategorySpeciesModule}
}

// fishTaxa spans three orders so page_size=2 splits the listing into a full
// first page and a one-entry second page.
func fishTaxa() []datastore.Taxonomy {
	return []datastore.Taxonomy{
		{ID: 21, Rank: datastore.RankSpecies, OrderName: "Cypriniformes", FamilyName: "Cyprinidae"},
		{ID: 22, Rank: datastore.RankSpecies, OrderName: "Siluriformes", FamilyName: "Clariidae"},
		{ID: 23, Rank: datastore.RankSpecies, OrderName: "Anabantiformes", FamilyName: "Anabantidae"},
		{ID: 24, Rank: datastore.RankSpecies, OrderName: "Cypriniformes", FamilyName: "Danionidae"},
	}
}

func TestGetTaxonGroupOrdersPagination(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)
	mockDS.On("GetGroupTaxa", uint(1)).Return(fishTaxa(), nil)
	mockDS.On("FindAncestorByRank", mock.AnythingOfType("uint"), datastore.RankOrder).Return(nil, nil)

	rec, response := callListHandler(t, e, controller.GetTaxonGroupOrders, "1", "page=1&page_size=2")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(1), response["taxon_group_id"])
	assert.Equal(t, "Fish", response["taxon_group_name"])
	assert.Equal(t, float64(3), response["total"])
	assert.Equal(t, float64(1), response["page"])
	assert.Equal(t, float64(2), response["page_size"])
	assert.Equal(t, true, response["has_next"])
	assert.Equal(t, false, response["has_previous"])

	data := response["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	second := data[1].(map[string]any)
	assert.Equal(t, "Anabantiformes", first["name"], "orders should sort by name")
	assert.Equal(t, "Cypriniformes", second["name"])

	_, response = callListHandler(t, e, controller.GetTaxonGroupOrders, "1", "page=2&page_size=2")
	data = response["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "Siluriformes", data[0].(map[string]any)["name"])
	assert.Equal(t, false, response["has_next"])
	assert.Equal(t, true, response["has_previous"])
}

func TestGetTaxonGroupOrdersAncestorResolution(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	taxa := []datastore.Taxonomy{
		{ID: 21, Rank: datastore.RankSpecies, OrderName: "Cypriniformes"},
		{ID: 22, Rank: datastore.RankSpecies, OrderName: "Siluriformes"},
	}
	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)
	mockDS.On("GetGroupTaxa", uint(1)).Return(taxa, nil)
	mockDS.On("FindAncestorByRank", uint(21), datastore.RankOrder).Return(&datastore.Taxonomy{
		ID:             900,
		ScientificName: "Cypriniformes Bleeker, 1859",
		Rank:           datastore.RankOrder,
	}, nil)
	mockDS.On("FindAncestorByRank", uint(22), datastore.RankOrder).Return(nil, nil)

	rec, response := callListHandler(t, e, controller.GetTaxonGroupOrders, "1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := response["data"].([]any)
	require.Len(t, data, 2)

	resolved := data[0].(map[string]any)
	assert.Equal(t, float64(900), resolved["id"])
	assert.Equal(t, "Cypriniformes", resolved["name"])
	assert.Equal(t, "Cypriniformes Bleeker, 1859", resolved["scientific_name"])

	fallback := data[1].(map[string]any)
	assert.Nil(t, fallback["id"], "unresolved orders should carry a null id")
	assert.Equal(t, "Siluriformes", fallback["name"])
	assert.Equal(t, "Siluriformes", fallback["scientific_name"], "name stands in for the scientific name")
}

func TestGetTaxonGroupOrdersSearch(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)
	mockDS.On("GetGroupTaxa", uint(1)).Return(fishTaxa(), nil)
	mockDS.On("FindAncestorByRank", mock.AnythingOfType("uint"), datastore.RankOrder).Return(nil, nil)

	_, response := callListHandler(t, e, controller.GetTaxonGroupOrders, "1", "search=CYPRIN")
	data := response["data"].([]any)
	require.Len(t, data, 1, "search should match case-insensitively")
	assert.Equal(t, "Cypriniformes", data[0].(map[string]any)["name"])
	assert.Equal(t, float64(1), response["total"], "total should reflect the filtered count")
}

func TestGetTaxonGroupFamilies(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)
	mockDS.On("GetGroupTaxa", uint(1)).Return(fishTaxa(), nil)
	mockDS.On("FindAncestorByRank", mock.AnythingOfType("uint"), datastore.RankFamily).Return(nil, nil)

	rec, response := callListHandler(t, e, controller.GetTaxonGroupFamilies, "1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), response["total"])

	data := response["data"].([]any)
	require.Len(t, data, 4)
	first := data[0].(map[string]any)
	assert.Equal(t, "Anabantidae", first["name"])
	assert.Equal(t, "Anabantiformes", first["order_name"], "families should carry their order")
}

func TestGetTaxonGroupSpecies(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)

	rows := []datastore.Taxonomy{
		{
			ID:             31,
			CanonicalName:  "Clarias gariepinus",
			ScientificName: "Clarias gariepinus (Burchell, 1822)",
			Rank:           datastore.RankSpecies,
			OrderName:      "Siluriformes",
			FamilyName:     "Clariidae",
			Origin:         "indigenous",
			IUCNStatus:     &datastore.IUCNStatus{ID: 1, Category: "LC"},
		},
		{
			ID:             32,
			ScientificName: "Enteromius anoplus (Weber, 1897)",
			Rank:           datastore.RankSubSpecies,
			OrderName:      "Cypriniformes",
			FamilyName:     "Cyprinidae",
			Origin:         "translocated",
		},
	}
	mockDS.On("GetSpeciesPage", uint(1), "clarias", 2, 2).Return(rows, int64(5), nil)

	rec, response := callListHandler(t, e, controller.GetTaxonGroupSpecies, "1", "page=2&page_size=2&search=clarias")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(5), response["total"])
	assert.Equal(t, float64(2), response["page"])
	assert.Equal(t, true, response["has_next"], "2*2 < 5 leaves a third page")
	assert.Equal(t, true, response["has_previous"])

	data := response["data"].([]any)
	require.Len(t, data, 2)

	first := data[0].(map[string]any)
	assert.Equal(t, float64(31), first["id"])
	assert.Equal(t, "Clarias gariepinus", first["name"])
	assert.Equal(t, "Clarias gariepinus (Burchell, 1822)", first["scientific_name"])
	assert.Equal(t, datastore.RankSpecies, first["rank"])
	assert.Equal(t, "Clariidae", first["family_name"])
	assert.Equal(t, "Siluriformes", first["order_name"])
	assert.Equal(t, "LC", first["conservation_status"], "raw category code, not the display label")
	assert.Equal(t, "Native", first["origin"])

	second := data[1].(map[string]any)
	assert.Equal(t, "Enteromius anoplus (Weber, 1897)", second["name"], "scientific name stands in for a missing canonical name")
	assert.Equal(t, datastore.NotEvaluated, second["conservation_status"])
	assert.Equal(t, "Unknown", second["origin"], "codes outside the lookup fall back to Unknown")
}

func TestListEndpointsTaxonGroupNotFound(t *testing.T) {
	handlers := map[string]func(c *Controller) echo.HandlerFunc{
		"orders":   func(c *Controller) echo.HandlerFunc { return c.GetTaxonGroupOrders },
		"families": func(c *Controller) echo.HandlerFunc { return c.GetTaxonGroupFamilies },
		"species":  func(c *Controller) echo.HandlerFunc { return c.GetTaxonGroupSpecies },
	}

	for name, handler := range handlers {
		t.Run(name+" unknown id", func(t *testing.T) {
			e, mockDS, controller := setupTestEnvironment(t)
			mockDS.On("GetTaxonGroup", uint(99)).Return(datastore.TaxonGroup{}, datastore.ErrNotFound)

			rec, response := callListHandler(t, e, handler(controller), "99", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Taxon group not found", response["error"])
		})

		t.Run(name+" malformed id", func(t *testing.T) {
			e, _, controller := setupTestEnvironment(t)

			rec, response := callListHandler(t, e, handler(controller), "not-a-number", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Taxon group not found", response["error"])
		})
	}
}

func TestParseListParamsDefaults(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSearch   string
	}{
		{"no params", "", 1, 50, ""},
		{"explicit params", "page=3&page_size=10&search=carp", 3, 10, "carp"},
		{"malformed page", "page=abc&page_size=10", 1, 10, ""},
		{"zero page", "page=0", 1, 50, ""},
		{"negative page size", "page_size=-5", 1, 50, ""},
	}

	e := echo.New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, http.NoBody)
			ctx := e.NewContext(req, httptest.NewRecorder())

			page, pageSize, search := parseListParams(ctx)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantPageSize, pageSize)
			assert.Equal(t, tc.wantSearch, search)
		})
	}
}

func TestPaginateBeyondLastPage(t *testing.T) {
	items := []string{"a", "b", "c"}

	pageItems, hasNext, hasPrevious := paginate(items, 5, 2)
	assert.Empty(t, pageItems)
	assert.False(t, hasNext)
	assert.True(t, hasPrevious)

	pageItems, hasNext, hasPrevious = paginate(items, 1, 10)
	assert.Equal(t, items, pageItems)
	assert.False(t, hasNext)
	assert.False(t, hasPrevious)
}

func TestPaginateHugePageValues(t *testing.T) {
	items := []string{"a", "b", "c"}

	pageItems, hasNext, hasPrevious := paginate(items, 1<<62, 4)
	assert.Empty(t, pageItems, "a page far past the end should be empty, not panic")
	assert.False(t, hasNext)
	assert.True(t, hasPrevious)

	pageItems, hasNext, hasPrevious = paginate(items, math.MaxInt, math.MaxInt)
	assert.Empty(t, pageItems)
	assert.False(t, hasNext)
	assert.True(t, hasPrevious)

	pageItems, hasNext, hasPrevious = paginate(items, 2, math.MaxInt)
	assert.Empty(t, pageItems)
	assert.False(t, hasNext)
	assert.True(t, hasPrevious)
}

func TestGetTaxonGroupSpeciesHugePage(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetTaxonGroup", uint(1)).Return(fishGroup(), nil)
	mockDS.On("GetSpeciesPage", uint(1), "", 2, math.MaxInt).Return([]datastore.Taxonomy{}, int64(5), nil)

	hugePage := strconv.Itoa(math.MaxInt)
	rec, response := callListHandler(t, e, controller.GetTaxonGroupSpecies, "1", "page="+hugePage+"&page_size=2")
	assert.Equal(t, http.StatusOK, rec.Code)

	data := response["data"].([]any)
	assert.Empty(t, data)
	assert.Equal(t, float64(5), response["total"])
	assert.Equal(t, false, response["has_next"], "an empty trailing page has nothing after it")
	assert.Equal(t, true, response["has_previous"])
}
