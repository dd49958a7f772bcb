// internal/api/v2/reports_test.go
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MC-Knight/django-bims/internal/datastore"
)

// mockGroupCounts wires the occurrence and site counters one summary panel
// needs, so individual tests only set up the chart-specific expectations.
func mockGroupCounts(mockDS *MockDataStore, groupID uint, records, taxa, sites, surveys int64) {
	mockDS.On("CountRecords", groupID).Return(records, nil)
	mockDS.On("CountDistinctTaxa", groupID).Return(taxa, nil)
	mockDS.On("CountDistinctSites", groupID).Return(sites, nil)
	mockDS.On("CountDistinctSurveys", groupID).Return(surveys, nil)
}

func mockGlobalCounts(mockDS *MockDataStore, users, uploads, downloads int64) {
	mockDS.On("CountActiveUsers").Return(users, nil)
	mockDS.On("CountSurveysExcludingOwners", surveyOwnerExclusions).Return(uploads, nil)
	mockDS.On("CountDownloadRequests").Return(downloads, nil)
}

func getModuleSummary(t *testing.T, e *echo.Echo, controller *Controller) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v2/reports/module-summary", http.NoBody)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	require.NoError(t, controller.GetModuleSummary(ctx))

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	return rec, response
}

func TestGetModuleSummaryGeneralSummary(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	groups := []datastore.TaxonGroup{
		{ID: 1, Name: "Fish", Category: datastore.CategorySpeciesModule, ChartData: datastore.ChartModeOrigin},
		{ID: 2, Name: "Algae", Category: datastore.CategorySpeciesModule, ChartData: datastore.ChartModeDivision},
	}
	mockDS.On("GetSpeciesModuleGroups").Return(groups, nil)
	mockGlobalCounts(mockDS, 12, 7, 3)

	mockGroupCounts(mockDS, uint(1), 100, 40, 9, 5)
	mockDS.On("OriginCounts", uint(1)).Return(map[string]int64{"alien": 30, "indigenous": 70}, nil)
	mockDS.On("GetGroupTaxa", uint(1)).Return([]datastore.Taxonomy{}, nil)

	mockGroupCounts(mockDS, uint(2), 50, 20, 4, 2)
	mockDS.On("DivisionCounts", uint(2)).Return([]datastore.NamedCount{{Name: "Chlorophyta", Count: 50}}, nil)
	mockDS.On("GetGroupTaxa", uint(2)).Return([]datastore.Taxonomy{}, nil)

	rec, response := getModuleSummary(t, e, controller)
	assert.Equal(t, http.StatusOK, rec.Code)

	general, ok := response["general_summary"].(map[string]any)
	require.True(t, ok, "response should contain a general_summary object")
	assert.Equal(t, float64(150), general["total_occurrences"], "occurrences should sum across groups")
	assert.Equal(t, float64(60), general["total_taxa"], "taxa should sum per group without global dedup")
	assert.Equal(t, float64(12), general["total_users"])
	assert.Equal(t, float64(7), general["total_uploads"])
	assert.Equal(t, float64(3), general["total_downloads"])

	assert.Contains(t, response, "Fish")
	assert.Contains(t, response, "Algae")
}

func TestGetModuleSummaryChartModes(t *testing.T) {
	tests := []struct {
		name      string
		chartMode string
		setup     func(mockDS *MockDataStore, groupID uint)
		verify    func(t *testing.T, summary map[string]any)
	}{
		{
			name:      "division chart",
			chartMode: datastore.ChartModeDivision,
			setup: func(mockDS *MockDataStore, groupID uint) {
				mockDS.On("DivisionCounts", groupID).Return([]datastore.NamedCount{
					{Name: "Chlorophyta", Count: 12},
					{Name: "", Count: 3},
				}, nil)
			},
			verify: func(t *testing.T, summary map[string]any) {
				t.Helper()
				division, ok := summary["division"].([]any)
				require.True(t, ok, "summary should contain a division list")
				assert.Len(t, division, 2)
			},
		},
		{
			name:      "origin chart translates codes",
			chartMode: datastore.ChartModeOrigin,
			setup: func(mockDS *MockDataStore, groupID uint) {
				mockDS.On("OriginCounts", groupID).Return(map[string]int64{
					"alien":      5,
					"indigenous": 20,
				}, nil)
			},
			verify: func(t *testing.T, summary map[string]any) {
				t.Helper()
				origin, ok := summary["origin"].(map[string]any)
				require.True(t, ok, "summary should contain an origin object")
				assert.Equal(t, float64(5), origin["Non-Native"])
				assert.Equal(t, float64(20), origin["Native"])
				assert.NotContains(t, origin, "alien", "raw codes should not leak into the response")
			},
		},
		{
			name:      "endemism chart",
			chartMode: datastore.ChartModeEndemism,
			setup: func(mockDS *MockDataStore, groupID uint) {
				mockDS.On("EndemismCounts", groupID).Return(map[string]int64{
					"Micro-endemic": 4,
					"Unknown":       9,
				}, nil)
			},
			verify: func(t *testing.T, summary map[string]any) {
				t.Helper()
				endemism, ok := summary["endemism"].(map[string]any)
				require.True(t, ok, "summary should contain an endemism object")
				assert.Equal(t, float64(4), endemism["Micro-endemic"])
				assert.Equal(t, float64(9), endemism["Unknown"])
			},
		},
		{
			name:      "sass chart keeps the global visit total",
			chartMode: datastore.ChartModeSass,
			setup: func(mockDS *MockDataStore, groupID uint) {
				mockDS.On("EcologicalConditionCounts").Return([]datastore.EcologicalConditionCount{
					{Category: "Good", Count: 6, Colour: "#00FF00"},
				}, nil)
				mockDS.On("CountSiteVisits").Return(int64(42), nil)
			},
			verify: func(t *testing.T, summary map[string]any) {
				t.Helper()
				assert.Equal(t, float64(42), summary["total_sass"])
				ecological, ok := summary["ecological_data"].([]any)
				require.True(t, ok, "summary should contain ecological_data")
				require.Len(t, ecological, 1)
				entry := ecological[0].(map[string]any)
				assert.Equal(t, "Good", entry["value"])
				assert.Equal(t, "#00FF00", entry["color"])
			},
		},
		{
			name:      "empty mode falls back to conservation status",
			chartMode: "",
			setup: func(mockDS *MockDataStore, groupID uint) {
				mockDS.On("ConservationStatusCounts", groupID).Return(map[string]int64{
					"LC":                   11,
					"EN":                   2,
					datastore.NotEvaluated: 8,
					"BOGUS":                1,
				}, nil)
			},
			verify: func(t *testing.T, summary map[string]any) {
				t.Helper()
				status, ok := summary["conservation-status"].(map[string]any)
				require.True(t, ok, "summary should contain a conservation-status object")
				assert.Equal(t, float64(11), status["Least concern"])
				assert.Equal(t, float64(2), status["Endangered"])
				assert.Equal(t, float64(8), status[datastore.NotEvaluated])
				assert.NotContains(t, status, "BOGUS", "unknown codes should be dropped")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, mockDS, controller := setupTestEnvironment(t)

			group := datastore.TaxonGroup{
				ID:        3,
				Name:      "Invertebrates",
				Category:  datastore.CategorySpeciesModule,
				ChartData: tc.chartMode,
			}
			mockDS.On("GetSpeciesModuleGroups").Return([]datastore.TaxonGroup{group}, nil)
			mockGlobalCounts(mockDS, 1, 1, 1)
			mockGroupCounts(mockDS, group.ID, 25, 10, 3, 2)
			mockDS.On("GetGroupTaxa", group.ID).Return([]datastore.Taxonomy{}, nil)
			tc.setup(mockDS, group.ID)

			rec, response := getModuleSummary(t, e, controller)
			assert.Equal(t, http.StatusOK, rec.Code)

			summary, ok := response["Invertebrates"].(map[string]any)
			require.True(t, ok, "response should contain the group's summary")
			tc.verify(t, summary)

			assert.Equal(t, float64(25), summary["total"])
			assert.Equal(t, float64(3), summary["total_site"])
			assert.Equal(t, float64(2), summary["total_site_visit"])
		})
	}
}

func TestGetModuleSummaryHierarchyTotals(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	group := datastore.TaxonGroup{
		ID:       4,
		Name:     "Fish",
		Category: datastore.CategorySpeciesModule,
		LogoURL:  "https://example.com/fish.svg",
	}
	mockDS.On("GetSpeciesModuleGroups").Return([]datastore.TaxonGroup{group}, nil)
	mockGlobalCounts(mockDS, 1, 1, 1)
	mockGroupCounts(mockDS, group.ID, 10, 6, 2, 1)
	mockDS.On("ConservationStatusCounts", group.ID).Return(map[string]int64{}, nil)

	taxa := []datastore.Taxonomy{
		{ID: 11, Rank: datastore.RankSpecies, OrderName: "Cypriniformes", FamilyName: "Cyprinidae"},
		{ID: 12, Rank: datastore.RankSpecies, OrderName: "Cypriniformes", FamilyName: "Danionidae"},
		{ID: 13, Rank: datastore.RankSubSpecies, OrderName: "Siluriformes", FamilyName: "Clariidae"},
		{ID: 14, Rank: datastore.RankGenus, OrderName: "Siluriformes", FamilyName: ""},
	}
	mockDS.On("GetGroupTaxa", group.ID).Return(taxa, nil)

	rec, response := getModuleSummary(t, e, controller)
	assert.Equal(t, http.StatusOK, rec.Code)

	summary, ok := response["Fish"].(map[string]any)
	require.True(t, ok)

	orders := summary["orders"].(map[string]any)
	families := summary["families"].(map[string]any)
	species := summary["species"].(map[string]any)
	assert.Equal(t, float64(2), orders["total"])
	assert.Equal(t, float64(3), families["total"])
	assert.Equal(t, float64(3), species["total"], "genus rank taxa should not count as species")
	assert.Equal(t, "https://example.com/fish.svg", summary["icon"])
}

func TestGetModuleSummaryUnknownOriginCode(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	group := datastore.TaxonGroup{
		ID:        5,
		Name:      "Fish",
		Category:  datastore.CategorySpeciesModule,
		ChartData: datastore.ChartModeOrigin,
	}
	mockDS.On("GetSpeciesModuleGroups").Return([]datastore.TaxonGroup{group}, nil)
	mockGlobalCounts(mockDS, 1, 1, 1)
	mockDS.On("CountRecords", group.ID).Return(int64(10), nil)
	mockDS.On("CountDistinctTaxa", group.ID).Return(int64(5), nil)
	mockDS.On("OriginCounts", group.ID).Return(map[string]int64{"translocated": 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/reports/module-summary", http.NoBody)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	require.NoError(t, controller.GetModuleSummary(ctx))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Error, "translocated")
	assert.NotEmpty(t, errResp.CorrelationID)
}

func TestGetModuleSummaryDatastoreFailure(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetSpeciesModuleGroups").Return([]datastore.TaxonGroup{}, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/reports/module-summary", http.NoBody)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	require.NoError(t, controller.GetModuleSummary(ctx))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
